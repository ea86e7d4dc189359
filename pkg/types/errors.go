package types

import (
	"errors"
	"fmt"
)

// Store errors. The typed errors below match these with errors.Is.
var (
	ErrParse         = errors.New("store file is not valid JSON")
	ErrDuplicateName = errors.New("duplicate tea name")
	ErrDuplicateID   = errors.New("duplicate tea id")
	ErrNotFound      = errors.New("tea not found")
	ErrIDExhausted   = errors.New("no tea id left above the current maximum")
)

// ParseError reports a store file whose contents could not be decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// DuplicateNameError is returned by Save when another id already owns Name.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("Tea with name %s already exists", e.Name)
}

func (e *DuplicateNameError) Is(target error) bool { return target == ErrDuplicateName }

// DuplicateIDError is returned by Save when another name already owns ID.
type DuplicateIDError struct {
	ID int64
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("Tea with id %d already exists", e.ID)
}

func (e *DuplicateIDError) Is(target error) bool { return target == ErrDuplicateID }
