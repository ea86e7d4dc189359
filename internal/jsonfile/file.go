package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/mesh-intelligence/caddy/pkg/types"
)

// readTeas reads the JSON array at path. A missing file is an empty store.
// Contents that do not decode as an array of teas yield a *types.ParseError.
func readTeas(fs afero.Fs, path string) ([]types.Tea, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}
	if !exists {
		return nil, nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var teas []types.Tea
	if err := json.Unmarshal(data, &teas); err != nil {
		return nil, &types.ParseError{Path: path, Err: err}
	}
	// A null document decodes without error but leaves teas nil.
	if teas == nil {
		return nil, &types.ParseError{Path: path, Err: errNotArray}
	}
	return teas, nil
}

var errNotArray = errors.New("store file must hold a JSON array")

// writeTeas atomically replaces the file at path with teas encoded as an
// indented JSON array, using the temp-file, fsync, rename pattern.
func writeTeas(fs afero.Fs, path string, teas []types.Tea) error {
	if teas == nil {
		teas = []types.Tea{}
	}
	data, err := json.MarshalIndent(teas, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding teas: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(fs, dir, ".data-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		fs.Remove(tmpName)
		return fmt.Errorf("writing teas: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		fs.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		fs.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := fs.Rename(tmpName, path); err != nil {
		fs.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
