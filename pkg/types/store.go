package types

// Store is the persistence abstraction over a tea collection.
// Implementations keep names and ids unique and preserve insertion order.
type Store interface {
	// Load returns every tea in store order. A store that has never been
	// written is empty.
	Load() ([]Tea, error)

	// GetByName returns the first tea whose name matches exactly.
	// The boolean is false when no tea has that name.
	GetByName(name string) (Tea, bool, error)

	// GenerateNewID returns an identifier no stored tea uses: the largest
	// stored id plus one, or the current Unix time in milliseconds when
	// the store is empty.
	GenerateNewID() (int64, error)

	// Save inserts tea, or replaces the tea with the same id in place.
	// Returns a *DuplicateNameError or *DuplicateIDError when tea would
	// break uniqueness.
	Save(tea Tea) error

	// Import saves teas in order with the same rules as Save. Either every
	// tea is stored or, on the first rejection, none is.
	Import(teas []Tea) error

	// Close releases backend resources.
	Close() error
}
