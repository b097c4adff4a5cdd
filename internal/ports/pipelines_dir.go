package ports

// PipelinesDir manages the directory pipeline files are written into.
type PipelinesDir interface {
	// Reset empties and recreates dir. It reports false when dir did not exist.
	Reset(dir string) (bool, error)
	Ensure(dir string) error
	// List returns the regular files directly inside dir, sorted.
	List(dir string) ([]string, error)
}
