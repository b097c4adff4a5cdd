package configfinder

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/aiproductguy/lightpipe/internal/domain"
)

// DefaultConfigFile is the file name searched for when no --config is given.
const DefaultConfigFile = "lightpipe.yaml"

// Finder locates the directory holding lightpipe.yaml by searching upward.
type Finder struct {
	ConfigFile string // defaults to "lightpipe.yaml"
}

func NewFinder() *Finder {
	return &Finder{ConfigFile: DefaultConfigFile}
}

// findRoot returns the nearest directory at or above startDir holding the config file.
func (f *Finder) findRoot(startDir string) (string, error) {
	if startDir == "" {
		return "", &domain.OpError{
			Op:   "configfinder.findroot",
			Kind: domain.KindInvalidConfig,
			Err:  errors.New("startDir is empty"),
		}
	}

	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", &domain.OpError{
			Op:   "configfinder.findroot",
			Kind: domain.KindExecution,
			Err:  err,
		}
	}

	// If user passes a file path, use its directory.
	info, statErr := os.Stat(abs)
	if statErr == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}

	name := f.ConfigFile
	if name == "" {
		name = DefaultConfigFile
	}

	cur := filepath.Clean(abs)
	for {
		if _, err := os.Stat(filepath.Join(cur, name)); err == nil {
			return cur, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return "", &domain.OpError{
				Op:   "configfinder.findroot",
				Kind: domain.KindNotFound,
				Err:  domain.ErrNotFound,
			}
		}
		cur = parent
	}
}

// FindFile returns the full path of the config file above startDir, or "" when none exists.
func (f *Finder) FindFile(startDir string) string {
	root, err := f.findRoot(startDir)
	if err != nil {
		return ""
	}
	name := f.ConfigFile
	if name == "" {
		name = DefaultConfigFile
	}
	return filepath.Join(root, name)
}
