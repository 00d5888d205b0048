package domain

import "path/filepath"

const (
	DatabaseFile = "shinkrolist.db"
	ExportFile   = "tracking-export.yaml"
)

// Paths holds all the file paths under the data directory
type Paths struct {
	RootDir      string
	DatabasePath string
	ExportPath   string
}

// NewPaths creates a new Paths instance with all paths initialized
func NewPaths(rootDir string) *Paths {
	return &Paths{
		RootDir:      rootDir,
		DatabasePath: filepath.Join(rootDir, DatabaseFile),
		ExportPath:   filepath.Join(rootDir, ExportFile),
	}
}
