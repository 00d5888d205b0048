package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/varoOP/shinkrolist/internal/domain"
	"gopkg.in/yaml.v3"
)

// FileRepository implements domain.TrackingRepository using file storage.
// The file extension picks the codec: .yaml and .yml are YAML, anything else
// is JSON.
type FileRepository struct {
	log zerolog.Logger
}

// NewFileRepository creates a new file-based repository
func NewFileRepository(log zerolog.Logger) *FileRepository {
	return &FileRepository{
		log: log.With().Str("module", "repository").Logger(),
	}
}

var _ domain.TrackingRepository = (*FileRepository)(nil)

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Get reads an exported tracking list from a file
func (r *FileRepository) Get(ctx context.Context, path string) (*domain.TrackingExport, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file does not exist: %s: %w", path, err)
		}
		return nil, fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	body, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	export := &domain.TrackingExport{}
	if isYAML(path) {
		if err := yaml.Unmarshal(body, export); err != nil {
			return nil, fmt.Errorf("failed to unmarshal yaml from %s: %w", path, err)
		}
	} else {
		if err := json.Unmarshal(body, export); err != nil {
			return nil, fmt.Errorf("failed to unmarshal json from %s: %w", path, err)
		}
	}

	r.log.Debug().Str("path", path).Int("count", len(export.Entries)).Msg("loaded tracking export")
	return export, nil
}

// Store writes an exported tracking list to a file, creating parent
// directories as needed
func (r *FileRepository) Store(ctx context.Context, path string, export *domain.TrackingExport) error {
	if export == nil {
		return fmt.Errorf("nothing to store at %s", path)
	}

	var (
		b   []byte
		err error
	)
	if isYAML(path) {
		b, err = yaml.Marshal(export)
		if err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}
	} else {
		b, err = json.MarshalIndent(export, "", "   ")
		if err != nil {
			return fmt.Errorf("failed to marshal tracking export: %w", err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(b); err != nil {
		return fmt.Errorf("failed to write to file %s: %w", path, err)
	}

	r.log.Debug().Str("path", path).Int("count", len(export.Entries)).Msg("stored tracking export")
	return nil
}
