package domain

import (
	"context"
	"time"
)

// TrackingRepository defines the interface for tracking list export files
type TrackingRepository interface {
	Get(ctx context.Context, path string) (*TrackingExport, error)
	Store(ctx context.Context, path string, export *TrackingExport) error
}

// TrackingExport is the on-disk shape of an exported tracking list
type TrackingExport struct {
	ExportedAt time.Time       `json:"exportedAt" yaml:"exportedAt"`
	Backend    string          `json:"backend" yaml:"backend"`
	Entries    []ExportedEntry `json:"entries" yaml:"entries"`
}

// ExportedEntry pairs a tracking entry with the title known at export time
type ExportedEntry struct {
	TrackingEntry `yaml:",inline"`
	Title         string `json:"title,omitempty" yaml:"title,omitempty"`
}
