package domain

import "context"

// NotificationService defines the interface for notification services
type NotificationService interface {
	// SendStatusChange reports a tracking transition
	SendStatusChange(ctx context.Context, change StatusChange) error
}

// StatusChange describes one tracking transition
type StatusChange struct {
	AnimeID int
	Title   string
	Image   string
	From    Status
	To      Status
	Backend string
}
