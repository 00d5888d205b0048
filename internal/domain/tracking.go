package domain

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrInvalidStatus = errors.New("invalid tracking status")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	ErrNotTracked    = errors.New("anime is not tracked")
	ErrNoSession     = errors.New("no active session")
)

// Status is a watch-status bucket. StatusUnlisted is the absence of an entry.
type Status string

const (
	StatusUnlisted    Status = "unlisted"
	StatusWatchlist   Status = "watchlist"
	StatusWatchLater  Status = "watch-later"
	StatusWatching    Status = "watching"
	StatusCompleted   Status = "completed"
	StatusDropped     Status = "dropped"
	StatusPlanToWatch Status = "plan-to-watch"
)

// Buckets lists the six mutually exclusive membership buckets in display order
var Buckets = []Status{
	StatusWatchlist,
	StatusWatchLater,
	StatusWatching,
	StatusCompleted,
	StatusDropped,
	StatusPlanToWatch,
}

func (s Status) IsBucket() bool {
	for _, b := range Buckets {
		if s == b {
			return true
		}
	}
	return false
}

func ParseStatus(s string) (Status, error) {
	v := Status(strings.ToLower(strings.TrimSpace(s)))
	if v == StatusUnlisted || v.IsBucket() {
		return v, nil
	}
	return "", errors.Wrapf(ErrInvalidStatus, "%q", s)
}

// TrackingEntry is the single membership record of one anime in one user scope
type TrackingEntry struct {
	AnimeID   int       `json:"animeId" yaml:"animeId"`
	Status    Status    `json:"status" yaml:"status"`
	Progress  int       `json:"progress" yaml:"progress"`
	Rating    *int      `json:"rating,omitempty" yaml:"rating,omitempty"`
	Notes     string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	AddedAt   time.Time `json:"addedAt" yaml:"addedAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// ValidRating reports whether r is nil or within 1..5
func ValidRating(r *int) bool {
	return r == nil || (*r >= 1 && *r <= 5)
}

// TrackingBackend is the storage contract shared by the remote account store
// and the local device store. Put replaces any existing entry for the same
// anime, which is how bucket exclusivity is kept at the storage layer. Get
// returns nil and no error for an anime that is not tracked.
type TrackingBackend interface {
	Get(ctx context.Context, animeID int) (*TrackingEntry, error)
	List(ctx context.Context, status Status) ([]TrackingEntry, error)
	All(ctx context.Context) ([]TrackingEntry, error)
	Put(ctx context.Context, entry TrackingEntry) error
	Delete(ctx context.Context, animeID int) error
}

// Session is an authenticated remote account session
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
}

func (s *Session) Expired(now time.Time) bool {
	return s == nil || s.AccessToken == "" || (!s.ExpiresAt.IsZero() && now.After(s.ExpiresAt))
}

// AccountStore is the remote, account scoped capability. Session returns
// ErrNoSession when nobody is signed in.
type AccountStore interface {
	TrackingBackend
	Session(ctx context.Context) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
}

// DeviceStore is key-value persistence that survives across sessions on one
// device. Load returns nil and no error for an absent key.
type DeviceStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// Fixed device store keys
const (
	KeyTracking = "animeTracking"
	KeyCache    = "animeCache"
	KeySession  = "session"
)
