// Package tracking maintains per-user watch status. Each call picks the
// remote account store when a session is active and the device store
// otherwise; a failing remote call is retried once against the device store.
package tracking

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/shinkrolist/internal/domain"
)

const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

type Service interface {
	SetStatus(ctx context.Context, animeID int, status domain.Status) error
	Status(ctx context.Context, animeID int) (domain.Status, error)
	Entry(ctx context.Context, animeID int) (*domain.TrackingEntry, error)
	List(ctx context.Context, status domain.Status) ([]domain.TrackingEntry, error)
	ListResolved(ctx context.Context, status domain.Status) ([]Resolved, error)
	UpdateProgress(ctx context.Context, animeID, progress int) error
	UpdateRating(ctx context.Context, animeID int, rating *int) error
	UpdateNotes(ctx context.Context, animeID int, notes string) error
	Counts(ctx context.Context) (map[domain.Status]int, error)
	Migrate(ctx context.Context) (*MigrateResult, error)
	Backend(ctx context.Context) string
	Export(ctx context.Context) (*domain.TrackingExport, error)
	Import(ctx context.Context, export *domain.TrackingExport) (int, error)
}

// Resolved pairs an entry with its cached record, a placeholder on a miss
type Resolved struct {
	Entry domain.TrackingEntry
	Anime domain.Anime
}

type MigrateResult struct {
	Copied  int
	Skipped int
}

type service struct {
	log    zerolog.Logger
	local  domain.TrackingBackend
	remote domain.AccountStore
	cache  domain.RecordCache
	notify domain.NotificationService
	now    func() time.Time
}

// NewService wires the tracking state machine. remote, cache and notify may
// be nil.
func NewService(log zerolog.Logger, local domain.TrackingBackend, remote domain.AccountStore, cache domain.RecordCache, notify domain.NotificationService) Service {
	return &service{
		log:    log.With().Str("module", "tracking").Logger(),
		local:  local,
		remote: remote,
		cache:  cache,
		notify: notify,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) backend(ctx context.Context) (domain.TrackingBackend, string) {
	if s.remote == nil {
		return s.local, BackendLocal
	}
	if _, err := s.remote.Session(ctx); err != nil {
		if !errors.Is(err, domain.ErrNoSession) {
			s.log.Warn().Err(err).Msg("session check failed, using device store")
		}
		return s.local, BackendLocal
	}
	return s.remote, BackendRemote
}

func (s *service) Backend(ctx context.Context) string {
	_, name := s.backend(ctx)
	return name
}

// attempt runs fn against the selected backend, repeating it on the device
// store when the remote one fails. Partial remote writes are not undone.
func attempt[T any](ctx context.Context, s *service, op string, fn func(domain.TrackingBackend) (T, error)) (T, string, error) {
	b, name := s.backend(ctx)
	v, err := fn(b)
	if err == nil || name == BackendLocal || errors.Is(err, domain.ErrNotTracked) {
		return v, name, err
	}

	s.log.Warn().Err(err).Str("op", op).Msg("remote store failed, falling back to device store")
	v, err = fn(s.local)
	return v, BackendLocal, err
}

// SetStatus is the only status transition. The id ends up in exactly one
// bucket, or in none for domain.StatusUnlisted. Setting the current status
// again changes nothing.
func (s *service) SetStatus(ctx context.Context, animeID int, status domain.Status) error {
	if status != domain.StatusUnlisted && !status.IsBucket() {
		return errors.Wrapf(domain.ErrInvalidStatus, "%q", status)
	}

	type transition struct {
		from domain.Status
		to   domain.Status
	}

	t, backend, err := attempt(ctx, s, "set status", func(b domain.TrackingBackend) (transition, error) {
		existing, err := b.Get(ctx, animeID)
		if err != nil {
			return transition{}, err
		}

		from := domain.StatusUnlisted
		if existing != nil {
			from = existing.Status
		}
		if from == status {
			return transition{from: from, to: status}, nil
		}

		if status == domain.StatusUnlisted {
			return transition{from: from, to: status}, b.Delete(ctx, animeID)
		}

		now := s.now()
		entry := domain.TrackingEntry{AnimeID: animeID, AddedAt: now}
		if existing != nil {
			entry = *existing
		}
		entry.Status = status
		entry.UpdatedAt = now

		return transition{from: from, to: status}, b.Put(ctx, entry)
	})
	if err != nil {
		return errors.Wrapf(err, "failed to set status of %d", animeID)
	}

	if t.from == t.to {
		return nil
	}

	s.log.Debug().Int("anime", animeID).Str("from", string(t.from)).Str("to", string(t.to)).Str("backend", backend).Msg("status changed")
	s.publish(ctx, animeID, t.from, t.to, backend)
	return nil
}

func (s *service) publish(ctx context.Context, animeID int, from, to domain.Status, backend string) {
	if s.notify == nil {
		return
	}

	change := domain.StatusChange{AnimeID: animeID, From: from, To: to, Backend: backend}
	a := s.resolve(ctx, animeID)
	change.Title = a.Title
	change.Image = a.Image

	if err := s.notify.SendStatusChange(ctx, change); err != nil {
		s.log.Warn().Err(err).Int("anime", animeID).Msg("failed to send status notification")
	}
}

func (s *service) resolve(ctx context.Context, animeID int) domain.Anime {
	if s.cache == nil {
		return domain.Placeholder(animeID)
	}
	return s.cache.Resolve(ctx, animeID)
}

func (s *service) Entry(ctx context.Context, animeID int) (*domain.TrackingEntry, error) {
	e, _, err := attempt(ctx, s, "get", func(b domain.TrackingBackend) (*domain.TrackingEntry, error) {
		return b.Get(ctx, animeID)
	})
	return e, err
}

func (s *service) Status(ctx context.Context, animeID int) (domain.Status, error) {
	e, err := s.Entry(ctx, animeID)
	if err != nil {
		return "", err
	}
	if e == nil {
		return domain.StatusUnlisted, nil
	}
	return e.Status, nil
}

// List returns the bucket newest update first
func (s *service) List(ctx context.Context, status domain.Status) ([]domain.TrackingEntry, error) {
	if !status.IsBucket() {
		return nil, errors.Wrapf(domain.ErrInvalidStatus, "%q", status)
	}
	entries, _, err := attempt(ctx, s, "list", func(b domain.TrackingBackend) ([]domain.TrackingEntry, error) {
		return b.List(ctx, status)
	})
	return entries, err
}

func (s *service) ListResolved(ctx context.Context, status domain.Status) ([]Resolved, error) {
	entries, err := s.List(ctx, status)
	if err != nil {
		return nil, err
	}

	out := make([]Resolved, 0, len(entries))
	for _, e := range entries {
		out = append(out, Resolved{Entry: e, Anime: s.resolve(ctx, e.AnimeID)})
	}
	return out, nil
}

// update edits an existing entry in place. The bucket never changes here.
func (s *service) update(ctx context.Context, op string, animeID int, edit func(*domain.TrackingEntry)) error {
	_, _, err := attempt(ctx, s, op, func(b domain.TrackingBackend) (struct{}, error) {
		existing, err := b.Get(ctx, animeID)
		if err != nil {
			return struct{}{}, err
		}
		if existing == nil {
			return struct{}{}, errors.Wrapf(domain.ErrNotTracked, "anime %d", animeID)
		}

		edit(existing)
		existing.UpdatedAt = s.now()
		return struct{}{}, b.Put(ctx, *existing)
	})
	return err
}

func (s *service) UpdateProgress(ctx context.Context, animeID, progress int) error {
	if progress < 0 {
		return errors.Errorf("progress must not be negative: %d", progress)
	}
	return s.update(ctx, "update progress", animeID, func(e *domain.TrackingEntry) {
		e.Progress = progress
	})
}

func (s *service) UpdateRating(ctx context.Context, animeID int, rating *int) error {
	if !domain.ValidRating(rating) {
		return errors.Wrapf(domain.ErrInvalidRating, "got %d", *rating)
	}
	return s.update(ctx, "update rating", animeID, func(e *domain.TrackingEntry) {
		e.Rating = rating
	})
}

func (s *service) UpdateNotes(ctx context.Context, animeID int, notes string) error {
	return s.update(ctx, "update notes", animeID, func(e *domain.TrackingEntry) {
		e.Notes = notes
	})
}

func (s *service) Counts(ctx context.Context) (map[domain.Status]int, error) {
	all, _, err := attempt(ctx, s, "counts", func(b domain.TrackingBackend) ([]domain.TrackingEntry, error) {
		return b.All(ctx)
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.Status]int, len(domain.Buckets))
	for _, b := range domain.Buckets {
		counts[b] = 0
	}
	for _, e := range all {
		counts[e.Status]++
	}
	return counts, nil
}

// Migrate copies device entries into the signed in account. On conflict the
// entry updated last wins. The device store is left untouched.
func (s *service) Migrate(ctx context.Context) (*MigrateResult, error) {
	if s.remote == nil {
		return nil, errors.Wrap(domain.ErrNoSession, "no remote store configured")
	}
	if _, err := s.remote.Session(ctx); err != nil {
		return nil, err
	}

	local, err := s.local.All(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read device entries")
	}

	res := &MigrateResult{}
	for _, e := range local {
		existing, err := s.remote.Get(ctx, e.AnimeID)
		if err != nil {
			return res, errors.Wrapf(err, "failed to read remote entry %d", e.AnimeID)
		}
		if existing != nil && !e.UpdatedAt.After(existing.UpdatedAt) {
			res.Skipped++
			continue
		}
		if err := s.remote.Put(ctx, e); err != nil {
			return res, errors.Wrapf(err, "failed to copy entry %d", e.AnimeID)
		}
		res.Copied++
	}

	s.log.Info().Int("copied", res.Copied).Int("skipped", res.Skipped).Msg("device entries migrated")
	return res, nil
}

func (s *service) Export(ctx context.Context) (*domain.TrackingExport, error) {
	all, backend, err := attempt(ctx, s, "export", func(b domain.TrackingBackend) ([]domain.TrackingEntry, error) {
		return b.All(ctx)
	})
	if err != nil {
		return nil, err
	}

	export := &domain.TrackingExport{
		ExportedAt: s.now(),
		Backend:    backend,
		Entries:    make([]domain.ExportedEntry, 0, len(all)),
	}
	for _, e := range all {
		export.Entries = append(export.Entries, domain.ExportedEntry{
			TrackingEntry: e,
			Title:         s.resolve(ctx, e.AnimeID).Title,
		})
	}
	return export, nil
}

// Import writes every valid entry to the selected backend and returns how
// many were stored
func (s *service) Import(ctx context.Context, export *domain.TrackingExport) (int, error) {
	if export == nil {
		return 0, nil
	}

	n, _, err := attempt(ctx, s, "import", func(b domain.TrackingBackend) (int, error) {
		stored := 0
		for _, e := range export.Entries {
			entry := e.TrackingEntry
			if entry.AnimeID == 0 || !entry.Status.IsBucket() || !domain.ValidRating(entry.Rating) {
				s.log.Warn().Int("anime", entry.AnimeID).Str("status", string(entry.Status)).Msg("skipping invalid entry")
				continue
			}
			if entry.AddedAt.IsZero() {
				entry.AddedAt = s.now()
			}
			if entry.UpdatedAt.IsZero() {
				entry.UpdatedAt = entry.AddedAt
			}
			if err := b.Put(ctx, entry); err != nil {
				return stored, err
			}
			stored++
		}
		return stored, nil
	})
	return n, err
}
