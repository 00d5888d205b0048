package domain

import "context"

// RecordCache resolves anime ids found in tracking lists to displayable
// records without touching the network
type RecordCache interface {
	Put(ctx context.Context, anime Anime) error
	Get(ctx context.Context, id int) (Anime, bool)
	// Resolve returns the cached record or a placeholder on a miss
	Resolve(ctx context.Context, id int) Anime
	Len() int
}
