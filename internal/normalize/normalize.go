// Package normalize maps the payloads of every supported metadata source
// onto the canonical anime record. All functions are pure and total: missing
// fields get defaults and malformed input yields nil, never a panic.
package normalize

import (
	"encoding/json"

	"github.com/varoOP/shinkrolist/internal/domain"
)

// Record decodes a raw single-item payload from the given source and maps it.
// It returns nil for unknown sources, undecodable JSON and payloads without
// any usable title.
func Record(tag domain.Source, raw []byte) *domain.Anime {
	switch tag {
	case domain.SourceAniList:
		var m Media
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil
		}
		return FromAniList(&m)
	case domain.SourceJikan:
		var j JikanAnime
		if err := json.Unmarshal(raw, &j); err != nil {
			return nil
		}
		return FromJikan(&j)
	}
	return nil
}

// AniListPage maps a slice of media, dropping entries that yield no record
func AniListPage(media []Media) []domain.Anime {
	out := make([]domain.Anime, 0, len(media))
	for i := range media {
		if a := FromAniList(&media[i]); a != nil {
			out = append(out, *a)
		}
	}
	return out
}

// JikanPage maps a slice of Jikan anime, dropping entries that yield no record
func JikanPage(data []JikanAnime) []domain.Anime {
	out := make([]domain.Anime, 0, len(data))
	for i := range data {
		if a := FromJikan(&data[i]); a != nil {
			out = append(out, *a)
		}
	}
	return out
}
