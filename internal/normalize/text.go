package normalize

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/varoOP/shinkrolist/internal/domain"
	"golang.org/x/net/html"
)

// SynopsisLimit is the display length synopses are truncated to
const SynopsisLimit = 500

var (
	citationRegex   = regexp.MustCompile(`\[Written by.*?\]|\(Source:[^)]*\)`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
	thumbnailRegex  = regexp.MustCompile(`vi/([A-Za-z0-9_-]{11})(?:/|$)`)
	videoURLRegex   = regexp.MustCompile(`(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([^"&?/\s]{11})`)
	videoIDRegex    = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

// StripHTML drops every tag and returns the decoded text content
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

// CleanSynopsis runs the full text pipeline: tag stripping, double newline
// collapsing, citation removal and whitespace normalization. An empty result
// becomes the placeholder text.
func CleanSynopsis(s string) string {
	s = StripHTML(s)
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n\n", "\n"))
	s = citationRegex.ReplaceAllString(s, "")
	s = strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
	if s == "" {
		return domain.PlaceholderSynopsis
	}
	return s
}

// Truncate shortens s to at most limit runes, cutting at a sentence end in
// the second half of the window when there is one, else at a word boundary
// followed by an ellipsis.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}

	r := []rune(s)
	window := r[:limit]
	for i := len(window) - 1; i >= limit/2; i-- {
		switch window[i] {
		case '.', '!', '?':
			return string(window[:i+1])
		}
	}

	if limit <= 3 {
		return string(window)
	}
	window = r[:limit-3]
	if i := lastSpace(window); i > 0 {
		window = window[:i]
	}
	return strings.TrimRight(string(window), " ,;:") + "..."
}

func lastSpace(r []rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] == ' ' {
			return i
		}
	}
	return -1
}

// Score maps a raw score on the given scale (10 or 100) onto 0-10.
// 100-point scores are divided by ten and rounded to two decimals.
func Score(raw float64, scale int) float64 {
	if raw <= 0 || math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0
	}
	if scale == 100 {
		return math.Round(raw*10) / 100
	}
	return raw
}

// TrailerFromThumbnail recovers a video id from a .../vi/{id}/... thumbnail URL
func TrailerFromThumbnail(thumbnail string) *string {
	m := thumbnailRegex.FindStringSubmatch(thumbnail)
	if len(m) < 2 {
		return nil
	}
	return domain.StringPtr(m[1])
}

// TrailerFromURL recovers a video id from any of the standard hosted video
// URL shapes (watch, embed, v, short links)
func TrailerFromURL(url string) *string {
	if url == "" {
		return nil
	}
	m := videoURLRegex.FindStringSubmatch(url)
	if len(m) < 2 {
		return nil
	}
	return domain.StringPtr(m[1])
}

// TrailerFromID accepts a bare video id when it has the expected shape
func TrailerFromID(id string) *string {
	if !videoIDRegex.MatchString(id) {
		return nil
	}
	return domain.StringPtr(id)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
