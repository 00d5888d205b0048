package main

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/shinkrolist/internal/domain"
	"github.com/varoOP/shinkrolist/internal/normalize"
)

func TestParseID(t *testing.T) {
	id, err := parseID(" 5114 ")
	require.NoError(t, err)
	assert.Equal(t, 5114, id)

	for _, bad := range []string{"", "abc", "0", "-3"} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestPrintList(t *testing.T) {
	var buf bytes.Buffer
	printList(&buf, nil)
	assert.Equal(t, "No anime found.\n", buf.String())

	buf.Reset()
	printList(&buf, []domain.Anime{
		{ID: 1, Title: "Mushishi", Score: 8.7, Genres: []string{"Mystery", "Slice of Life"}, Source: domain.SourceSeed},
		{ID: 2, Title: "Akira", Year: domain.IntPtr(1988), Episodes: 1, Score: 8.4, Source: domain.SourceAniList},
	})
	out := buf.String()
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "Mystery, Slice of Life")
	assert.Contains(t, out, "1988")
	assert.Contains(t, out, "?")
}

func TestPrintAnime(t *testing.T) {
	var buf bytes.Buffer
	a := domain.Placeholder(42)
	a.EpisodeList = []domain.Episode{{Number: 1, Title: "Pilot", Filler: true}}
	printAnime(&buf, &a)

	out := buf.String()
	assert.Contains(t, out, "Anime ID: 42")
	assert.Contains(t, out, domain.PlaceholderSynopsis)
	assert.Contains(t, out, "Pilot [filler]")
}

func TestPrintAnime_TruncatesSynopsis(t *testing.T) {
	var buf bytes.Buffer
	a := domain.Placeholder(42)
	a.Synopsis = strings.Repeat("The crew drifts on. ", 50)
	printAnime(&buf, &a)

	var synopsis string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.HasPrefix(line, "The crew") {
			synopsis = line
		}
	}
	require.NotEmpty(t, synopsis)
	assert.LessOrEqual(t, utf8.RuneCountInString(synopsis), normalize.SynopsisLimit)
	assert.True(t, strings.HasSuffix(synopsis, "."), synopsis)
}
