package anilist_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/shinkrolist/internal/anilist"
	"github.com/varoOP/shinkrolist/internal/domain"
)

type capturedRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func newServer(t *testing.T, handler func(req capturedRequest) (int, string)) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var seen []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req capturedRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		seen = append(seen, req)
		status, body := handler(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func newSource(url string) domain.RecordSource {
	return anilist.NewService(zerolog.Nop(), &domain.Config{AniListURL: url, HTTPTimeout: 5 * time.Second})
}

func TestList_Popular(t *testing.T) {
	srv, seen := newServer(t, func(req capturedRequest) (int, string) {
		return http.StatusOK, `{"data":{"Page":{"pageInfo":{"currentPage":2,"hasNextPage":true},"media":[
			{"id":1,"idMal":11,"title":{"romaji":"One"},"averageScore":90},
			{"id":2,"title":{"english":"Two"}},
			null
		]}}}`
	})

	page, err := newSource(srv.URL).List(context.Background(), domain.ListQuery{Kind: domain.ListPopular}, 2, 500)
	require.NoError(t, err)

	assert.True(t, page.HasNextPage)
	require.Len(t, page.Items, 2)
	assert.Equal(t, 11, page.Items[0].ID)
	assert.Equal(t, 9.0, page.Items[0].Score)
	assert.Equal(t, 2, page.Items[1].ID)

	require.Len(t, *seen, 1)
	vars := (*seen)[0].Variables
	assert.EqualValues(t, 2, vars["page"])
	assert.EqualValues(t, anilist.MaxPerPage, vars["perPage"])
	assert.Equal(t, []any{"POPULARITY_DESC"}, vars["sort"])
}

func TestList_GenreUsesVocabulary(t *testing.T) {
	srv, seen := newServer(t, func(req capturedRequest) (int, string) {
		return http.StatusOK, `{"data":{"Page":{"pageInfo":{"hasNextPage":false},"media":[]}}}`
	})

	page, err := newSource(srv.URL).List(context.Background(), domain.ListQuery{Kind: domain.ListGenre, Genre: "sci-fi"}, 1, 10)
	require.NoError(t, err)
	assert.False(t, page.HasNextPage)
	assert.Empty(t, page.Items)

	require.Len(t, *seen, 1)
	assert.Equal(t, []any{"Sci-Fi"}, (*seen)[0].Variables["genre"])
}

func TestList_EmptySearchSkipsRequest(t *testing.T) {
	srv, seen := newServer(t, func(req capturedRequest) (int, string) {
		return http.StatusOK, `{}`
	})

	page, err := newSource(srv.URL).List(context.Background(), domain.ListQuery{Kind: domain.ListSearch, Search: "  "}, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Empty(t, *seen)
}

func TestList_GraphQLErrors(t *testing.T) {
	srv, _ := newServer(t, func(req capturedRequest) (int, string) {
		return http.StatusOK, `{"errors":[{"message":"Validation error","status":400}],"data":null}`
	})

	_, err := newSource(srv.URL).List(context.Background(), domain.ListQuery{Kind: domain.ListTrending}, 1, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Validation error")
}

func TestLookup_ByMALThenNotFound(t *testing.T) {
	srv, seen := newServer(t, func(req capturedRequest) (int, string) {
		if _, ok := req.Variables["idMal"]; ok {
			return http.StatusOK, `{"data":{"Media":{"id":21,"idMal":21,"title":{"english":"One Piece"},"rankings":[{"rank":3,"type":"RATED"}]}}}`
		}
		return http.StatusNotFound, `{"errors":[{"message":"Not Found.","status":404}],"data":{"Media":null}}`
	})
	src := newSource(srv.URL)

	a, err := src.Lookup(context.Background(), 21, domain.IDKindMAL)
	require.NoError(t, err)
	assert.Equal(t, "One Piece", a.Title)
	assert.Equal(t, 3, a.Rank)

	_, err = src.Lookup(context.Background(), 21, domain.IDKindAniList)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.Len(t, *seen, 2)
	assert.EqualValues(t, 21, (*seen)[1].Variables["id"])
}

func TestList_HTTPError(t *testing.T) {
	srv, _ := newServer(t, func(req capturedRequest) (int, string) {
		return http.StatusInternalServerError, `oops`
	})

	_, err := newSource(srv.URL).List(context.Background(), domain.ListQuery{Kind: domain.ListPopular}, 1, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestMapGenre(t *testing.T) {
	assert.Equal(t, "Sci-Fi", anilist.MapGenre("sci fi"))
	assert.Equal(t, "Sci-Fi", anilist.MapGenre("SCI-FI"))
	assert.Equal(t, "Slice of Life", anilist.MapGenre("slice-of-life"))
	assert.Equal(t, "Thriller", anilist.MapGenre("suspense"))
	assert.Equal(t, "Award Winning", anilist.MapGenre("award winning"))
}
