package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/varoOP/shinkrolist/internal/domain"
	"github.com/varoOP/shinkrolist/internal/normalize"
)

func printList(w io.Writer, records []domain.Anime) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No anime found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tYEAR\tSCORE\tEPS\tGENRES\tSOURCE")
	for _, a := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f\t%s\t%s\t%s\n",
			a.ID, a.Title, year(a), a.Score, episodes(a.Episodes), strings.Join(a.Genres, ", "), a.Source)
	}
	tw.Flush()
}

func printAnime(w io.Writer, a *domain.Anime) {
	fmt.Fprintf(w, "%s (%s)\n", a.Title, year(*a))
	if a.TitleEnglish != "" && a.TitleEnglish != a.Title {
		fmt.Fprintf(w, "  English:  %s\n", a.TitleEnglish)
	}
	if a.TitleNative != "" {
		fmt.Fprintf(w, "  Native:   %s\n", a.TitleNative)
	}
	fmt.Fprintf(w, "  ID:       %d", a.ID)
	if a.MALID != nil {
		fmt.Fprintf(w, " (MAL %d)", *a.MALID)
	}
	if a.AniListID > 0 {
		fmt.Fprintf(w, " (AniList %d)", a.AniListID)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Status:   %s\n", a.Status)
	fmt.Fprintf(w, "  Episodes: %s\n", episodes(a.Episodes))
	fmt.Fprintf(w, "  Score:    %.2f", a.Score)
	if a.Rank > 0 {
		fmt.Fprintf(w, "  #%d", a.Rank)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Rating:   %s\n", a.Rating)
	fmt.Fprintf(w, "  Studio:   %s\n", a.Studio)
	fmt.Fprintf(w, "  Genres:   %s\n", strings.Join(a.Genres, ", "))
	if a.TrailerID != nil {
		fmt.Fprintf(w, "  Trailer:  https://www.youtube.com/watch?v=%s\n", *a.TrailerID)
	}
	fmt.Fprintf(w, "  Source:   %s\n\n", a.Source)
	fmt.Fprintln(w, normalize.Truncate(a.Synopsis, normalize.SynopsisLimit))

	if len(a.Characters) > 0 {
		fmt.Fprintln(w, "\nCharacters:")
		for _, c := range a.Characters {
			fmt.Fprintf(w, "  %s (%s)\n", c.Name, c.Role)
		}
	}
	if len(a.EpisodeList) > 0 {
		fmt.Fprintln(w, "\nEpisodes:")
		for _, e := range a.EpisodeList {
			line := fmt.Sprintf("  %3d  %s", e.Number, e.Title)
			if e.Filler {
				line += " [filler]"
			}
			fmt.Fprintln(w, line)
		}
	}
	if len(a.Related) > 0 {
		fmt.Fprintln(w, "\nRelated:")
		for _, r := range a.Related {
			fmt.Fprintf(w, "  %d  %s\n", r.ID, r.Title)
		}
	}
}

func year(a domain.Anime) string {
	if a.Year == nil {
		return "?"
	}
	return strconv.Itoa(*a.Year)
}

func episodes(n int) string {
	if n <= 0 {
		return "?"
	}
	return strconv.Itoa(n)
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid anime id: %q", s)
	}
	return id, nil
}
