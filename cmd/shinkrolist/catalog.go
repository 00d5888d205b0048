package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/varoOP/shinkrolist/internal/app"
	"github.com/varoOP/shinkrolist/internal/catalog"
	"github.com/varoOP/shinkrolist/internal/domain"
)

var limit int

func listCommand(use, short string, args cobra.PositionalArgs, fetch func(ctx context.Context, a *app.App, args []string) ([]domain.Anime, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				records, err := fetch(ctx, a, args)
				if err != nil {
					return err
				}
				printList(cmd.OutOrStdout(), records)
				return nil
			})
		},
	}
}

var popularCmd = listCommand("popular", "List the most popular anime", cobra.NoArgs,
	func(ctx context.Context, a *app.App, _ []string) ([]domain.Anime, error) {
		return a.Catalog.Popular(ctx, limit), nil
	})

var trendingCmd = listCommand("trending", "List anime trending right now", cobra.NoArgs,
	func(ctx context.Context, a *app.App, _ []string) ([]domain.Anime, error) {
		return a.Catalog.Trending(ctx, limit), nil
	})

var genreCmd = listCommand("genre <genre>", "List the best rated anime of a genre", cobra.ExactArgs(1),
	func(ctx context.Context, a *app.App, args []string) ([]domain.Anime, error) {
		return a.Catalog.ByGenre(ctx, args[0], limit), nil
	})

var searchCmd = listCommand("search <query>", "Search anime by title", cobra.MinimumNArgs(1),
	func(ctx context.Context, a *app.App, args []string) ([]domain.Anime, error) {
		return a.Catalog.Search(ctx, strings.Join(args, " "), limit), nil
	})

var seasonCmd = listCommand("season <year> <season>", "List the anime of a season", cobra.ExactArgs(2),
	func(ctx context.Context, a *app.App, args []string) ([]domain.Anime, error) {
		y, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("invalid year: %q", args[0])
		}
		season, err := domain.ParseSeason(args[1])
		if err != nil {
			return nil, err
		}
		return a.Catalog.Seasonal(ctx, y, season, limit), nil
	})

var recommendCmd = listCommand("recommend <id>", "List anime recommended alongside one title", cobra.ExactArgs(1),
	func(ctx context.Context, a *app.App, args []string) ([]domain.Anime, error) {
		id, err := parseID(args[0])
		if err != nil {
			return nil, err
		}
		return a.Catalog.Recommendations(ctx, id, limit), nil
	})

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one anime with characters and episodes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			record := a.Catalog.Detail(ctx, id)
			if record == nil {
				return fmt.Errorf("anime %d: %w", id, domain.ErrNotFound)
			}
			printAnime(cmd.OutOrStdout(), record)
			return nil
		})
	},
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Assemble a large catalog list and page through it",
	Long: `Browse fetches the first page of a list right away and keeps fetching the
rest in the background until the target size is reached, then prints the
requested page after sorting and filtering.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		kindFlag, _ := flags.GetString("kind")
		sortFlag, _ := flags.GetString("sort")
		target, _ := flags.GetInt("target")
		page, _ := flags.GetInt("page")
		size, _ := flags.GetInt("page-size")

		kind, err := domain.ParseListKind(kindFlag)
		if err != nil {
			return err
		}
		mode, err := catalog.ParseSortMode(sortFlag)
		if err != nil {
			return err
		}

		q := domain.ListQuery{Kind: kind}
		q.Genre, _ = flags.GetString("genre")
		q.Search, _ = flags.GetString("query")
		if kind == domain.ListSeasonal {
			q.Year, _ = flags.GetInt("year")
			seasonFlag, _ := flags.GetString("season")
			if q.Season, err = domain.ParseSeason(seasonFlag); err != nil {
				return err
			}
		}

		filter := catalog.Filter{}
		filter.MinScore, _ = flags.GetFloat64("min-score")
		filter.Year, _ = flags.GetInt("filter-year")
		filter.Genre, _ = flags.GetString("filter-genre")

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if target <= 0 {
				target = a.Config.CatalogTarget
			}

			c := a.Catalog.Assemble(ctx, q, target)
			if err := c.Wait(ctx); err != nil {
				return fmt.Errorf("browse interrupted: %w", err)
			}
			if err := c.Err(); err != nil {
				a.Log.Warn().Err(err).Int("records", c.Len()).Msg("assembly stopped early")
			}

			records := filter.Apply(catalog.Sort(c.Snapshot(), mode))
			items, current, total := catalog.Page(records, page, size)

			out := cmd.OutOrStdout()
			printList(out, items)
			fmt.Fprintf(out, "\nPage %d of %d (%d anime from %s)\n", current, total, len(records), c.Source())
			return nil
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{popularCmd, trendingCmd, genreCmd, searchCmd, seasonCmd, recommendCmd} {
		cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of anime to list")
		rootCmd.AddCommand(cmd)
	}

	browseCmd.Flags().String("kind", string(domain.ListPopular), "list to assemble: popular, trending, genre, search or seasonal")
	browseCmd.Flags().String("sort", string(catalog.SortSource), "sort mode: source, popularity, title, rating, year or rank")
	browseCmd.Flags().Int("target", 0, "number of anime to collect (default catalog.target)")
	browseCmd.Flags().Int("page", 1, "page to print")
	browseCmd.Flags().Int("page-size", catalog.DefaultPageSize, "anime per page")
	browseCmd.Flags().String("genre", "", "genre for --kind genre")
	browseCmd.Flags().String("query", "", "search text for --kind search")
	browseCmd.Flags().Int("year", 0, "year for --kind seasonal")
	browseCmd.Flags().String("season", "", "season for --kind seasonal")
	browseCmd.Flags().Float64("min-score", 0, "only show anime scored at least this")
	browseCmd.Flags().Int("filter-year", 0, "only show anime from this year")
	browseCmd.Flags().String("filter-genre", "", "only show anime with this genre")

	rootCmd.AddCommand(showCmd, browseCmd)
}
