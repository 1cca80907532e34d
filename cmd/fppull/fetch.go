package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/albapepper/scoracle-fantasy/internal/league"
	"github.com/albapepper/scoracle-fantasy/internal/pipeline"
	"github.com/albapepper/scoracle-fantasy/internal/provider/espn"
	"github.com/albapepper/scoracle-fantasy/internal/stats"
	"github.com/albapepper/scoracle-fantasy/internal/tabular"
)

func fetchCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Retrieve league settings, teams, team scores and box scores from ESPN",
	}
	cmd.AddCommand(fetchSub(f, "scoring", "Fetch the league scoring settings", (*app).fetchScoring))
	cmd.AddCommand(fetchSub(f, "teams", "Fetch fantasy team names", (*app).fetchTeams))
	cmd.AddCommand(fetchSub(f, "team-scores", "Fetch official weekly team totals", (*app).fetchTeamScores))
	cmd.AddCommand(fetchSub(f, "boxscores", "Fetch NFL box scores into the long stats table", (*app).fetchBoxScores))
	return cmd
}

func fetchSub(f *flags, use, short string, fn func(*app, context.Context, *espn.Client) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(f, func(ctx context.Context, a *app) error {
				client, err := a.espnClient()
				if err != nil {
					return err
				}
				return fn(a, ctx, client)
			})
		},
	}
}

func (a *app) espnClient() (*espn.Client, error) {
	if strings.TrimSpace(a.cfg.LeagueID) == "" {
		return nil, errors.New("LEAGUE_ID must be set")
	}
	return espn.NewClient(espn.Options{
		Season:            a.season,
		LeagueID:          a.cfg.LeagueID,
		Cookie:            espn.CookieHeader(a.cfg.CookieFile, a.cfg.SWID, a.cfg.ESPNS2),
		RequestsPerMinute: a.cfg.ESPNRatePerMinute,
		Logger:            logger,
	}), nil
}

func (a *app) fetchScoring(ctx context.Context, c *espn.Client) error {
	items, err := c.ScoringItems(ctx)
	if err != nil {
		return err
	}
	if err := tabular.WriteFile(a.paths.Scoring, func(w io.Writer) error {
		return tabular.WriteScoringCSV(w, items)
	}); err != nil {
		return err
	}
	logger.Info("Scoring settings written", "path", a.paths.Scoring, "items", len(items))
	return nil
}

func (a *app) fetchTeams(ctx context.Context, c *espn.Client) error {
	teams, err := c.Teams(ctx)
	if err != nil {
		return err
	}
	if err := tabular.WriteFile(a.paths.Teams, func(w io.Writer) error {
		return tabular.WriteTeams(w, teams)
	}); err != nil {
		return err
	}
	logger.Info("Teams written", "path", a.paths.Teams, "teams", len(teams))
	return nil
}

// fetchTeamScores writes official team totals for every resolved week. A
// week that fails is logged and skipped.
func (a *app) fetchTeamScores(ctx context.Context, c *espn.Client) error {
	teams, err := c.Teams(ctx)
	if err != nil {
		logger.Warn("Team names unavailable, using fallbacks", "error", err)
	}
	names := make(map[int]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}

	weeks, err := c.ResolveWeeks(ctx, a.cfg.Weeks, a.cfg.CurrentWeek)
	if err != nil {
		return err
	}

	var all []league.TeamScore
	for _, week := range weeks {
		scores, err := c.TeamScores(ctx, week, names)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("Team scores failed", "week", week, "error", err)
			continue
		}
		all = append(all, scores...)
	}
	espn.SortTeamScores(all)

	if err := tabular.WriteFile(a.paths.TeamScores, func(w io.Writer) error {
		return tabular.WriteTeamScores(w, all)
	}); err != nil {
		return err
	}
	logger.Info("Team scores written", "path", a.paths.TeamScores, "weeks", len(weeks), "rows", len(all))
	return nil
}

// fetchBoxScores appends every game of the resolved weeks to the long table
// under a fresh snapshot tag. Earlier snapshots are kept; reconciliation
// happens when the table is aggregated.
func (a *app) fetchBoxScores(ctx context.Context, c *espn.Client) error {
	existing, _, err := pipeline.LoadLong(a.paths.Long)
	if err != nil && !errors.Is(err, pipeline.ErrNoInput) {
		return err
	}

	weeks, err := c.ResolveWeeks(ctx, a.cfg.Weeks, a.cfg.CurrentWeek)
	if err != nil {
		return err
	}

	snapshot := time.Now().UTC().Format(time.RFC3339)
	var fetched []stats.Payload
	games, failed := 0, 0
	for _, week := range weeks {
		eventIDs, err := c.WeekEvents(ctx, week)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("Scoreboard failed", "week", week, "error", err)
			failed++
			continue
		}
		for _, id := range eventIDs {
			payloads, err := c.BoxScore(ctx, id, week, snapshot)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("Box score failed", "week", week, "event_id", id, "error", err)
				failed++
				continue
			}
			games++
			fetched = append(fetched, payloads...)
		}
	}
	if len(fetched) == 0 {
		return fmt.Errorf("no box scores fetched for season %d weeks %v", a.season, weeks)
	}

	all := append(existing, fetched...)
	if err := tabular.WriteFile(a.paths.Long, func(w io.Writer) error {
		return tabular.WriteLong(w, all)
	}); err != nil {
		return err
	}
	logger.Info("Box scores written",
		"path", a.paths.Long, "snapshot", snapshot,
		"games", games, "failed", failed,
		"payloads", len(fetched), "total", len(all))
	return nil
}
