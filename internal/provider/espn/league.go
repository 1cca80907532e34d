package espn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/albapepper/scoracle-fantasy/internal/league"
	"github.com/albapepper/scoracle-fantasy/internal/scoring"
)

type settingsResponse struct {
	ScoringPeriodID any `json:"scoringPeriodId"`
	Status          struct {
		CurrentMatchupPeriod any `json:"currentMatchupPeriod"`
		LatestScoringPeriod  any `json:"latestScoringPeriod"`
	} `json:"status"`
	Settings struct {
		ScoringSettings struct {
			ScoringItems []struct {
				StatID int     `json:"statId"`
				Points float64 `json:"points"`
			} `json:"scoringItems"`
		} `json:"scoringSettings"`
	} `json:"settings"`
}

// ScoringItems fetches the league's scoring configuration in document order.
func (c *Client) ScoringItems(ctx context.Context) ([]scoring.Item, error) {
	var resp settingsResponse
	if err := c.league(ctx, url.Values{"view": {"mSettings"}}, &resp); err != nil {
		return nil, fmt.Errorf("fetch scoring settings: %w", err)
	}
	items := make([]scoring.Item, 0, len(resp.Settings.ScoringSettings.ScoringItems))
	for _, it := range resp.Settings.ScoringSettings.ScoringItems {
		items = append(items, scoring.Item{StatID: it.StatID, Points: it.Points})
	}
	c.logger.Info("Fetched scoring settings", "season", c.season, "items", len(items))
	return items, nil
}

type teamsResponse struct {
	Teams []struct {
		ID       int    `json:"id"`
		Name     string `json:"name"`
		Location string `json:"location"`
		Nickname string `json:"nickname"`
	} `json:"teams"`
}

// Teams fetches the league's fantasy teams ordered by ID.
func (c *Client) Teams(ctx context.Context) ([]league.Team, error) {
	var resp teamsResponse
	if err := c.league(ctx, url.Values{"view": {"mTeam"}}, &resp); err != nil {
		return nil, fmt.Errorf("fetch teams: %w", err)
	}
	teams := make([]league.Team, 0, len(resp.Teams))
	for _, t := range resp.Teams {
		teams = append(teams, league.Team{ID: t.ID, Name: TeamName(t.ID, t.Name, t.Location, t.Nickname)})
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	return teams, nil
}

// TeamName picks a display name: the explicit name, else location and
// nickname, else "Team N".
func TeamName(id int, name, location, nickname string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	if n := strings.TrimSpace(strings.TrimSpace(location) + " " + strings.TrimSpace(nickname)); n != "" {
		return n
	}
	return fmt.Sprintf("Team %d", id)
}

// CurrentWeek asks ESPN for the league's current week, preferring
// currentMatchupPeriod, then latestScoringPeriod, then scoringPeriodId. When
// none is usable, or the request fails, fallback (at least 1) is returned.
func (c *Client) CurrentWeek(ctx context.Context, fallback int) int {
	var resp settingsResponse
	if err := c.league(ctx, url.Values{"view": {"mSettings"}}, &resp); err != nil {
		c.logger.Warn("Current week detection failed, using fallback", "error", err, "fallback", fallback)
		return max(1, fallback)
	}
	for _, v := range []any{resp.Status.CurrentMatchupPeriod, resp.Status.LatestScoringPeriod, resp.ScoringPeriodID} {
		if f, ok := coerceFloat(v); ok && int(f) >= 1 {
			return int(f)
		}
	}
	return max(1, fallback)
}

// ResolveWeeks turns a WEEKS value into concrete weeks. Blank or "ALL" means
// 1 through the current week; otherwise raw is a comma list of integers.
func (c *Client) ResolveWeeks(ctx context.Context, raw string, fallback int) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "ALL") {
		current := c.CurrentWeek(ctx, fallback)
		weeks := make([]int, current)
		for i := range weeks {
			weeks[i] = i + 1
		}
		return weeks, nil
	}
	return ParseWeeks(raw)
}

// ParseWeeks parses a comma list of week numbers.
func ParseWeeks(raw string) ([]int, error) {
	var weeks []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		w, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("WEEKS must be ALL, blank, or a comma list of integers: %q", part)
		}
		weeks = append(weeks, w)
	}
	if len(weeks) == 0 {
		return nil, fmt.Errorf("WEEKS list parsed empty: %q", raw)
	}
	return weeks, nil
}

type matchupResponse struct {
	Schedule []map[string]any `json:"schedule"`
}

// TeamScores fetches official team totals for one week. The schedule is first
// requested by scoringPeriodId and, if nothing matches the week, by
// matchupPeriodId. names maps team IDs to display names.
func (c *Client) TeamScores(ctx context.Context, week int, names map[int]string) ([]league.TeamScore, error) {
	var matchups []map[string]any
	for _, param := range []string{"scoringPeriodId", "matchupPeriodId"} {
		var resp matchupResponse
		params := url.Values{"view": {"mMatchupScore"}, param: {strconv.Itoa(week)}}
		if err := c.league(ctx, params, &resp); err != nil {
			return nil, fmt.Errorf("fetch week %d matchups: %w", week, err)
		}
		matchups = filterWeek(resp.Schedule, week)
		if len(matchups) > 0 {
			break
		}
	}

	var out []league.TeamScore
	for _, m := range matchups {
		for _, ts := range scoresFromMatchup(m) {
			name, ok := names[ts.id]
			if !ok {
				name = fmt.Sprintf("Team %d", ts.id)
			}
			out = append(out, league.TeamScore{
				Season:   c.season,
				Week:     week,
				TeamID:   ts.id,
				TeamName: name,
				Points:   ts.points,
			})
		}
	}
	if len(out) == 0 {
		c.logger.Warn("No matchup rows found", "week", week)
	} else {
		c.logger.Info("Collected team scores", "week", week, "teams", len(out))
	}
	return out, nil
}

// SortTeamScores orders scores by week then team ID.
func SortTeamScores(scores []league.TeamScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Week != scores[j].Week {
			return scores[i].Week < scores[j].Week
		}
		return scores[i].TeamID < scores[j].TeamID
	})
}

func filterWeek(schedule []map[string]any, week int) []map[string]any {
	var out []map[string]any
	for _, m := range schedule {
		for _, k := range []string{"matchupPeriodId", "scoringPeriodId"} {
			if f, ok := coerceFloat(m[k]); ok && int(f) == week {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

type teamPoints struct {
	id     int
	points float64
}

// scoresFromMatchup handles both the legacy "teams" array and the
// "home"/"away" objects.
func scoresFromMatchup(m map[string]any) []teamPoints {
	var sides []map[string]any
	if teams, ok := m["teams"].([]any); ok && len(teams) > 0 {
		for _, t := range teams {
			if obj, ok := t.(map[string]any); ok {
				sides = append(sides, obj)
			}
		}
	} else {
		for _, side := range []string{"home", "away"} {
			if obj, ok := m[side].(map[string]any); ok {
				sides = append(sides, obj)
			}
		}
	}

	var out []teamPoints
	for _, obj := range sides {
		id, ok := coerceFloat(obj["teamId"])
		if !ok {
			continue
		}
		pts, ok := TeamPoints(obj)
		if !ok {
			continue
		}
		out = append(out, teamPoints{id: int(id), points: pts})
	}
	return out
}

// TeamPoints finds a team's official points in a matchup side. ESPN has moved
// the number around over the years, so locations are tried in order: direct
// fields, nested objects, then per-period maps which are summed.
func TeamPoints(obj map[string]any) (float64, bool) {
	for _, k := range []string{"totalPoints", "appliedStatTotal", "points", "score", "totalPointsLive"} {
		if f, ok := coerceFloat(obj[k]); ok {
			return f, true
		}
	}

	nested := [][2]string{
		{"cumulativeScore", "score"},
		{"rosterForCurrentScoringPeriod", "appliedStatTotal"},
		{"adjustment", "points"},
	}
	for _, n := range nested {
		if inner, ok := obj[n[0]].(map[string]any); ok {
			if f, ok := coerceFloat(inner[n[1]]); ok {
				return f, true
			}
		}
	}

	for _, k := range []string{"appliedStatTotalByScoringPeriod", "pointsByScoringPeriod"} {
		if byPeriod, ok := obj[k].(map[string]any); ok {
			sum := 0.0
			for _, v := range byPeriod {
				f, _ := coerceFloat(v)
				sum += f
			}
			return sum, true
		}
	}
	return 0, false
}

func coerceFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
