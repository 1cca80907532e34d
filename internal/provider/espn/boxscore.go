package espn

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/albapepper/scoracle-fantasy/internal/stats"
)

type scoreboardResponse struct {
	Events []struct {
		ID string `json:"id"`
	} `json:"events"`
}

// WeekEvents lists the NFL event IDs of a regular-season week.
func (c *Client) WeekEvents(ctx context.Context, week int) ([]string, error) {
	params := url.Values{
		"dates":      {strconv.Itoa(c.season)},
		"seasontype": {"2"},
		"week":       {strconv.Itoa(week)},
	}
	var resp scoreboardResponse
	if err := c.site(ctx, "/scoreboard", params, &resp); err != nil {
		return nil, fmt.Errorf("fetch week %d scoreboard: %w", week, err)
	}
	ids := make([]string, 0, len(resp.Events))
	for _, e := range resp.Events {
		if e.ID != "" {
			ids = append(ids, e.ID)
		}
	}
	return ids, nil
}

type summaryResponse struct {
	Boxscore struct {
		Players []struct {
			Team struct {
				Abbreviation string `json:"abbreviation"`
			} `json:"team"`
			Statistics []struct {
				Name     string   `json:"name"`
				Labels   []string `json:"labels"`
				Keys     []string `json:"keys"`
				Athletes []struct {
					Athlete struct {
						ID          string `json:"id"`
						DisplayName string `json:"displayName"`
						Position    struct {
							Abbreviation string `json:"abbreviation"`
						} `json:"position"`
					} `json:"athlete"`
					Stats []string `json:"stats"`
				} `json:"athletes"`
			} `json:"statistics"`
		} `json:"players"`
	} `json:"boxscore"`
}

// BoxScore fetches one game's box score and flattens it into one Payload per
// athlete and stat group. Values are keyed by the group's display labels
// (falling back to its keys) exactly as ESPN reports them. snapshot tags the
// ingestion so a re-fetch of the same game can be told apart.
func (c *Client) BoxScore(ctx context.Context, eventID string, week int, snapshot string) ([]stats.Payload, error) {
	var resp summaryResponse
	if err := c.site(ctx, "/summary", url.Values{"event": {eventID}}, &resp); err != nil {
		return nil, fmt.Errorf("fetch event %s summary: %w", eventID, err)
	}

	var out []stats.Payload
	for _, team := range resp.Boxscore.Players {
		for _, group := range team.Statistics {
			names := group.Labels
			if len(names) == 0 {
				names = group.Keys
			}
			for _, a := range group.Athletes {
				if a.Athlete.DisplayName == "" {
					continue
				}
				labels := make(map[string]any, len(a.Stats))
				for i, v := range a.Stats {
					if i < len(names) {
						labels[names[i]] = v
					}
				}
				out = append(out, stats.Payload{
					Season:      c.season,
					Week:        week,
					EventID:     eventID,
					Team:        team.Team.Abbreviation,
					AthleteID:   a.Athlete.ID,
					AthleteName: a.Athlete.DisplayName,
					Position:    a.Athlete.Position.Abbreviation,
					Category:    group.Name,
					Labels:      labels,
					Snapshot:    snapshot,
				})
			}
		}
	}
	return out, nil
}
