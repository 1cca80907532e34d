package tabular

import (
	"io"
	"strconv"

	"github.com/albapepper/scoracle-fantasy/internal/league"
)

// WriteTeams writes an id,name table.
func WriteTeams(w io.Writer, teams []league.Team) error {
	rows := make([][]string, 0, len(teams)+1)
	rows = append(rows, []string{"fantasy_team_id", "fantasy_team_name"})
	for _, t := range teams {
		rows = append(rows, []string{strconv.Itoa(t.ID), t.Name})
	}
	return writeAll(w, rows)
}

// WriteTeamScores writes official team-week totals in the order given.
func WriteTeamScores(w io.Writer, scores []league.TeamScore) error {
	rows := make([][]string, 0, len(scores)+1)
	rows = append(rows, []string{"season", "week", "fantasy_team_id", "fantasy_team_name", "official_pts"})
	for _, s := range scores {
		rows = append(rows, []string{
			strconv.Itoa(s.Season),
			strconv.Itoa(s.Week),
			strconv.Itoa(s.TeamID),
			s.TeamName,
			formatPoints(s.Points),
		})
	}
	return writeAll(w, rows)
}
