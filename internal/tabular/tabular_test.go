package tabular

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-fantasy/internal/diag"
	"github.com/albapepper/scoracle-fantasy/internal/league"
	"github.com/albapepper/scoracle-fantasy/internal/scoring"
	"github.com/albapepper/scoracle-fantasy/internal/stats"
)

const longCSV = `season,week,event_id,team_abbr,athlete_id,athlete_name,position,stat_group,stats_json
2025,1,401,KC,15847,Patrick Mahomes,QB,passing,"{""C/ATT"":""25/35"",""YDS"":""300"",""TD"":2,""INT"":1}"
2025,1,401,KC,15847,Patrick Mahomes,QB,rushing,"{""CAR"":4,""YDS"":""21""}"
x,1,401,KC,1,Nobody,QB,passing,{}
2025,1,401,KC,2,,WR,receiving,{}
2025,1,401,KC,3118,Travis Kelce,TE,receiving,not-json
`

func TestReadLong(t *testing.T) {
	long, err := ReadLong(strings.NewReader(longCSV))
	require.NoError(t, err)
	require.Len(t, long.Payloads, 3)

	p := long.Payloads[0]
	assert.Equal(t, 2025, p.Season)
	assert.Equal(t, "401", p.EventID)
	assert.Equal(t, "Patrick Mahomes", p.AthleteName)
	assert.Equal(t, "passing", p.Category)
	assert.Equal(t, "25/35", p.Labels["C/ATT"])
	assert.Equal(t, json.Number("2"), p.Labels["TD"])

	row, ok := stats.Extract(p.Category, p.Labels)
	require.True(t, ok)
	assert.Equal(t, 300, row[stats.PassYds])
	assert.Equal(t, 35, row[stats.PassAtt])

	assert.Empty(t, long.Payloads[2].Labels)
	assert.Equal(t, 3, long.Report.Count(diag.DiscardedRow))
}

func TestReadLong_MissingColumns(t *testing.T) {
	_, err := ReadLong(strings.NewReader("season,week,athlete_name\n2025,1,A\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumns))
	assert.Contains(t, err.Error(), "stats_json")
}

func TestReadLong_Empty(t *testing.T) {
	_, err := ReadLong(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMissingColumns)
}

func TestLongRoundTrip(t *testing.T) {
	in := []stats.Payload{{
		Season: 2025, Week: 3, EventID: "9", Team: "BUF", AthleteID: "1",
		AthleteName: "Josh Allen", Position: "QB", Category: "rushing",
		Labels: map[string]any{"CAR": "8", "YDS": "54"}, Snapshot: "s1",
	}}
	var buf bytes.Buffer
	require.NoError(t, WriteLong(&buf, in))

	long, err := ReadLong(&buf)
	require.NoError(t, err)
	require.Len(t, long.Payloads, 1)
	assert.Equal(t, in[0].Key(), long.Payloads[0].Key())
	assert.Equal(t, "s1", long.Payloads[0].Snapshot)
	assert.Equal(t, "54", long.Payloads[0].Labels["YDS"])
}

func TestWideRoundTrip(t *testing.T) {
	var line stats.Line
	line[stats.PassYds] = 245
	line[stats.RushYds] = 87.5
	line[stats.PassTD] = 2
	records := []stats.Record{{
		Key:      stats.Key{Season: 2025, Week: 2, Team: "KC", Player: "Patrick Mahomes"},
		Position: "QB",
		Stats:    line,
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteWide(&buf, records))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "season,week,team_abbr,athlete_name,position,pass_cmp,"))
	assert.Contains(t, lines[1], ",245,")
	assert.Contains(t, lines[1], ",87.5,")

	got, err := ReadWide(&buf)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestReadWide_MissingFieldColumnsReadAsZero(t *testing.T) {
	got, err := ReadWide(strings.NewReader("season,week,team_abbr,athlete_name,position,rec_yds\n2025,1,KC,Travis Kelce,TE,77\n"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 77.0, got[0].Get(stats.RecYds))
	assert.Zero(t, got[0].Get(stats.RecRec))
}

func TestReadWide_MissingIdentity(t *testing.T) {
	_, err := ReadWide(strings.NewReader("season,week,position\n"))
	assert.ErrorIs(t, err, ErrMissingColumns)
}

func TestWritePoints(t *testing.T) {
	var buf bytes.Buffer
	err := WritePoints(&buf, []scoring.Points{{
		Key:      stats.Key{Season: 2025, Week: 1, Team: "KC", Player: "Patrick Mahomes"},
		Position: "QB",
		Pass:     18,
		Rush:     2.1,
		Total:    20.1,
	}})
	require.NoError(t, err)
	assert.Equal(t,
		"season,week,team_abbr,athlete_name,position,pts_pass,pts_rush,pts_rec,pts_kick,pts_misc,pts_ppr\n"+
			"2025,1,KC,Patrick Mahomes,QB,18.00,2.10,0.00,0.00,0.00,20.10\n",
		buf.String())
}

func TestReadScoringCSV(t *testing.T) {
	cfg, err := ReadScoringCSV(strings.NewReader("statId,points\n25,6\n3,0.04\nabc,1\n52,n/a\n26.0,-2\n"))
	require.NoError(t, err)
	assert.Equal(t, []scoring.Item{
		{StatID: 25, Points: 6},
		{StatID: 3, Points: 0.04},
		{StatID: 52, Points: 0},
		{StatID: 26, Points: -2},
	}, cfg.Items)

	discarded := cfg.Report.Of(diag.DiscardedRow)
	require.Len(t, discarded, 1)
	assert.Equal(t, "abc", discarded[0].Attrs["values"])
}

func TestReadScoringCSV_HeaderOnlyIsEmptyNotNil(t *testing.T) {
	cfg, err := ReadScoringCSV(strings.NewReader("statId,points\n"))
	require.NoError(t, err)
	assert.NotNil(t, cfg.Items)
	assert.Empty(t, cfg.Items)
}

func TestReadScoringCSV_MissingColumns(t *testing.T) {
	_, err := ReadScoringCSV(strings.NewReader("id,value\n25,6\n"))
	assert.ErrorIs(t, err, ErrMissingColumns)
}

func TestReadScoringYAML(t *testing.T) {
	cfg, err := ReadScoringYAML(strings.NewReader("items:\n  - stat_id: 25\n    points: 6\n  - stat_id: 42\n    points: 0.5\n"))
	require.NoError(t, err)
	assert.Equal(t, []scoring.Item{{StatID: 25, Points: 6}, {StatID: 42, Points: 0.5}}, cfg.Items)
}

func TestLoadScoring_ByExtension(t *testing.T) {
	dir := t.TempDir()
	yml := filepath.Join(dir, "scoring.yaml")
	require.NoError(t, os.WriteFile(yml, []byte("items:\n  - stat_id: 44\n    points: 7\n"), 0o644))
	csvPath := filepath.Join(dir, "scoring_table.csv")
	require.NoError(t, WriteFile(csvPath, func(w io.Writer) error {
		return WriteScoringCSV(w, []scoring.Item{{StatID: 44, Points: 7}})
	}))

	a, err := LoadScoring(yml)
	require.NoError(t, err)
	b, err := LoadScoring(csvPath)
	require.NoError(t, err)
	assert.Equal(t, a.Items, b.Items)

	_, err = LoadScoring(filepath.Join(dir, "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteTeamScores(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTeamScores(&buf, []league.TeamScore{
		{Season: 2025, Week: 1, TeamID: 3, TeamName: "Gridiron Gang", Points: 121.456},
	}))
	assert.Equal(t,
		"season,week,fantasy_team_id,fantasy_team_name,official_pts\n2025,1,3,Gridiron Gang,121.46\n",
		buf.String())
}

func TestWriteFile_CreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "season_2025", "espn", "teams.csv")
	require.NoError(t, WriteFile(path, func(w io.Writer) error {
		return WriteTeams(w, []league.Team{{ID: 1, Name: "Team 1"}})
	}))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fantasy_team_id,fantasy_team_name\n1,Team 1\n", string(b))
}
