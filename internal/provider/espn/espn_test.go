package espn

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-fantasy/internal/scoring"
	"github.com/albapepper/scoracle-fantasy/internal/stats"
)

// fakeESPN serves canned JSON per "view" (league) or path (site).
type fakeESPN struct {
	views   map[string]string
	site    map[string]string
	cookies []string
	queries []string
}

func (f *fakeESPN) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.cookies = append(f.cookies, r.Header.Get("Cookie"))
	f.queries = append(f.queries, r.URL.RawQuery)
	body, ok := f.site[r.URL.Path]
	if !ok {
		key := r.URL.Query().Get("view")
		for _, p := range []string{"scoringPeriodId", "matchupPeriodId"} {
			if v := r.URL.Query().Get(p); v != "" {
				key += ":" + p + "=" + v
			}
		}
		body, ok = f.views[key]
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	_, _ = io.WriteString(w, body)
}

func newTestClient(t *testing.T, h http.Handler, cookie string) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Options{
		Season:    2025,
		LeagueID:  "123456",
		Cookie:    cookie,
		ReadsBase: srv.URL,
		SiteBase:  srv.URL + "/site",
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestScoringItemsAndTeams(t *testing.T) {
	fake := &fakeESPN{views: map[string]string{
		"mSettings": `{"settings":{"scoringSettings":{"scoringItems":[{"statId":25,"points":6},{"statId":3,"points":0.04},{"statId":74,"points":3}]}}}`,
		"mTeam":     `{"teams":[{"id":2,"location":"Gridiron","nickname":"Gang"},{"id":1,"name":"Blitz"},{"id":3}]}`,
	}}
	c := newTestClient(t, fake, "SWID={abc}; espn_s2=xyz")

	items, err := c.ScoringItems(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []scoring.Item{{StatID: 25, Points: 6}, {StatID: 3, Points: 0.04}, {StatID: 74, Points: 3}}, items)

	teams, err := c.Teams(context.Background())
	require.NoError(t, err)
	require.Len(t, teams, 3)
	assert.Equal(t, "Blitz", teams[0].Name)
	assert.Equal(t, "Gridiron Gang", teams[1].Name)
	assert.Equal(t, "Team 3", teams[2].Name)

	assert.Equal(t, "SWID={abc}; espn_s2=xyz", fake.cookies[0])
}

func TestCurrentWeekFallbacks(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{"matchup period", `{"status":{"currentMatchupPeriod":7,"latestScoringPeriod":8},"scoringPeriodId":9}`, 7},
		{"latest scoring", `{"status":{"currentMatchupPeriod":0,"latestScoringPeriod":"8"},"scoringPeriodId":9}`, 8},
		{"scoring period", `{"status":{},"scoringPeriodId":9}`, 9},
		{"fallback", `{"status":{}}`, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, &fakeESPN{views: map[string]string{"mSettings": tc.body}}, "")
			assert.Equal(t, tc.want, c.CurrentWeek(context.Background(), 4))
		})
	}
}

func TestResolveWeeks(t *testing.T) {
	c := newTestClient(t, &fakeESPN{views: map[string]string{"mSettings": `{"status":{"currentMatchupPeriod":3}}`}}, "")

	weeks, err := c.ResolveWeeks(context.Background(), "ALL", 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, weeks)

	weeks, err = c.ResolveWeeks(context.Background(), "", 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, weeks)

	weeks, err = c.ResolveWeeks(context.Background(), " 2, 5 ,", 1)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5}, weeks)

	_, err = c.ResolveWeeks(context.Background(), "1,two", 1)
	assert.Error(t, err)
	_, err = ParseWeeks(" , ")
	assert.Error(t, err)
}

func TestTeamScores_ShapesAndFallbackQuery(t *testing.T) {
	fake := &fakeESPN{views: map[string]string{
		// Nothing for week 2 when asked by scoring period.
		"mMatchupScore:scoringPeriodId=2": `{"schedule":[{"matchupPeriodId":1,"home":{"teamId":1,"totalPoints":99}}]}`,
		"mMatchupScore:matchupPeriodId=2": `{"schedule":[
			{"matchupPeriodId":2,"home":{"teamId":2,"totalPoints":101.456},"away":{"teamId":1,"cumulativeScore":{"score":"88.5"}}},
			{"matchupPeriodId":2,"teams":[{"teamId":4,"pointsByScoringPeriod":{"2":40.5,"3":2}},{"teamId":3,"rosterForCurrentScoringPeriod":{"appliedStatTotal":77}}]},
			{"matchupPeriodId":3,"home":{"teamId":9,"totalPoints":1}}
		]}`,
	}}
	c := newTestClient(t, fake, "")

	scores, err := c.TeamScores(context.Background(), 2, map[int]string{2: "Gridiron Gang"})
	require.NoError(t, err)
	SortTeamScores(scores)

	require.Len(t, scores, 4)
	assert.Equal(t, 1, scores[0].TeamID)
	assert.Equal(t, 88.5, scores[0].Points)
	assert.Equal(t, "Team 1", scores[0].TeamName)
	assert.Equal(t, "Gridiron Gang", scores[1].TeamName)
	assert.Equal(t, 101.456, scores[1].Points)
	assert.Equal(t, 77.0, scores[2].Points)
	assert.Equal(t, 42.5, scores[3].Points)
	for _, s := range scores {
		assert.Equal(t, 2025, s.Season)
		assert.Equal(t, 2, s.Week)
	}
	assert.Contains(t, fake.queries[1], "matchupPeriodId=2")
}

func TestTeamPoints_Missing(t *testing.T) {
	_, ok := TeamPoints(map[string]any{"teamId": 1.0, "note": "bye"})
	assert.False(t, ok)

	pts, ok := TeamPoints(map[string]any{"adjustment": map[string]any{"points": 3.0}})
	assert.True(t, ok)
	assert.Equal(t, 3.0, pts)
}

func TestGetJSON_Errors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/site/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://registerdisney.go.com/login", http.StatusFound)
	})
	mux.HandleFunc("/site/forbidden", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("/site/html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html>\nplease log in</html>")
	})
	c := newTestClient(t, mux, "")
	var v map[string]any

	err := c.site(context.Background(), "/redirect", nil, &v)
	assert.ErrorIs(t, err, ErrRedirected)
	assert.Contains(t, err.Error(), "registerdisney")

	err = c.site(context.Background(), "/forbidden", nil, &v)
	assert.ErrorIs(t, err, ErrForbidden)

	err = c.site(context.Background(), "/html", nil, &v)
	assert.ErrorIs(t, err, ErrNotJSON)
	assert.Contains(t, err.Error(), "<html> please log in")
}

func TestCookieHeader(t *testing.T) {
	assert.Equal(t, "", CookieHeader("", "", ""))
	assert.Equal(t, "SWID={x}; espn_s2=y", CookieHeader("", " {x} ", "y"))
	assert.Equal(t, "espn_s2=y", CookieHeader("/does/not/exist", "", "y"))

	dir := t.TempDir()
	good := filepath.Join(dir, "cookie.txt")
	require.NoError(t, os.WriteFile(good, []byte("SWID={f}; espn_s2=g\n"), 0o600))
	assert.Equal(t, "SWID={f}; espn_s2=g", CookieHeader(good, "{x}", "y"))

	junk := filepath.Join(dir, "junk.txt")
	require.NoError(t, os.WriteFile(junk, []byte("hello"), 0o600))
	assert.Equal(t, "SWID={x}", CookieHeader(junk, "{x}", ""))
}

const summaryJSON = `{"boxscore":{"players":[{"team":{"abbreviation":"KC"},"statistics":[
  {"name":"passing","labels":["C/ATT","YDS","AVG","TD","INT"],"athletes":[
    {"athlete":{"id":"3139477","displayName":"Patrick Mahomes"},"stats":["25/35","300","8.6","2","1"]}]},
  {"name":"receiving","keys":["receptions","receivingYards"],"labels":["REC","YDS","AVG","TD","LONG","TGTS"],"athletes":[
    {"athlete":{"id":"15847","displayName":"Travis Kelce","position":{"abbreviation":"TE"}},"stats":["7","84","12.0","1","30","9"]}]}
]}]}}`

func TestBoxScore(t *testing.T) {
	fake := &fakeESPN{site: map[string]string{
		"/site/summary":    summaryJSON,
		"/site/scoreboard": `{"events":[{"id":"401"},{"id":""},{"id":"402"}]}`,
	}}
	c := newTestClient(t, fake, "ignored")

	events, err := c.WeekEvents(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"401", "402"}, events)

	payloads, err := c.BoxScore(context.Background(), "401", 1, "s1")
	require.NoError(t, err)
	require.Len(t, payloads, 2)

	qb := payloads[0]
	assert.Equal(t, "Patrick Mahomes", qb.AthleteName)
	assert.Equal(t, "KC", qb.Team)
	assert.Equal(t, "passing", qb.Category)
	assert.Equal(t, "s1", qb.Snapshot)
	row, ok := stats.Extract(qb.Category, qb.Labels)
	require.True(t, ok)
	assert.Equal(t, 25, row[stats.PassCmp])
	assert.Equal(t, 300, row[stats.PassYds])

	te := payloads[1]
	assert.Equal(t, "TE", te.Position)
	row, ok = stats.Extract(te.Category, te.Labels)
	require.True(t, ok)
	assert.Equal(t, 9, row[stats.RecTgt])
	assert.Equal(t, 7, row[stats.RecRec])

	// The public site API never receives league cookies.
	for _, ck := range fake.cookies {
		assert.Empty(t, ck)
	}
	assert.Contains(t, fake.queries[0], "week=1")
}
