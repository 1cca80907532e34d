package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-fantasy/internal/api/respond"
	"github.com/albapepper/scoracle-fantasy/internal/cache"
	"github.com/albapepper/scoracle-fantasy/internal/config"
)

type fakeSource struct {
	pingErr error
	calls   map[string]int
	leaders int
}

func (f *fakeSource) hit(name string) {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

func (f *fakeSource) Ping(context.Context) error { return f.pingErr }

func (f *fakeSource) WeekPoints(_ context.Context, season, week int) ([]byte, error) {
	f.hit("week")
	return []byte(`[{"athlete_name":"Patrick Mahomes","pts_ppr":18}]`), nil
}

func (f *fakeSource) PlayerSeason(_ context.Context, _ int, name string) ([]byte, error) {
	f.hit("player")
	if name != "Travis Kelce" {
		return nil, ErrNotFound
	}
	return []byte(`[{"week":1}]`), nil
}

func (f *fakeSource) SeasonLeaders(_ context.Context, _ int, limit int) ([]byte, error) {
	f.hit("leaders")
	f.leaders = limit
	return []byte(`[]`), nil
}

func (f *fakeSource) LatestRun(context.Context) ([]byte, error) {
	f.hit("runs")
	return nil, errors.New("connection reset")
}

func newTestRouter(src Source) http.Handler {
	cfg := &config.Config{Season: 2025}
	h := New(src, cache.New(true, 0), cfg, nil)
	r := chi.NewRouter()
	r.Get("/health/db", h.HealthCheckDB)
	r.Get("/api/v1/points/{season}/{week}", h.GetWeekPoints)
	r.Get("/api/v1/players/{season}/{name}", h.GetPlayerSeason)
	r.Get("/api/v1/leaders/{season}", h.GetSeasonLeaders)
	r.Get("/api/v1/runs/latest", h.GetLatestRun)
	return r
}

func get(t *testing.T, h http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGetWeekPoints_CachesAndHonorsETag(t *testing.T) {
	src := &fakeSource{}
	r := newTestRouter(src)

	first := get(t, r, "/api/v1/points/2025/1", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Contains(t, first.Body.String(), "Patrick Mahomes")
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	second := get(t, r, "/api/v1/points/2025/1", nil)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())

	third := get(t, r, "/api/v1/points/2025/1", map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, third.Code)
	assert.Empty(t, third.Body.String())

	assert.Equal(t, 1, src.calls["week"])
}

func TestGetWeekPoints_BadParams(t *testing.T) {
	r := newTestRouter(&fakeSource{})
	rec := get(t, r, "/api/v1/points/abc/1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body respond.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_SEASON", body.Error.Code)

	assert.Equal(t, http.StatusBadRequest, get(t, r, "/api/v1/points/2025/-1", nil).Code)
}

func TestGetPlayerSeason(t *testing.T) {
	src := &fakeSource{}
	r := newTestRouter(src)

	assert.Equal(t, http.StatusOK, get(t, r, "/api/v1/players/2025/Travis%20Kelce", nil).Code)

	missing := get(t, r, "/api/v1/players/2025/Nobody", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Contains(t, missing.Body.String(), "NOT_FOUND")

	// Not-found answers are not cached.
	get(t, r, "/api/v1/players/2025/Nobody", nil)
	assert.Equal(t, 3, src.calls["player"])
}

func TestGetSeasonLeaders_Limit(t *testing.T) {
	src := &fakeSource{}
	r := newTestRouter(src)

	get(t, r, "/api/v1/leaders/2025", nil)
	assert.Equal(t, defaultLeaders, src.leaders)

	get(t, r, "/api/v1/leaders/2025?limit=5000", nil)
	assert.Equal(t, maxLeaders, src.leaders)

	assert.Equal(t, http.StatusBadRequest, get(t, r, "/api/v1/leaders/2025?limit=0", nil).Code)
}

func TestGetLatestRun_QueryError(t *testing.T) {
	rec := get(t, newTestRouter(&fakeSource{}), "/api/v1/runs/latest", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestHealthCheckDB(t *testing.T) {
	assert.Equal(t, http.StatusOK, get(t, newTestRouter(&fakeSource{}), "/health/db", nil).Code)

	down := get(t, newTestRouter(&fakeSource{pingErr: errors.New("refused")}), "/health/db", nil)
	assert.Equal(t, http.StatusServiceUnavailable, down.Code)
}

type fakeRow struct {
	raw []byte
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.raw
	return nil
}

type fakeQuerier struct {
	rows map[string]fakeRow
	args map[string][]any
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	if q.args == nil {
		q.args = map[string][]any{}
	}
	q.args[sql] = args
	return q.rows[sql]
}

func TestPostgresSource(t *testing.T) {
	q := &fakeQuerier{rows: map[string]fakeRow{
		"api_week_points":   {raw: nil},
		"api_player_season": {raw: []byte("[]")},
		"api_latest_run":    {err: pgx.ErrNoRows},
	}}
	src := NewPostgres(q)
	ctx := context.Background()

	raw, err := src.WeekPoints(ctx, 2025, 3)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
	assert.Equal(t, []any{2025, 3}, q.args["api_week_points"])

	_, err = src.PlayerSeason(ctx, 2025, "Nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = src.LatestRun(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}
