package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/scoracle-fantasy/internal/api/respond"
	"github.com/albapepper/scoracle-fantasy/internal/cache"
)

const (
	defaultLeaders = 25
	maxLeaders     = 200
)

// GetWeekPoints returns every player's fantasy points for one week.
// @Summary Week points
// @Description Per-player fantasy points for a season week, highest first.
// @Tags points
// @Produce json
// @Param season path int true "Season year"
// @Param week path int true "Week number"
// @Success 200 {array} map[string]interface{}
// @Success 304 "Not Modified"
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/points/{season}/{week} [get]
func (h *Handler) GetWeekPoints(w http.ResponseWriter, r *http.Request) {
	season, ok := pathInt(w, r, "season", 1)
	if !ok {
		return
	}
	week, ok := pathInt(w, r, "week", 0)
	if !ok {
		return
	}
	key := fmt.Sprintf("points:%d:%d", season, week)
	h.serveCached(w, r, key, h.ttlFor(season), func(ctx context.Context) ([]byte, error) {
		return h.src.WeekPoints(ctx, season, week)
	}, "")
}

// GetPlayerSeason returns one player's weekly points and raw stats.
// @Summary Player season
// @Description Week-by-week points and stats for a player, matched case-insensitively by name.
// @Tags points
// @Produce json
// @Param season path int true "Season year"
// @Param name path string true "Athlete name"
// @Success 200 {array} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/players/{season}/{name} [get]
func (h *Handler) GetPlayerSeason(w http.ResponseWriter, r *http.Request) {
	season, ok := pathInt(w, r, "season", 1)
	if !ok {
		return
	}
	name := strings.TrimSpace(chi.URLParam(r, "name"))
	if name == "" {
		respond.Error(w, http.StatusBadRequest, "INVALID_NAME", "name is required", "")
		return
	}
	key := fmt.Sprintf("player:%d:%s", season, strings.ToLower(name))
	h.serveCached(w, r, key, h.ttlFor(season), func(ctx context.Context) ([]byte, error) {
		return h.src.PlayerSeason(ctx, season, name)
	}, "No points found for "+name)
}

// GetSeasonLeaders returns the top season totals.
// @Summary Season leaders
// @Tags points
// @Produce json
// @Param season path int true "Season year"
// @Param limit query int false "Rows to return (default 25, max 200)"
// @Success 200 {array} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/leaders/{season} [get]
func (h *Handler) GetSeasonLeaders(w http.ResponseWriter, r *http.Request) {
	season, ok := pathInt(w, r, "season", 1)
	if !ok {
		return
	}
	limit := defaultLeaders
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respond.Error(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer", "")
			return
		}
		limit = min(n, maxLeaders)
	}
	key := fmt.Sprintf("leaders:%d:%d", season, limit)
	h.serveCached(w, r, key, h.ttlFor(season), func(ctx context.Context) ([]byte, error) {
		return h.src.SeasonLeaders(ctx, season, limit)
	}, "")
}

// GetLatestRun returns the most recent pipeline run.
// @Summary Latest run
// @Tags runs
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/runs/latest [get]
func (h *Handler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, "runs:latest", cache.TTLRuns, h.src.LatestRun, "No pipeline runs recorded")
}

func pathInt(w http.ResponseWriter, r *http.Request, param string, floor int) (int, bool) {
	raw := chi.URLParam(r, param)
	n, err := strconv.Atoi(raw)
	if err != nil || n < floor {
		respond.Error(w, http.StatusBadRequest, "INVALID_"+strings.ToUpper(param),
			fmt.Sprintf("%s must be an integer >= %d", param, floor), "")
		return 0, false
	}
	return n, true
}
