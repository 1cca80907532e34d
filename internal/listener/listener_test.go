package listener

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/albapepper/scoracle-fantasy/internal/cache"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestHandle_DropsSeasonEntries(t *testing.T) {
	c := cache.New(true, 0)
	defer c.Close()
	c.Set("points:2025:1", []byte("a"), time.Hour)
	c.Set("player:2025:travis kelce", []byte("b"), time.Hour)
	c.Set("leaders:2025:25", []byte("c"), time.Hour)
	c.Set("runs:latest", []byte("d"), time.Hour)
	c.Set("points:2024:1", []byte("e"), time.Hour)

	Handle(c, `{"season":2025,"run_id":"6f1c"}`, quiet)

	for _, key := range []string{"points:2025:1", "player:2025:travis kelce", "leaders:2025:25", "runs:latest"} {
		_, _, ok := c.Get(key)
		assert.False(t, ok, key)
	}
	_, _, ok := c.Get("points:2024:1")
	assert.True(t, ok)
}

func TestHandle_IgnoresMalformed(t *testing.T) {
	c := cache.New(true, 0)
	defer c.Close()
	c.Set("runs:latest", []byte("d"), time.Hour)

	Handle(c, `not json`, quiet)
	Handle(c, `{"season":0}`, quiet)

	_, _, ok := c.Get("runs:latest")
	assert.True(t, ok)
}
