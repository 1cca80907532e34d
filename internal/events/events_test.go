package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(subject string, data any) error {
	return m.Called(subject, data).Error(0)
}

func (m *mockPublisher) Close() { m.Called() }

func TestNew_WithoutURLIsNop(t *testing.T) {
	p, err := New("", nil)
	require.NoError(t, err)
	assert.IsType(t, Nop{}, p)
	assert.NoError(t, p.Publish(SubjectPointsComputed, PointsComputed{}))
	p.Close()
}

func TestPointsComputedJSON(t *testing.T) {
	ev := PointsComputed{
		Season:      2025,
		Weeks:       []int{1, 2},
		Records:     412,
		Points:      412,
		Policy:      "max",
		Diagnostics: map[string]int{"plausibility": 1},
		ComputedAt:  time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC),
	}
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"season":2025,"weeks":[1,2],"records":412,"points":412,"policy":"max",
		"diagnostics":{"plausibility":1},"computed_at":"2025-09-10T12:00:00Z"}`, string(b))
}

func TestAnnounce(t *testing.T) {
	m := &mockPublisher{}
	m.On("Publish", SubjectPointsComputed, mock.MatchedBy(func(ev PointsComputed) bool {
		return ev.Season == 2025 && !ev.ComputedAt.IsZero() && assert.ObjectsAreEqual([]int{1, 2, 3}, ev.Weeks)
	})).Return(nil).Once()

	in := PointsComputed{Season: 2025, Weeks: []int{3, 1, 2}}
	require.NoError(t, Announce(m, in))
	assert.Equal(t, []int{3, 1, 2}, in.Weeks, "caller slice untouched")
	m.AssertExpectations(t)
}
