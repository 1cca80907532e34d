package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-fantasy/internal/diag"
)

func record(passYds, rushYds, recYds float64) Record {
	var l Line
	l[PassYds], l[RushYds], l[RecYds] = passYds, rushYds, recYds
	l[PassTD] = 2
	return Record{Key: Key{Season: 2025, Week: 1, Team: "KC", Player: "X"}, Stats: l}
}

func TestCorrectUnits_TenthsBatch(t *testing.T) {
	records := []Record{record(2450, 0, 0), record(0, 875, 313)}

	fired, report := CorrectUnits(records, DefaultTenthsThreshold)

	require.True(t, fired)
	assert.Equal(t, 245.0, records[0].Stats[PassYds])
	assert.Equal(t, 87.5, records[1].Stats[RushYds])
	assert.Equal(t, 31.3, records[1].Stats[RecYds])
	assert.Equal(t, 2.0, records[0].Stats[PassTD], "non-yardage fields are untouched")
	assert.Equal(t, 1, report.Count(diag.UnitCorrection))
}

func TestCorrectUnits_WholeYardsBatch(t *testing.T) {
	records := []Record{record(380, 0, 0), record(0, 120, 95)}

	fired, report := CorrectUnits(records, DefaultTenthsThreshold)

	assert.False(t, fired)
	assert.Equal(t, 380.0, records[0].Stats[PassYds])
	assert.Equal(t, 95.0, records[1].Stats[RecYds])
	assert.Empty(t, report.Findings)
}

func TestCorrectUnits_BoundaryAndDisabled(t *testing.T) {
	records := []Record{record(1000, 0, 0)}
	fired, _ := CorrectUnits(records, DefaultTenthsThreshold)
	assert.False(t, fired, "exactly the threshold is not corrected")

	records = []Record{record(5000, 0, 0)}
	fired, _ = CorrectUnits(records, 0)
	assert.False(t, fired)
	assert.Equal(t, 5000.0, records[0].Stats[PassYds])

	fired, _ = CorrectUnits(nil, DefaultTenthsThreshold)
	assert.False(t, fired)
}

func TestMaxYardage(t *testing.T) {
	assert.Equal(t, 313.0, MaxYardage([]Record{record(10, 20, 313), record(200, 0, 0)}))
	assert.Zero(t, MaxYardage(nil))
}
