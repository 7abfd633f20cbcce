package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordReturnsRunningAverage(t *testing.T) {
	var tr Tracker

	assert.InDelta(t, 6.0, tr.Record(6), 0.001)
	assert.InDelta(t, 7.0, tr.Record(8), 0.001)
	assert.Equal(t, 2, tr.Count())
	assert.Equal(t, []int{6, 8}, tr.Scores())
}

func TestAverageRoundsToOneDecimal(t *testing.T) {
	var tr Tracker
	tr.Record(7)
	tr.Record(7)
	tr.Record(8)

	avg, ok := tr.Average()
	require.True(t, ok)
	assert.Equal(t, 7.3, avg)
}

func TestAverageEmpty(t *testing.T) {
	var tr Tracker
	_, ok := tr.Average()
	assert.False(t, ok)
}

func TestAdjustmentRaisesOnHighAverage(t *testing.T) {
	var tr Tracker

	tr.Record(9)
	assert.Equal(t, 1, tr.Adjustment())
	assert.Equal(t, "harder", tr.TrendLabel())

	tr.Record(9)
	assert.Equal(t, 2, tr.Adjustment())

	// bounded at +2 no matter how many high scores follow
	tr.Record(10)
	tr.Record(10)
	assert.Equal(t, 2, tr.Adjustment())
}

func TestAdjustmentLowersOnLowAverage(t *testing.T) {
	var tr Tracker

	tr.Record(3)
	assert.Equal(t, -1, tr.Adjustment())
	assert.Equal(t, "easier", tr.TrendLabel())

	tr.Record(3)
	assert.Equal(t, -2, tr.Adjustment())

	tr.Record(2)
	tr.Record(1)
	assert.Equal(t, -2, tr.Adjustment())
}

func TestAdjustmentMovesOneStepPerScore(t *testing.T) {
	var tr Tracker

	// a single 10 moves the adjustment by exactly one step
	tr.Record(10)
	assert.Equal(t, 1, tr.Adjustment())

	// a crash in the average walks it back down one step at a time
	tr.Record(1) // avg 5.5, inside the dead zone
	assert.Equal(t, 1, tr.Adjustment())
	tr.Record(1) // avg 4.0
	assert.Equal(t, 0, tr.Adjustment())
	assert.Equal(t, "stable", tr.TrendLabel())
}

func TestFinalizeStats(t *testing.T) {
	var tr Tracker
	tr.Record(5)
	tr.Record(9)
	tr.Record(7)

	st := tr.Finalize()
	assert.Equal(t, []int{5, 9, 7}, st.Individual)
	require.NotNil(t, st.Average)
	assert.Equal(t, 7.0, *st.Average)
	require.NotNil(t, st.Min)
	assert.Equal(t, 5, *st.Min)
	require.NotNil(t, st.Max)
	assert.Equal(t, 9, *st.Max)
}

func TestFinalizeTrend(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		want   string
	}{
		{"improving", []int{3, 7}, TrendImproving},
		{"declining", []int{7, 3}, TrendDeclining},
		{"flat", []int{5, 5}, TrendStable},
		{"single score is stable", []int{5}, TrendStable},
		{"empty is stable", nil, TrendStable},
		{"only endpoints matter", []int{3, 10, 1, 7}, TrendImproving},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tr Tracker
			for _, s := range tt.scores {
				tr.Record(s)
			}
			assert.Equal(t, tt.want, tr.Finalize().Trend)
		})
	}
}

func TestFinalizeEmpty(t *testing.T) {
	var tr Tracker
	st := tr.Finalize()

	assert.Empty(t, st.Individual)
	assert.Nil(t, st.Average)
	assert.Nil(t, st.Min)
	assert.Nil(t, st.Max)
	assert.Equal(t, TrendStable, st.Trend)
}
