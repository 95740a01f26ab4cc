package models_test

import (
	"testing"

	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionLabel(t *testing.T) {
	tests := []struct {
		name  string
		index int
		count int
		want  string
	}{
		{"three-way home", 0, 3, "home"},
		{"three-way draw", 1, 3, "draw"},
		{"three-way away", 2, 3, "away"},
		{"two-way home", 0, 2, "home"},
		{"two-way away", 1, 2, "away"},
		{"four-way middle", 2, 4, "selection_2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, models.SelectionLabel(tt.index, tt.count))
		})
	}
}

func TestSelectionIndex_RoundTrip(t *testing.T) {
	for _, count := range []int{2, 3, 4} {
		for i := 0; i < count; i++ {
			label := models.SelectionLabel(i, count)
			got, err := models.SelectionIndex(label, count)
			require.NoError(t, err, label)
			assert.Equal(t, i, got, label)
		}
	}
}

func TestSelectionIndex_Invalid(t *testing.T) {
	_, err := models.SelectionIndex("draw", 2)
	assert.Error(t, err)

	_, err = models.SelectionIndex("selection_9", 3)
	assert.Error(t, err)
}

func TestProfitFor(t *testing.T) {
	assert.InDelta(t, 12.0, models.ProfitFor(models.ResultWon, 10, 2.2), 1e-9)
	assert.Equal(t, -10.0, models.ProfitFor(models.ResultLost, 10, 2.2))
	assert.Equal(t, 0.0, models.ProfitFor(models.ResultVoid, 10, 2.2))
	assert.Equal(t, 0.0, models.ProfitFor(models.ResultPush, 10, 2.2))
	assert.Equal(t, 0.0, models.ProfitFor(models.ResultPending, 10, 2.2))
}

func TestBetResult_IsSettled(t *testing.T) {
	assert.False(t, models.ResultPending.IsSettled())
	assert.True(t, models.ResultWon.IsSettled())
	assert.True(t, models.ResultPush.IsSettled())
	assert.False(t, models.BetResult("cashed_out").Valid())
}

func TestTeamForm_Points(t *testing.T) {
	form := models.TeamForm{Recent: []string{"W", "D", "L", "W", "W"}}
	assert.Equal(t, 10, form.Points())
}
