package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Selection labels used for directions and bet selections
const (
	SelectionHome = "home"
	SelectionDraw = "draw"
	SelectionAway = "away"
)

// SelectionLabel maps a price-vector index to its label.
// Index 0 is home, the last index is away and the middle of a three-way market is the draw.
func SelectionLabel(index, count int) string {
	switch {
	case index == 0:
		return SelectionHome
	case index == count-1:
		return SelectionAway
	case count == 3 && index == 1:
		return SelectionDraw
	default:
		return fmt.Sprintf("selection_%d", index)
	}
}

// SelectionIndex is the inverse of SelectionLabel. Totals markets use "over" (0) and "under" (1)
func SelectionIndex(label string, count int) (int, error) {
	switch strings.ToLower(label) {
	case SelectionHome, "over":
		return 0, nil
	case SelectionAway, "under":
		return count - 1, nil
	case SelectionDraw:
		if count != 3 {
			return 0, fmt.Errorf("draw is only valid in three-way markets, got %d selections", count)
		}
		return 1, nil
	}

	if rest, ok := strings.CutPrefix(label, "selection_"); ok {
		i, err := strconv.Atoi(rest)
		if err == nil && i >= 0 && i < count {
			return i, nil
		}
	}

	return 0, fmt.Errorf("unknown selection %q", label)
}
