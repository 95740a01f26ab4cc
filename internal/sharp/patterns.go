package sharp

import (
	"fmt"
	"math"

	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/dennisgathu8/house-hedge/pkg/stats"
)

const minSteamBooks = 3

// DetectReverseLineMovement flags selections that carry most of the public tickets
// and whose price has still shortened by more than rlm_threshold
//
// Confidence = clamp(0.7 × movement/0.10, 0.65, 0.95)
//
// Example:
// Public 65% on home, home 2.10 → 1.85 (11.9% shorter)
// Confidence = clamp(0.7 × 1.19, 0.65, 0.95) = 0.83
func (d *Detector) DetectReverseLineMovement(matchID, market string, opening, current []float64, public models.PublicBetting) []models.SharpSignal {
	if len(opening) == 0 || len(opening) != len(current) {
		return nil
	}

	var signals []models.SharpSignal
	for i := range opening {
		share, ok := shareAt(public.BetPercents, i)
		if !ok || share <= rlmPublicShare || opening[i] <= 0 {
			continue
		}

		// positive when the price shortened
		movement := (opening[i] - current[i]) / opening[i]
		if movement <= d.cfg.RLMThreshold {
			continue
		}

		label := models.SelectionLabel(i, len(opening))
		s := models.SharpSignal{
			Kind:           models.SignalReverseLineMovement,
			MatchID:        matchID,
			Market:         market,
			SelectionIndex: i,
			Direction:      label,
			Confidence:     stats.Clamp(0.7*(movement/0.10), 0.65, 0.95),
			Evidence: []string{
				fmt.Sprintf("public %.1f%% of bets on %s", share*100, label),
				fmt.Sprintf("line shortened %.2f -> %.2f (%.1f%%)", opening[i], current[i], movement*100),
			},
			PublicPercent: &share,
		}
		if money, ok := shareAt(public.MoneyPercents, i); ok {
			s.MoneyPercent = &money
			s.Evidence = append(s.Evidence, fmt.Sprintf("money %.1f%% on %s", money*100, label))
		}

		signals = append(signals, d.emit(s))
	}

	return signals
}

// DetectSteam flags selections whose price shortened at three or more bookmakers
// with an average move above steam_threshold. A coordinated lengthening is money
// against the selection and is not flagged.
//
// Confidence = clamp(0.75 × |avg move|/0.05, 0.70, 0.95)
func (d *Detector) DetectSteam(matchID, market string, histories []models.LineHistory) []models.SharpSignal {
	books := distinctBooks(histories)
	if len(books) < minSteamBooks {
		return nil
	}

	arity := len(books[0].Opening)
	var signals []models.SharpSignal

	for i := 0; i < arity; i++ {
		moves := make([]float64, 0, len(books))
		for _, h := range books {
			if len(h.Opening) != arity || len(h.Current) != arity || h.Opening[i] <= 0 {
				continue
			}
			moves = append(moves, (h.Current[i]-h.Opening[i])/h.Opening[i])
		}
		if len(moves) < minSteamBooks {
			continue
		}

		avg := stats.Mean(moves)
		if avg >= 0 || -avg <= d.cfg.SteamThreshold || !sameSign(moves, avg) {
			continue
		}

		label := models.SelectionLabel(i, arity)
		signals = append(signals, d.emit(models.SharpSignal{
			Kind:           models.SignalSteam,
			MatchID:        matchID,
			Market:         market,
			SelectionIndex: i,
			Direction:      label,
			Confidence:     stats.Clamp(0.75*(math.Abs(avg)/0.05), 0.70, 0.95),
			Evidence: []string{
				fmt.Sprintf("%s shortening across %d books", label, len(moves)),
				fmt.Sprintf("average move %.1f%%", avg*100),
			},
		}))
	}

	return signals
}

// DetectContrarian flags +EV selections the public is avoiding
//
// Confidence = clamp(0.65 × (1 + ev), 0.65, 0.90)
func (d *Detector) DetectContrarian(matchID, market string, public models.PublicBetting, evs []float64) []models.SharpSignal {
	var signals []models.SharpSignal

	for i, ev := range evs {
		share, ok := shareAt(public.BetPercents, i)
		if !ok || share >= contrarianPublicShare || ev <= contrarianMinEV {
			continue
		}

		label := models.SelectionLabel(i, len(evs))
		signals = append(signals, d.emit(models.SharpSignal{
			Kind:           models.SignalContrarian,
			MatchID:        matchID,
			Market:         market,
			SelectionIndex: i,
			Direction:      label,
			Confidence:     stats.Clamp(0.65*(1+ev), 0.65, 0.90),
			Evidence: []string{
				fmt.Sprintf("public only %.1f%% of bets on %s", share*100, label),
				fmt.Sprintf("EV %+.1f%%", ev*100),
			},
			PublicPercent: &share,
		}))
	}

	return signals
}

// distinctBooks keeps the first history seen for each bookmaker
func distinctBooks(histories []models.LineHistory) []models.LineHistory {
	seen := make(map[string]struct{}, len(histories))
	out := make([]models.LineHistory, 0, len(histories))
	for _, h := range histories {
		if _, ok := seen[h.Bookmaker]; ok {
			continue
		}
		seen[h.Bookmaker] = struct{}{}
		out = append(out, h)
	}
	return out
}

// sameSign reports whether every move points the same way as avg
func sameSign(moves []float64, avg float64) bool {
	for _, m := range moves {
		if m == 0 || (m > 0) != (avg > 0) {
			return false
		}
	}
	return true
}
