package utils

import (
	"math"

	"github.com/aviadkim/statement-reconciler/dto"
)

// Score weights. Distance dominates across lines, but within one line the
// format and band bonuses decide: maturities, rates and page numbers sit in
// the same neighborhood as the market value, so nearest-number selection is
// not enough.
const (
	distanceWeight   = 4.0
	formatBonus      = 2.0
	typicalBandBonus = 1.5
	roundPenalty     = 2.5

	maxScore = distanceWeight + formatBonus + typicalBandBonus
)

// Correlate picks the most plausible value token for an anchor, or reports
// none. The candidate pool is every token within LineWindow lines on the
// same page; when line numbers are unreliable (zero) the CharWindow offset
// fallback applies. Ties break on smaller distance, then earlier document
// position.
func Correlate(anchor dto.Anchor, tokens []dto.ValueToken, dominant dto.NumberFormat, opts dto.ExtractionOptions) (dto.Candidate, bool) {
	best := dto.Candidate{Score: math.Inf(-1)}
	found := false

	for _, tok := range tokens {
		dist, ok := candidateDistance(anchor, tok, opts)
		if !ok {
			continue
		}

		score := distanceScore(anchor, tok, dist, opts)
		if tok.Format == dominant {
			score += formatBonus
		}
		if opts.TypicalBounds.Contains(tok.Magnitude) {
			score += typicalBandBonus
		}
		if isRoundQuantity(tok.Magnitude) {
			score -= roundPenalty
		}

		if !found || better(score, dist, tok, best) {
			best = dto.Candidate{Anchor: anchor, Value: tok, Distance: dist, Score: score}
			found = true
		}
	}

	if !found || best.Score < opts.MinScore {
		return dto.Candidate{}, false
	}
	return best, true
}

// NormalizeScore maps a correlation score onto [0,1] confidence.
func NormalizeScore(score float64) float64 {
	c := score / maxScore
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// candidateDistance computes the anchor/token distance and whether the
// token is inside the window at all. Line distance is authoritative when
// both sides carry line numbers; otherwise the wider character-offset
// window is the fallback for input without reliable line breaks.
func candidateDistance(anchor dto.Anchor, tok dto.ValueToken, opts dto.ExtractionOptions) (int, bool) {
	if tok.Page != anchor.Page {
		return 0, false
	}
	if anchor.Line > 0 && tok.Line > 0 {
		d := abs(tok.Line - anchor.Line)
		if d > opts.LineWindow {
			return 0, false
		}
		return d, true
	}
	d := abs(tok.CharOffset - anchor.CharOffset)
	if d > opts.CharWindow {
		return 0, false
	}
	return d, true
}

func distanceScore(anchor dto.Anchor, tok dto.ValueToken, dist int, opts dto.ExtractionOptions) float64 {
	window := opts.LineWindow
	effective := float64(dist)
	if anchor.Line == 0 || tok.Line == 0 {
		window = opts.CharWindow
	} else if tok.Line < anchor.Line {
		// Statement layouts place the valuation after the identifier;
		// lines above the anchor usually belong to the previous position.
		effective += 0.5
	}
	if window <= 0 {
		return 0
	}
	return distanceWeight * (float64(window) - effective) / float64(window)
}

// Round multiples of 100'000 are more often quantities or nominals than
// market values.
func isRoundQuantity(v float64) bool {
	return math.Mod(v, 100_000) == 0
}

func better(score float64, dist int, tok dto.ValueToken, best dto.Candidate) bool {
	if score != best.Score {
		return score > best.Score
	}
	if dist != best.Distance {
		return dist < best.Distance
	}
	if tok.Line != best.Value.Line {
		return tok.Line < best.Value.Line
	}
	return tok.CharOffset < best.Value.CharOffset
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
