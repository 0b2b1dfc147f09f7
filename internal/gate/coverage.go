package gate

import (
	"errors"
	"fmt"

	"github.com/ppiankov/veridraft/internal/model"
)

// ErrThresholdRange indicates a coverage threshold outside [0, 1].
// A misconfigured gate is a fatal configuration error, never clamped.
var ErrThresholdRange = errors.New("coverage threshold out of range")

// ComputeCoverage calculates the claim-citation coverage metric for a ledger.
// U counts factual claims; V counts the subset carrying a valid pinpoint.
// The ratio is 0.0 when U == 0: an empty or non-factual draft is not
// automatically compliant, it fails unless the threshold is 0.
func ComputeCoverage(ledger model.ClaimLedger, threshold float64) (model.CoverageMetric, error) {
	if threshold < 0 || threshold > 1 {
		return model.CoverageMetric{}, fmt.Errorf("%w: %g", ErrThresholdRange, threshold)
	}

	total := 0
	valid := 0
	for _, c := range ledger.Claims {
		if c.Type != model.ClaimTypeFactual {
			continue
		}
		total++
		if c.HasValidPinpoint {
			valid++
		}
	}

	ratio := 0.0
	if total > 0 {
		ratio = float64(valid) / float64(total)
	}

	return model.CoverageMetric{
		Valid:     valid,
		Total:     total,
		Ratio:     ratio,
		Threshold: threshold,
	}, nil
}
