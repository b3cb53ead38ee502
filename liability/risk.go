package liability

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/liability-engine/generic"
	"github.com/warp/liability-engine/rules"
)

// =============================================================================
// RISK SCORE
// =============================================================================
//
//   score = min(liability + fx + legal + 10, 100), clamped to [0, 100]
//
//   liability = min(total / 100000, 1) * 35
//   fx        = (volatility / 0.20) * 25
//   legal     = {high: 0.9, medium: 0.5, low: 0.2}[tier] * 15
//
// The normalization denominators and the +10 floor are fixed policy.

// RiskScorer holds the scoring constants. DefaultRiskScorer carries the
// production values.
type RiskScorer struct {
	LiabilityCeiling  decimal.Decimal
	LiabilityWeight   decimal.Decimal
	VolatilityCeiling decimal.Decimal
	FXWeight          decimal.Decimal
	LegalWeight       decimal.Decimal
	LegalFactors      map[rules.LegalRiskTier]decimal.Decimal
	Floor             decimal.Decimal
}

// Thresholds used by bands and portfolio counts.
var (
	HighRiskThreshold   = decimal.NewFromInt(70)
	MediumRiskThreshold = decimal.NewFromInt(40)
	maxRiskScore        = decimal.NewFromInt(100)
)

func DefaultRiskScorer() RiskScorer {
	return RiskScorer{
		LiabilityCeiling:  decimal.NewFromInt(100000),
		LiabilityWeight:   decimal.NewFromInt(35),
		VolatilityCeiling: decimal.NewFromFloat(0.20),
		FXWeight:          decimal.NewFromInt(25),
		LegalWeight:       decimal.NewFromInt(15),
		LegalFactors: map[rules.LegalRiskTier]decimal.Decimal{
			rules.LegalRiskHigh:   decimal.NewFromFloat(0.9),
			rules.LegalRiskMedium: decimal.NewFromFloat(0.5),
			rules.LegalRiskLow:    decimal.NewFromFloat(0.2),
		},
		Floor: decimal.NewFromInt(10),
	}
}

// Validate requires positive ceilings and non-negative weights and floor.
func (s RiskScorer) Validate() error {
	if !s.LiabilityCeiling.IsPositive() || !s.VolatilityCeiling.IsPositive() {
		return fmt.Errorf("%w: risk ceilings must be positive", generic.ErrInvalidRule)
	}
	for _, p := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"liability weight", s.LiabilityWeight},
		{"fx weight", s.FXWeight},
		{"legal weight", s.LegalWeight},
		{"floor", s.Floor},
	} {
		if p.value.IsNegative() {
			return fmt.Errorf("%w: risk %s must not be negative", generic.ErrInvalidRule, p.name)
		}
	}
	return nil
}

// Score combines a reporting-currency total, a currency volatility and a
// legal risk tier. Unknown tiers score as medium.
func (s RiskScorer) Score(totalReporting, volatility decimal.Decimal, tier rules.LegalRiskTier) decimal.Decimal {
	liability := decimal.Min(totalReporting.Div(s.LiabilityCeiling), decimal.NewFromInt(1)).Mul(s.LiabilityWeight)
	fx := volatility.Div(s.VolatilityCeiling).Mul(s.FXWeight)

	factor, ok := s.LegalFactors[tier]
	if !ok {
		factor = s.LegalFactors[rules.LegalRiskMedium]
	}
	legal := factor.Mul(s.LegalWeight)

	score := liability.Add(fx).Add(legal).Add(s.Floor)
	return decimal.Max(decimal.Zero, decimal.Min(score, maxRiskScore))
}

// BandFor classifies a score: High above 70, Medium from 40, Low below.
func BandFor(score decimal.Decimal) RiskBand {
	switch {
	case score.GreaterThan(HighRiskThreshold):
		return RiskHigh
	case score.GreaterThanOrEqual(MediumRiskThreshold):
		return RiskMedium
	default:
		return RiskLow
	}
}
