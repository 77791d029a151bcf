package insight

import "itbi-insight-lab/internal/domain"

// Eligibility floor on active periods, shared by every configuration.
const minActivePeriods = 2

// DefaultParams returns the production scoring configuration. Callers
// always receive a fresh value; there is no mutable package state.
func DefaultParams() domain.ScoringParams {
	return domain.ScoringParams{
		Valorization: domain.ValorizationWeights{Trend: 0.55, Liquidity: 0.25, Stability: 0.20},
		Gem:          domain.GemWeights{Trend: 0.40, Discount: 0.35, LiqDelta: 0.15, Stability: 0.10},
		Thresholds:   domain.Thresholds{MinConfidence: 0.55, MinTransactions: 20},
	}
}

// ComputeScores turns feature rows into scored insights.
//
// Both scores are computed unconditionally for every row and then forced
// to exactly 0 for ineligible rows; the raw weighted intermediates stay
// on the row for diagnostics. Confidence multiplies into the scores of
// eligible rows too, so borderline regions show damped values.
//
// Valorization eligibility: volume ≥ MinTransactions, active periods ≥ 2
// and confidence ≥ MinConfidence. Gem eligibility additionally requires
// a positive trend and a positive discount.
func ComputeScores(features []*domain.FeatureRow, params domain.ScoringParams) []*domain.Insight {
	out := make([]*domain.Insight, 0, len(features))
	for _, f := range features {
		rawVal := params.Valorization.Trend*f.TrendNorm +
			params.Valorization.Liquidity*f.LiquidityNorm +
			params.Valorization.Stability*f.StabilityNorm

		rawGem := params.Gem.Trend*f.TrendNorm +
			params.Gem.Discount*f.DiscountNorm +
			params.Gem.LiqDelta*f.LiqDeltaNorm +
			params.Gem.Stability*f.StabilityNorm

		ins := &domain.Insight{
			FeatureRow:        *f,
			RawValorization:   rawVal,
			ValorizationScore: round1(100.0 * rawVal * f.Confidence),
			RawGem:            rawGem,
			GemScore:          round1(100.0 * rawGem * f.Confidence),
		}

		ins.ValorizationEligible = f.Volume >= params.Thresholds.MinTransactions &&
			f.ActivePeriods >= minActivePeriods &&
			f.Confidence >= params.Thresholds.MinConfidence
		ins.GemEligible = ins.ValorizationEligible && f.TrendPct > 0 && f.DiscountPct > 0

		if !ins.ValorizationEligible {
			ins.ValorizationScore = 0.0
		}
		if !ins.GemEligible {
			ins.GemScore = 0.0
		}
		out = append(out, ins)
	}
	return out
}
