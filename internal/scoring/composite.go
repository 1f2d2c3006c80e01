package scoring

import "math"

// ComponentScores breaks the Quantum Score into its four risk dimensions.
// Each is a mean of factors scaled to 0-100; the factors are not clamped
// individually, so extreme inputs can land marginally outside that range.
type ComponentScores struct {
	CreditRisk      float64 `json:"credit_risk"`
	LiquidityRisk   float64 `json:"liquidity_risk"`
	MarketRisk      float64 `json:"market_risk"`
	OperationalRisk float64 `json:"operational_risk"`
}

// Quantum Score weights per component
const (
	creditWeight      = 0.30
	liquidityWeight   = 0.25
	marketWeight      = 0.25
	operationalWeight = 0.20
)

// Weighted combines the components into the Quantum Score
func (c ComponentScores) Weighted() float64 {
	return c.CreditRisk*creditWeight +
		c.LiquidityRisk*liquidityWeight +
		c.MarketRisk*marketWeight +
		c.OperationalRisk*operationalWeight
}

// QuantumScore computes the composite 0-100 metric (higher is safer) and its components
func QuantumScore(f InvoiceFeatures, z, pd float64) (float64, ComponentScores) {
	components := ComponentScores{
		CreditRisk: (1 - pd) * 100,
		LiquidityRisk: mean(
			math.Min(1.0, f.Amount/20000),
			math.Max(0, 1-float64(f.PaymentTermsDays)/120),
			boolToFloat(f.HasBankDetails)*0.3+0.7,
		) * 100,
		MarketRisk: mean(
			f.CompletenessScore,
			f.FormalityScore,
			math.Min(1.0, z/4),
		) * 100,
		OperationalRisk: mean(
			f.CompletenessScore,
			math.Max(0, f.SentimentScore),
			math.Min(1.0, float64(f.TextLength)/500),
			boolToFloat(f.HasTaxID)*0.2+boolToFloat(f.HasAddress)*0.2+0.6,
		) * 100,
	}
	return components.Weighted(), components
}

// Confidence estimates how much the assessment can be trusted from data quality,
// amount of text and how decisive the PD is. Clipped to [0.50, 0.99].
func Confidence(f InvoiceFeatures, pd float64) float64 {
	dataConfidence := f.CompletenessScore*0.4 + 0.6
	textConfidence := math.Min(1.0, float64(f.TextLength)/800)
	modelCertainty := 0.5 + (1-2*math.Abs(pd-0.5))*0.5

	confidence := dataConfidence*0.4 + textConfidence*0.3 + modelCertainty*0.3
	return clip(confidence, minConfidence, maxConfidence)
}

// AdvanceRate is the share of face value advanced up front: 95% less 15% of PD
func AdvanceRate(pd float64) float64 {
	return 0.95 - pd*0.15
}

// Valuation estimates the factoring value of the invoice:
//
//	base × advance rate × (1 - 0.05·PD)
//
// truncated to whole currency units. Without a detected amount the base is
// inferred from completeness (5000 to 15000).
func Valuation(f InvoiceFeatures, pd float64) int {
	base := f.Amount
	if f.Amount <= 0 {
		base = defaultInvoiceValue + f.CompletenessScore*10000
	}
	riskDiscount := pd * 0.05
	value := base * AdvanceRate(pd) * (1 - riskDiscount)
	// Absurdly large amounts would overflow the conversion.
	if value >= math.MaxInt {
		return math.MaxInt
	}
	return int(value)
}

func mean(values ...float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
