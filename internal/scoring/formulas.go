package scoring

import "math"

// ZScore computes the modified Altman Z-Score of an invoice:
//
//	Z = 1.2(WC) + 1.4(RE) + 3.3(EBIT) + 0.6(MVE) + 1.0(S)
//
// where payment terms stand in for working capital, document quality for retained
// earnings, amount for EBIT, completeness for market value and text quality for sales.
// The result is not clamped.
func ZScore(f InvoiceFeatures) float64 {
	amountNormalized := 0.3
	if f.Amount > 0 {
		amountNormalized = math.Min(1.0, f.Amount/50000)
	}

	wc := math.Max(0, 1-float64(f.PaymentTermsDays)/90)
	re := f.CompletenessScore*0.7 + f.FormalityScore*0.3
	ebit := 0.5 + amountNormalized*0.5
	mve := f.CompletenessScore
	sales := math.Min(1.0, f.FormalityScore*0.6+(float64(f.TextLength)/1000)*0.4)

	return altman.WorkingCapital*wc +
		altman.RetainedEarnings*re +
		altman.EBIT*ebit +
		altman.MarketValueEquity*mve +
		altman.Sales*sales
}

// DistanceToDefault computes a Merton-style distance to default:
//
//	DD = (ln(V/D) + (r - σ²/2)T) / (σ√T)
//
// V is the invoice amount (5000 when unknown), D a fixed 1000 threshold, σ a
// volatility proxy falling with completeness and T the payment term in years.
// Values at or below the threshold return -1.
func DistanceToDefault(f InvoiceFeatures) float64 {
	v := defaultInvoiceValue
	if f.Amount > 0 {
		v = f.Amount
	}

	sigma := math.Max(minVolatility, 0.5-f.CompletenessScore*0.3)
	t := math.Max(minTimeToMaturity, float64(f.PaymentTermsDays)/365)

	if v <= defaultThreshold {
		return ddBelowThreshold
	}
	return (math.Log(v/defaultThreshold) + (riskFreeRate-0.5*sigma*sigma)*t) / (sigma * math.Sqrt(t))
}

// zScorePD maps a Z-Score onto the empirical default-rate buckets
func zScorePD(z float64) float64 {
	switch {
	case z > 3.0:
		return 0.02
	case z > 2.7:
		return 0.05
	case z > 2.0:
		return 0.10
	case z > 1.8:
		return 0.20
	case z > 1.5:
		return 0.35
	default:
		return 0.50 + (1.5-z)*0.25
	}
}

// ddPD approximates Φ(-DD) with a logistic curve
func ddPD(dd float64) float64 {
	return 1 / (1 + math.Exp(dd*1.5))
}

// ProbabilityOfDefault blends the Z-Score bucket (40%) with the distance-to-default
// curve (60%) and clips the result to [0.01, 0.99].
func ProbabilityOfDefault(z, dd float64) float64 {
	pd := 0.4*zScorePD(z) + 0.6*ddPD(dd)
	return clip(pd, minPD, maxPD)
}

// clip bounds x to [lo, hi]; NaN collapses to hi.
func clip(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return hi
	}
	return math.Max(lo, math.Min(hi, x))
}
