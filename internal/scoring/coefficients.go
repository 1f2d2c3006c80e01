package scoring

// AltmanCoefficients are the 1968 Altman Z-Score weights applied to the
// invoice-level proxy terms
type AltmanCoefficients struct {
	WorkingCapital    float64 `json:"working_capital_ta"`
	RetainedEarnings  float64 `json:"retained_earnings_ta"`
	EBIT              float64 `json:"ebit_ta"`
	MarketValueEquity float64 `json:"market_value_equity_tl"`
	Sales             float64 `json:"sales_ta"`
}

var altman = AltmanCoefficients{
	WorkingCapital:    1.2,
	RetainedEarnings:  1.4,
	EBIT:              3.3,
	MarketValueEquity: 0.6,
	Sales:             1.0,
}

// Model-wide constants used by the distance-to-default and valuation formulas
const (
	defaultInvoiceValue = 5000.0
	defaultThreshold    = 1000.0
	riskFreeRate        = 0.05
	minVolatility       = 0.1
	minTimeToMaturity   = 0.01
	defaultPaymentTerms = 30
	defaultCurrency     = "USD"
	ddBelowThreshold    = -1.0
	minPD               = 0.01
	maxPD               = 0.99
	minConfidence       = 0.50
	maxConfidence       = 0.99
)

// featureImportance and industryRisk are carried over from an earlier model
// iteration. No formula reads them; wiring them in would shift every output.
var featureImportance = map[string]float64{
	"amount_normalized":      0.15,
	"payment_terms_score":    0.12,
	"document_completeness":  0.18,
	"text_quality":           0.10,
	"entity_strength":        0.15,
	"temporal_validity":      0.08,
	"format_professionalism": 0.12,
	"industry_risk_factor":   0.10,
}

var industryRisk = map[string]float64{
	"technology":    0.85,
	"healthcare":    0.90,
	"manufacturing": 1.00,
	"retail":        1.10,
	"construction":  1.20,
	"hospitality":   1.25,
	"unknown":       1.05,
}

// Altman returns the Z-Score coefficients
func Altman() AltmanCoefficients {
	return altman
}

// FeatureImportance returns a copy of the declared (unused) feature weights
func FeatureImportance() map[string]float64 {
	return copyTable(featureImportance)
}

// IndustryRisk returns a copy of the declared (unused) industry multipliers
func IndustryRisk() map[string]float64 {
	return copyTable(industryRisk)
}

func copyTable(src map[string]float64) map[string]float64 {
	dst := make(map[string]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
