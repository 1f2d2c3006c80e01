package scoring

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Narrative thresholds. These are independent of the grade bands.
const (
	largeInvoiceAmount    = 10000.0
	strongCompletenessPct = 70.0
	safeZoneZ             = 2.7
	greyZoneZ             = 1.8
	excellentPD           = 0.05
	acceptablePD          = 0.20
)

// Reasoning renders the step-by-step explanation of an assessment
func Reasoning(f InvoiceFeatures, z, dd, pd float64, components ComponentScores) string {
	var parts []string

	if f.Amount > 0 {
		sizeNote := "Moderate invoice size."
		if f.Amount > largeInvoiceAmount {
			sizeNote = "Higher amounts typically indicate established business relationships."
		}
		parts = append(parts, fmt.Sprintf("Invoice amount of $%s detected. %s",
			humanize.FormatFloat("#,###.##", f.Amount), sizeNote))
	}

	completenessPct := f.CompletenessScore * 100
	docNote := "Additional verification recommended."
	if completenessPct > strongCompletenessPct {
		docNote = "Strong documentation reduces risk."
	}
	parts = append(parts, fmt.Sprintf("Document completeness: %.0f%%. %s", completenessPct, docNote))

	parts = append(parts, fmt.Sprintf("Modified Z-Score: %.2f (%s). Distance-to-Default: %.2f.",
		z, zZone(z), dd))

	parts = append(parts, fmt.Sprintf(
		"Quantum Score components - Credit: %.0f, Liquidity: %.0f, Market: %.0f, Operational: %.0f.",
		components.CreditRisk, components.LiquidityRisk, components.MarketRisk, components.OperationalRisk))

	parts = append(parts, fmt.Sprintf("Probability of default: %.1f%%. %s", pd*100, pdVerdict(pd)))

	return strings.Join(parts, " ")
}

// Summary renders the one-sentence verdict for a grade and valuation
func Summary(grade RiskGrade, valuation int) string {
	return fmt.Sprintf("%s. Recommended valuation: $%s.", grade.Description(), humanize.Comma(int64(valuation)))
}

// InDistressZone reports whether a Z-score falls in the distress zone
func InDistressZone(z float64) bool {
	return z <= greyZoneZ
}

func zZone(z float64) string {
	switch {
	case z > safeZoneZ:
		return "Safe zone"
	case z > greyZoneZ:
		return "Grey zone"
	default:
		return "Distress zone"
	}
}

func pdVerdict(pd float64) string {
	switch {
	case pd < excellentPD:
		return "Excellent creditworthiness."
	case pd < acceptablePD:
		return "Acceptable risk level."
	default:
		return "Elevated risk - enhanced due diligence recommended."
	}
}
