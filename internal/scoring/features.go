package scoring

import (
	"math"
	"strconv"
	"strings"
)

// InvoiceFeatures is the structured view of a document produced by feature extraction
type InvoiceFeatures struct {
	// Monetary
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`

	// Entities; extraction is not implemented so these stay empty
	VendorName string `json:"vendor_name"`
	ClientName string `json:"client_name"`

	// Temporal
	InvoiceDate      *string `json:"invoice_date,omitempty"`
	DueDate          *string `json:"due_date,omitempty"`
	PaymentTermsDays int     `json:"payment_terms_days"`

	// Document quality
	TextLength     int  `json:"text_length"`
	HasLogo        bool `json:"has_logo"`
	HasAddress     bool `json:"has_address"`
	HasTaxID       bool `json:"has_tax_id"`
	HasBankDetails bool `json:"has_bank_details"`

	// NLP-derived
	SentimentScore    float64 `json:"sentiment_score"`
	FormalityScore    float64 `json:"formality_score"`
	CompletenessScore float64 `json:"completeness_score"`
}

// defaultFeatures returns the feature record of a document with no detectable content
func defaultFeatures() InvoiceFeatures {
	return InvoiceFeatures{
		Currency:         defaultCurrency,
		PaymentTermsDays: defaultPaymentTerms,
	}
}

// logoLengthProxy is the text length above which a document is assumed to carry a logo
const logoLengthProxy = 500

// ExtractFeatures derives an InvoiceFeatures record from raw document text.
// It never fails: anything that cannot be parsed keeps its default value.
func (p *PatternLibrary) ExtractFeatures(text string) InvoiceFeatures {
	f := defaultFeatures()
	// Length is counted in characters, not bytes.
	f.TextLength = len([]rune(text))

	f.Amount = p.largestAmount(text)

	if m := p.Currency.FindStringSubmatch(text); m != nil {
		code := strings.ToUpper(m[1])
		if mapped, ok := currencySymbols[code]; ok {
			code = mapped
		}
		f.Currency = code
	}

	if m := p.PaymentTerms.FindStringSubmatch(text); m != nil {
		if days, ok := parseDigits(m[1]); ok {
			f.PaymentTermsDays = days
		}
	}

	lower := strings.ToLower(text)

	f.HasAddress = p.StreetAddress.MatchString(text)
	f.HasTaxID = p.TaxID.MatchString(text)
	f.HasBankDetails = p.BankDetails.MatchString(text)
	f.HasLogo = strings.Contains(lower, "logo") || f.TextLength > logoLengthProxy

	indicators := []bool{
		f.HasAddress,
		f.HasTaxID,
		f.HasBankDetails,
		f.HasLogo,
		p.Email.MatchString(text),
		p.Phone.MatchString(text),
		p.Date.MatchString(text),
		f.Amount > 0,
	}
	present := 0
	for _, ok := range indicators {
		if ok {
			present++
		}
	}
	f.CompletenessScore = float64(present) / float64(len(indicators))

	professional := p.Professional.Count(text)
	company := p.Company.Count(text)
	f.FormalityScore = math.Min(1.0, float64(professional+company)/10)

	f.SentimentScore = sentiment(lower)

	return f
}

// largestAmount returns the biggest labelled amount in the text, or 0 if none parses
func (p *PatternLibrary) largestAmount(text string) float64 {
	largest := 0.0
	found := false
	for _, m := range p.Amount.FindAllStringSubmatch(text, -1) {
		value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil || math.IsInf(value, 0) {
			continue
		}
		if !found || value > largest {
			largest = value
			found = true
		}
	}
	return largest
}

func sentiment(lower string) float64 {
	pos := countKeywords(lower, positiveKeywords)
	neg := countKeywords(lower, negativeKeywords)
	if pos+neg == 0 {
		return 0
	}
	return float64(pos-neg) / float64(pos+neg)
}

// countKeywords counts how many keywords occur at least once
func countKeywords(lower string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}
