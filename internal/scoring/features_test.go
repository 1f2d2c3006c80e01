package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const richInvoice = `INVOICE #INV-2041
Northwind Traders Inc.
4521 Commerce Boulevard
Contact: billing@northwind.example.com  Phone: (555) 123-4567
Invoice Date: 01/15/2026  Due Date: 02/14/2026
Payment Terms: Net 30
Tax ID: 12-3456789
Amount due: $48,200.00
Thank you for your business. Payment confirmed upon receipt.
Remit to Bank: First National, Account 00123456, Routing 021000021, SWIFT FNBKUS33
`

func TestExtractFeatures_EmptyText(t *testing.T) {
	f := NewPatternLibrary().ExtractFeatures("")

	assert.Equal(t, 0.0, f.Amount)
	assert.Equal(t, "USD", f.Currency)
	assert.Equal(t, 30, f.PaymentTermsDays)
	assert.Equal(t, 0, f.TextLength)
	assert.False(t, f.HasLogo)
	assert.False(t, f.HasAddress)
	assert.False(t, f.HasTaxID)
	assert.False(t, f.HasBankDetails)
	assert.Equal(t, 0.0, f.SentimentScore)
	assert.Equal(t, 0.0, f.FormalityScore)
	assert.Equal(t, 0.0, f.CompletenessScore)
	assert.Empty(t, f.VendorName)
	assert.Empty(t, f.ClientName)
	assert.Nil(t, f.InvoiceDate)
	assert.Nil(t, f.DueDate)
}

func TestExtractFeatures_RichInvoice(t *testing.T) {
	f := NewPatternLibrary().ExtractFeatures(richInvoice)

	assert.Equal(t, 48200.0, f.Amount)
	assert.Equal(t, "USD", f.Currency)
	assert.Equal(t, 30, f.PaymentTermsDays)
	assert.Equal(t, len(richInvoice), f.TextLength)
	assert.True(t, f.HasAddress)
	assert.True(t, f.HasTaxID)
	assert.True(t, f.HasBankDetails)
	assert.False(t, f.HasLogo, "short documents without the word logo have no logo")
	// address, tax id, bank, email, phone, date, amount; no logo
	assert.Equal(t, 0.875, f.CompletenessScore)
	assert.Equal(t, 0.5, f.FormalityScore)
	assert.Equal(t, 1.0, f.SentimentScore)
}

func TestExtractFeatures_FactoringScenario(t *testing.T) {
	text := "INVOICE\nAcme Corp LLC\n123 Main Street\nTotal: $12,500.00\nNet 30\n" +
		"Tax ID: 12-3456789\nPlease remit to bank account routing 021000021\n"

	f := NewPatternLibrary().ExtractFeatures(text)

	assert.Equal(t, 12500.0, f.Amount)
	assert.Equal(t, 30, f.PaymentTermsDays)
	assert.True(t, f.HasAddress)
	assert.True(t, f.HasTaxID)
	assert.True(t, f.HasBankDetails)
	assert.Equal(t, 0.625, f.CompletenessScore)
	assert.InDelta(t, 0.3, f.FormalityScore, 1e-12)
}

func TestExtractFeatures_Amounts(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		expected float64
	}{
		{"largest labelled amount wins", "Subtotal 1,000.00 Total: 1,250.00 Amount paid 250.00", 1250},
		{"currency symbol after keyword", "Amount due: £ 3,000", 3000},
		{"no keyword", "We shipped 400 widgets", 0},
		{"plain integer", "Amount: 800 due soon", 800},
		{"ungrouped digits stop after three plus groups", "total 5000 net 0", 500},
		{"case insensitive keyword", "TOTAL 19.99", 19.99},
	}

	lib := NewPatternLibrary()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, lib.ExtractFeatures(tc.text).Amount)
		})
	}
}

func TestExtractFeatures_Currency(t *testing.T) {
	testCases := []struct {
		text     string
		expected string
	}{
		{"Total: €2,400.50", "EUR"},
		{"Total: £99", "GBP"},
		{"Total: $99", "USD"},
		{"Amount 500 eur", "EUR"},
		{"Price in gbp then $", "GBP"},
		{"nothing here", "USD"},
	}

	lib := NewPatternLibrary()
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, lib.ExtractFeatures(tc.text).Currency, tc.text)
	}
}

func TestExtractFeatures_PaymentTerms(t *testing.T) {
	testCases := []struct {
		text     string
		expected int
	}{
		{"Net 45 days", 45},
		{"payment terms: 60 days", 60},
		{"Payment Term 15", 15},
		{"NET60", 60},
		{"due on receipt", 30},
		{"Net 99999999999999999999999 days", 30},
	}

	lib := NewPatternLibrary()
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, lib.ExtractFeatures(tc.text).PaymentTermsDays, tc.text)
	}
}

func TestExtractFeatures_Sentiment(t *testing.T) {
	lib := NewPatternLibrary()

	assert.Equal(t, -1.0, lib.ExtractFeatures("URGENT: FINAL NOTICE, PENALTY, OVERDUE").SentimentScore)
	assert.Equal(t, 1.0, lib.ExtractFeatures("Payment received, thank you").SentimentScore)
	// paid, late: one each
	assert.Equal(t, 0.0, lib.ExtractFeatures("paid late").SentimentScore)
	// repeated keywords count once
	assert.Equal(t, 1.0, lib.ExtractFeatures("paid paid paid").SentimentScore)
	// approved, confirmed vs overdue
	assert.InDelta(t, 1.0/3.0, lib.ExtractFeatures("approved and confirmed but overdue").SentimentScore, 1e-12)
}

func TestExtractFeatures_LogoProxy(t *testing.T) {
	lib := NewPatternLibrary()

	assert.True(t, lib.ExtractFeatures("company LOGO here").HasLogo)
	assert.False(t, lib.ExtractFeatures(strings.Repeat("x", 500)).HasLogo)
	assert.True(t, lib.ExtractFeatures(strings.Repeat("x", 501)).HasLogo)
	// length counts characters, not bytes
	assert.False(t, lib.ExtractFeatures(strings.Repeat("é", 300)).HasLogo)
}

func TestExtractFeatures_FormalityCapped(t *testing.T) {
	text := strings.Repeat("invoice LLC ", 20)
	assert.Equal(t, 1.0, NewPatternLibrary().ExtractFeatures(text).FormalityScore)
}

func TestExtractFeatures_CompletenessIsEighths(t *testing.T) {
	lib := NewPatternLibrary()
	for _, text := range []string{"", richInvoice, "bank", "a@b.co 2026-01-02", strings.Repeat("z", 900)} {
		c := lib.ExtractFeatures(text).CompletenessScore * 8
		assert.Equal(t, float64(int(c)), c, "completeness must be a multiple of 1/8 for %q", text)
	}
}

func TestExtractFeatures_UnicodeWhitespace(t *testing.T) {
	p := NewPatternLibrary()

	f := p.ExtractFeatures("Total:\u00a0$12,500.00\u00a0Net\u00a030")
	assert.Equal(t, 12500.0, f.Amount)
	assert.Equal(t, 30, f.PaymentTermsDays)
	assert.Equal(t, 0.125, f.CompletenessScore)

	f = p.ExtractFeatures("Payment\u2009Terms:\u00a045 days")
	assert.Equal(t, 45, f.PaymentTermsDays)

	f = p.ExtractFeatures("Tax\u00a0ID:\u00a0DE-123")
	assert.True(t, f.HasTaxID)
}

func TestExtractFeatures_AccentedText(t *testing.T) {
	p := NewPatternLibrary()

	f := p.ExtractFeatures("Rechnung\n12 Königsallee Road\nDüsseldorf")
	assert.True(t, f.HasAddress)
	assert.Equal(t, 0.125, f.CompletenessScore)

	f = p.ExtractFeatures("Contact: rené@café.example.fr")
	assert.Equal(t, 0.125, f.CompletenessScore, "accented email counts")
}

func TestExtractFeatures_UnicodeDigits(t *testing.T) {
	p := NewPatternLibrary()

	f := p.ExtractFeatures("Net ٤٥ days")
	assert.Equal(t, 45, f.PaymentTermsDays)

	f = p.ExtractFeatures("Issued ١٢/٠١/٢٠٢٦")
	assert.Equal(t, 0.125, f.CompletenessScore, "date with Arabic-Indic digits")
}

func TestWordRule_Count(t *testing.T) {
	company := NewPatternLibrary().Company
	professional := NewPatternLibrary().Professional

	tests := []struct {
		name string
		rule WordRule
		text string
		want int
	}{
		{"adjacent words", professional, "invoice invoice", 2},
		{"case insensitive", professional, "INVOICE Receipt", 2},
		{"inside a word", professional, "invoiced", 0},
		{"accented neighbour", professional, "éinvoice", 0},
		{"trailing dot before space", company, "Acme Co. Ltd", 2},
		{"corporation beats corp", company, "Corporation", 1},
		{"dot term needs word after", company, "S.A. x", 0},
		{"dot term before word", company, "S.A.x", 1},
		{"prefix of longer word", company, "Commerce Company", 1},
		{"umlaut boundary", company, "GmbHü", 0},
		{"empty", company, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Count(tt.text))
		})
	}
}
