package scoring

import (
	"regexp"
	"strings"
	"unicode"
)

// PatternLibrary holds the compiled text-matching rules used by feature extraction.
// It is built once per engine and never mutated.
type PatternLibrary struct {
	Amount        *regexp.Regexp
	Currency      *regexp.Regexp
	Date          *regexp.Regexp
	Email         *regexp.Regexp
	Phone         *regexp.Regexp
	TaxID         *regexp.Regexp
	PaymentTerms  *regexp.Regexp
	Company       WordRule
	Professional  WordRule
	StreetAddress *regexp.Regexp
	BankDetails   *regexp.Regexp
}

// Keyword lists for the sentiment signal. Matching is case-insensitive substring.
var (
	positiveKeywords = []string{"paid", "approved", "confirmed", "received", "complete", "thank"}
	negativeKeywords = []string{"overdue", "late", "penalty", "urgent", "final notice", "collection"}
)

var currencySymbols = map[string]string{
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
}

// RE2's \s, \w and \d are ASCII only. These class bodies widen them to the
// Unicode sets, so a non-breaking space or an accented street name still matches.
const (
	spaceClass = `\s\v\x{1c}-\x{1f}\x{85}\p{Z}`
	wordClass  = `\p{L}\p{N}_`
	digit      = `\p{Nd}`
)

// NewPatternLibrary compiles the extraction rules
func NewPatternLibrary() *PatternLibrary {
	sp := `[` + spaceClass + `]`
	colonSp := `[:` + spaceClass + `]`
	word := `[` + wordClass + `]`
	return &PatternLibrary{
		Amount:        regexp.MustCompile(`(?i)(?:total|amount|sum|due|pay)` + colonSp + `*[$€£]?` + sp + `*([0-9]{1,3}(?:,?[0-9]{3})*(?:\.[0-9]{2})?)`),
		Currency:      regexp.MustCompile(`(?i)(\$|€|£|USD|EUR|GBP)`),
		Date:          regexp.MustCompile(`(` + digit + `{1,2}[-/]` + digit + `{1,2}[-/]` + digit + `{2,4}|` + digit + `{4}[-/]` + digit + `{1,2}[-/]` + digit + `{1,2})`),
		Email:         regexp.MustCompile(`[` + wordClass + `\.-]+@[` + wordClass + `\.-]+\.` + word + `+`),
		Phone:         regexp.MustCompile(`[\+]?[(]?[0-9]{1,3}[)]?[-` + spaceClass + `\.]?[0-9]{3}[-` + spaceClass + `\.]?[0-9]{4,6}`),
		TaxID:         regexp.MustCompile(`(?i)(?:tax` + sp + `*id|ein|vat)` + colonSp + `*([A-Z0-9-]+)`),
		PaymentTerms:  regexp.MustCompile(`(?i)(?:net|payment` + sp + `*terms?)` + colonSp + `*(` + digit + `+)` + sp + `*(?:days?)?`),
		Company:       NewWordRule("Inc.", "Inc", "LLC", "Ltd.", "Ltd", "Corp.", "Corp", "Corporation", "Company", "Co.", "Co", "GmbH", "S.A."),
		Professional:  NewWordRule("invoice", "receipt", "statement", "billing", "remittance", "payable", "receivable"),
		StreetAddress: regexp.MustCompile(`(?i)` + digit + `{1,5}` + sp + `+[` + wordClass + spaceClass + `]+(?:street|st|avenue|ave|road|rd|boulevard|blvd)`),
		BankDetails:   regexp.MustCompile(`(?i)(?:bank|account|routing|iban|swift)`),
	}
}

// WordRule counts case-insensitive whole-word occurrences of a fixed term list.
// At each position the terms are tried in order and the first one that ends on a
// word boundary wins, so "Co." followed by a space counts as "Co".
type WordRule struct {
	terms [][]rune
}

// NewWordRule builds a rule from terms in priority order
func NewWordRule(terms ...string) WordRule {
	r := WordRule{terms: make([][]rune, len(terms))}
	for i, t := range terms {
		r.terms[i] = []rune(t)
	}
	return r
}

// Count returns the number of non-overlapping matches in text
func (w WordRule) Count(text string) int {
	runes := []rune(text)
	n := 0
	for i := 0; i < len(runes); {
		if i > 0 && isWordRune(runes[i-1]) {
			i++
			continue
		}
		l := w.matchAt(runes, i)
		if l == 0 {
			i++
			continue
		}
		n++
		i += l
	}
	return n
}

func (w WordRule) matchAt(runes []rune, i int) int {
	for _, term := range w.terms {
		end := i + len(term)
		if end > len(runes) || !strings.EqualFold(string(runes[i:end]), string(term)) {
			continue
		}
		next := end < len(runes) && isWordRune(runes[end])
		if isWordRune(runes[end-1]) != next {
			return len(term)
		}
	}
	return 0
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// digitValue returns the value of a Unicode decimal digit. Decimal digits are
// encoded in contiguous ascending runs of ten, so the offset from the run start
// gives the value.
func digitValue(r rune) int {
	start := r
	for unicode.IsDigit(start - 1) {
		start--
	}
	return int(r-start) % 10
}

// parseDigits converts a run of Unicode decimal digits to an int
func parseDigits(s string) (int, bool) {
	const maxInt = int(^uint(0) >> 1)
	n := 0
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return 0, false
		}
		d := digitValue(r)
		if n > (maxInt-d)/10 {
			return 0, false
		}
		n = n*10 + d
	}
	return n, s != ""
}
