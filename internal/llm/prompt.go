package llm

import (
	"fmt"
)

// MaxPromptDocumentChars bounds the document text embedded in a prompt
const MaxPromptDocumentChars = 8000

// DefaultDocumentType is used when the caller does not name one
const DefaultDocumentType = "invoice"

const promptTemplate = `You are FlowAI, an advanced financial analysis AI with capabilities in:
- Mathematical reasoning and computation
- Quantitative risk modeling
- Probabilistic assessment
- Financial document analysis

Analyze this %s document and provide a comprehensive risk assessment.

DOCUMENT CONTENT:
%s

ANALYSIS REQUIREMENTS:
1. RISK SCORE: Assign a letter grade (A+, A, A-, B+, B, B-, C+, C, C-, D, F)
   - A+/A: Minimal risk, strong creditworthiness
   - B+/B: Low-moderate risk, acceptable
   - C+/C: Moderate risk, requires caution
   - D/F: High risk, not recommended

2. VALUATION: Estimate the invoice value in USD (integer)

3. CONFIDENCE: Your confidence in this assessment (0.0-1.0)

4. REASONING: Explain your step-by-step analysis including:
   - Payment history indicators
   - Company/vendor analysis
   - Amount reasonability
   - Risk factors identified
   - Quantitative probability of default

5. QUANTUM SCORE: Advanced composite risk metric (0.0-100.0)
   Combines: Credit risk, Liquidity risk, Market risk, Operational risk

Return ONLY a valid JSON object:
{
    "risk_score": "A/B/C/D/F with modifier",
    "valuation": <integer>,
    "confidence": <float 0-1>,
    "summary": "One sentence assessment",
    "reasoning": "Detailed step-by-step analysis",
    "quantum_score": <float 0-100>
}`

// BuildPrompt renders the financial analysis prompt for a document
func BuildPrompt(documentText, documentType string) string {
	if documentType == "" {
		documentType = DefaultDocumentType
	}
	return fmt.Sprintf(promptTemplate, documentType, truncateRunes(documentText, MaxPromptDocumentChars))
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
