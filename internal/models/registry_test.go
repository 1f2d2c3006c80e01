package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_ReturnsCopy(t *testing.T) {
	all := All()
	require.Len(t, all, 8)
	all[0].Name = "changed"
	assert.Equal(t, "DeepSeek-R1", All()[0].Name)
}

func TestByCapability_SortedByPriority(t *testing.T) {
	vision := ByCapability(CapOCRVision)
	require.Len(t, vision, 1)
	assert.Equal(t, "llama3.2-vision:11b", vision[0].Tag)

	financial := ByCapability(CapFinancialAnalysis)
	require.Len(t, financial, 8)
	for i := 1; i < len(financial); i++ {
		assert.LessOrEqual(t, financial[i-1].Priority, financial[i].Priority)
	}
	assert.Equal(t, "DeepSeek-R1", financial[0].Name)
	assert.Equal(t, "Qwen3-0.6B", financial[len(financial)-1].Name)
}

func TestBestForTask(t *testing.T) {
	m, ok := BestForTask(CapMathematicalReasoning, 8)
	require.True(t, ok)
	assert.Equal(t, "DeepSeek-R1-8B", m.Name)

	_, ok = BestForTask(CapOCRVision, 8)
	assert.False(t, ok)
}

func TestRecommendedStack(t *testing.T) {
	tests := []struct {
		vram float64
		want map[string]string
	}{
		{24, map[string]string{RoleMathematical: "DeepSeek-R1", RoleVision: "Llama-3.2-Vision"}},
		{12, map[string]string{RoleMathematical: "DeepSeek-R1", RoleVision: "Llama-3.2-Vision"}},
		{8, map[string]string{RoleMathematical: "DeepSeek-R1-8B", RoleRisk: "Mistral-7B"}},
		{4, map[string]string{RoleFinancial: "Phi-3.5"}},
		{1, map[string]string{RoleFinancial: "Qwen3-0.6B"}},
		{0, map[string]string{}},
	}

	for _, tt := range tests {
		got := map[string]string{}
		for role, m := range RecommendedStack(tt.vram) {
			got[role] = m.Name
		}
		assert.Equal(t, tt.want, got, "vram %.0f", tt.vram)
	}
}

func TestLookup(t *testing.T) {
	m, ok := Lookup("mistral:7b")
	require.True(t, ok)
	assert.False(t, m.RequiresGPU)
	assert.True(t, m.Has(CapRiskAssessment))

	_, ok = Lookup("gpt-4")
	assert.False(t, ok)

	assert.Equal(t, "Phi-3.5", DisplayName("phi3.5:3.8b"))
	assert.Equal(t, "llama3:8b", DisplayName("llama3:8b"))
}
