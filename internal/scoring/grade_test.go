package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradeBands_PartitionUnitInterval(t *testing.T) {
	bands := GradeBands()
	require.Len(t, bands, 11)

	assert.Equal(t, 0.0, bands[0].Lower)
	assert.Equal(t, 1.0, bands[len(bands)-1].Upper)

	for i, band := range bands {
		assert.Less(t, band.Lower, band.Upper, "band %s is empty", band.Grade)
		assert.Equal(t, i, band.Grade.Rank())
		if i > 0 {
			assert.Equal(t, bands[i-1].Upper, band.Lower, "gap or overlap before %s", band.Grade)
		}
	}
}

func TestGradeForPD(t *testing.T) {
	testCases := []struct {
		pd       float64
		expected RiskGrade
	}{
		{0.0, GradeAPlus},
		{0.005, GradeAPlus},
		{0.01, GradeA},
		{0.0299, GradeA},
		{0.03, GradeAMinus},
		{0.05, GradeBPlus},
		{0.10, GradeB},
		{0.15, GradeBMinus},
		{0.25, GradeCPlus},
		{0.35, GradeC},
		{0.50, GradeCMinus},
		{0.65, GradeD},
		{0.85, GradeF},
		{0.99, GradeF},
		{1.0, GradeF},
		{-0.1, GradeF},
		{math.NaN(), GradeF},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, GradeForPD(tc.pd), "pd=%v", tc.pd)
	}
}

func TestGradeForPD_EachGradeHasUniqueBand(t *testing.T) {
	for _, band := range GradeBands() {
		mid := (band.Lower + band.Upper) / 2
		matches := 0
		for _, other := range GradeBands() {
			if other.Lower <= mid && mid < other.Upper {
				matches++
			}
		}
		assert.Equal(t, 1, matches, "midpoint of %s", band.Grade)
		assert.Equal(t, band.Grade, GradeForPD(mid))
		assert.Equal(t, band.Grade, GradeForPD(band.Lower))
	}
}

func TestGradeForPD_Monotonic(t *testing.T) {
	prev := GradeForPD(0).Rank()
	for pd := 0.0; pd < 1.0; pd += 0.001 {
		rank := GradeForPD(pd).Rank()
		assert.GreaterOrEqual(t, rank, prev, "pd=%v", pd)
		prev = rank
	}
}

func TestRiskGrade_Helpers(t *testing.T) {
	assert.True(t, GradeBMinus.IsValid())
	assert.False(t, RiskGrade("E").IsValid())
	assert.Equal(t, "Critical risk level - not recommended for factoring", GradeF.Description())
	assert.Equal(t, "Credit assessment completed", RiskGrade("Z").Description())
}
