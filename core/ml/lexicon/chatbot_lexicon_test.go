package lexicon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompound(t *testing.T) {
	a := NewAnalyzer()
	tests := []struct {
		text string
		sign int
	}{
		{"this product is amazing", 1},
		{"I love it", 1},
		{"terrible quality, broken on arrival", -1},
		{"this is not good", -1},
		{"hello", 0},
		{"", 0},
		{"where is order 45821", 0},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			c := a.Compound(tt.text)
			switch tt.sign {
			case 1:
				assert.GreaterOrEqual(t, c, 0.05)
			case -1:
				assert.LessOrEqual(t, c, -0.05)
			default:
				assert.InDelta(t, 0, c, 0.05)
			}
		})
	}
}

func TestCompound_Bounds(t *testing.T) {
	a := NewAnalyzer()
	c := a.Compound("amazing amazing amazing wonderful perfect best love love love!!!!")
	assert.LessOrEqual(t, c, 1.0)
	assert.Greater(t, c, 0.9)
}

func TestBoostersAndCaps(t *testing.T) {
	a := NewAnalyzer()
	plain := a.Compound("the fit is good")
	assert.Greater(t, a.Compound("the fit is very good"), plain)
	assert.Greater(t, a.Compound("the fit is GOOD"), plain)
}

func TestButRule(t *testing.T) {
	a := NewAnalyzer()
	assert.Less(t, a.Compound("the color is nice but the fabric is terrible"), 0.0)
}

func TestPolarityScores_Proportions(t *testing.T) {
	s := NewAnalyzer().PolarityScores("good product and bad box")
	assert.InDelta(t, 1.0, s.Positive+s.Negative+s.Neutral, 0.002)
	assert.Equal(t, Scores{Neutral: 1}, NewAnalyzer().PolarityScores("   "))
}
