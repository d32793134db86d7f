package summary

import (
	"math"

	"github.com/jonreiter/govader"
)

// VaderAnalyzer scores English text with the VADER lexicon.
type VaderAnalyzer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderAnalyzer() *VaderAnalyzer {
	return &VaderAnalyzer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *VaderAnalyzer) Compound(text string) (float64, error) {
	return v.analyzer.PolarityScores(text).Compound, nil
}

// ScoreFromCompound maps a compound score in [-1, 1] onto 0..100, 50 being neutral.
func ScoreFromCompound(compound float64) int {
	if math.IsNaN(compound) {
		return 50
	}
	score := math.Round((compound + 1) * 50)
	return int(math.Max(0, math.Min(100, score)))
}
