package model

import (
	"fmt"
	"math"
	"time"
)

type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "POSITIVE"
	SentimentNegative SentimentLabel = "NEGATIVE"
	SentimentNeutral  SentimentLabel = "NEUTRAL"
	SentimentMixed    SentimentLabel = "MIXED"
)

var AllSentimentLabel = []SentimentLabel{
	SentimentPositive,
	SentimentNegative,
	SentimentNeutral,
	SentimentMixed,
}

// scoreSumTolerance is how far the four scores may drift from 1.0.
const scoreSumTolerance = 0.01

func (e SentimentLabel) IsValid() bool {
	switch e {
	case SentimentPositive, SentimentNegative, SentimentNeutral, SentimentMixed:
		return true
	}
	return false
}

func (e SentimentLabel) String() string {
	return string(e)
}

func ParseSentimentLabel(s string) (SentimentLabel, error) {
	l := SentimentLabel(s)
	if !l.IsValid() {
		return "", fmt.Errorf("%s is not a valid SentimentLabel", s)
	}
	return l, nil
}

// MetricName is the word shown on reposts, e.g. "Positivity=0.873".
func (e SentimentLabel) MetricName() string {
	switch e {
	case SentimentPositive:
		return "Positivity"
	case SentimentNegative:
		return "Negativity"
	case SentimentNeutral:
		return "Neutrality"
	case SentimentMixed:
		return "Mixedness"
	}
	return ""
}

type SentimentScores struct {
	Positive float64
	Negative float64
	Neutral  float64
	Mixed    float64
}

// ScoreFor returns the score belonging to label. ok is false for labels
// outside the fixed set.
func (s SentimentScores) ScoreFor(label SentimentLabel) (score float64, ok bool) {
	switch label {
	case SentimentPositive:
		return s.Positive, true
	case SentimentNegative:
		return s.Negative, true
	case SentimentNeutral:
		return s.Neutral, true
	case SentimentMixed:
		return s.Mixed, true
	}
	return 0, false
}

// Valid reports whether every score is in [0,1] and they sum to ~1.
func (s SentimentScores) Valid() bool {
	sum := 0.0
	for _, v := range []float64{s.Positive, s.Negative, s.Neutral, s.Mixed} {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return false
		}
		sum += v
	}
	return math.Abs(sum-1) <= scoreSumTolerance
}

// ClassificationResult is what the classifier hands back. Label is empty when
// the service answered with a label outside AllSentimentLabel, RawLabel
// always holds what the service said.
type ClassificationResult struct {
	Label    SentimentLabel
	RawLabel string
	Scores   SentimentScores
}

/*

SentimentClassification is embedded in Item. All columns stay NULL until the
classifier answers, a non-NULL label means the item is never classified again.
*/
type SentimentClassification struct {
	SentimentLabel     *string `gorm:"size:32;index"`
	QuantifiedPositive *float64
	QuantifiedNegative *float64
	QuantifiedNeutral  *float64
	QuantifiedMixed    *float64
	ClassifiedAt       *time.Time
}

func (c SentimentClassification) IsClassified() bool {
	return c.SentimentLabel != nil
}

// Scores returns the stored scores, zero for unset columns.
func (c SentimentClassification) Scores() SentimentScores {
	deref := func(f *float64) float64 {
		if f == nil {
			return 0
		}
		return *f
	}
	return SentimentScores{
		Positive: deref(c.QuantifiedPositive),
		Negative: deref(c.QuantifiedNegative),
		Neutral:  deref(c.QuantifiedNeutral),
		Mixed:    deref(c.QuantifiedMixed),
	}
}

// NewSentimentClassification builds the columns to persist for result.
func NewSentimentClassification(result ClassificationResult, at time.Time) SentimentClassification {
	label := result.RawLabel
	if result.Label != "" {
		label = string(result.Label)
	}
	// Unknown labels are stored cut to the column, they must never fail the write.
	if r := []rune(label); len(r) > MaxSentimentLabelLength {
		label = string(r[:MaxSentimentLabelLength])
	}
	scores := result.Scores
	return SentimentClassification{
		SentimentLabel:     &label,
		QuantifiedPositive: &scores.Positive,
		QuantifiedNegative: &scores.Negative,
		QuantifiedNeutral:  &scores.Neutral,
		QuantifiedMixed:    &scores.Mixed,
		ClassifiedAt:       &at,
	}
}

type AnalysisPart string

const (
	AnalysisPartTitle       AnalysisPart = "title"
	AnalysisPartDescription AnalysisPart = "description"
)

/*

AuxiliaryAnalysis keeps the separate sentiment of a feed item's title and
description. Kept for later analysis only, reposting never reads it.
*/
type AuxiliaryAnalysis struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	ItemID    string `gorm:"index;not null;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Part      AnalysisPart `gorm:"size:16;not null"`
	SentimentClassification
}
