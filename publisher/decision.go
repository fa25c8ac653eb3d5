package publisher

import (
	"fmt"

	"github.com/Luismorlan/goodnewsbot/model"
	Logger "github.com/Luismorlan/goodnewsbot/utils/log"
)

type Action int

const (
	ActionNone Action = iota
	ActionRepost
)

func (a Action) String() string {
	if a == ActionRepost {
		return "repost"
	}
	return "none"
}

type Reason string

const (
	ReasonAboveCutoff       Reason = "above-cutoff"
	ReasonNoCategory        Reason = "no-category"
	ReasonBelowCutoff       Reason = "below-cutoff"
	ReasonNoTarget          Reason = "no-target"
	ReasonUnmappedSentiment Reason = "unmapped-sentiment"
)

// Decision is the verdict for one classified item. Channel is only set for
// ActionRepost.
type Decision struct {
	Action  Action
	Reason  Reason
	Label   model.SentimentLabel
	Score   float64
	Cutoff  float64
	Channel string
}

// Annotation is the flair shown on a repost, e.g. "Positivity=0.873".
func (d Decision) Annotation() string {
	return fmt.Sprintf("%s=%.3f", d.Label.MetricName(), d.Score)
}

func (d Decision) String() string {
	if d.Action == ActionRepost {
		return fmt.Sprintf("repost to r/%s (%s > %g)", d.Channel, d.Annotation(), d.Cutoff)
	}
	return fmt.Sprintf("no repost (%s)", d.Reason)
}

// Decide reposts when the score of the classified label is strictly greater
// than its category cutoff and the category has a target channel.
func Decide(result model.ClassificationResult, categories []model.RepostCategory) Decision {
	score, ok := result.Scores.ScoreFor(result.Label)
	if !ok {
		Logger.Log.Errorf("sentiment label %q has no score, not reposting", result.RawLabel)
		return Decision{Action: ActionNone, Reason: ReasonUnmappedSentiment}
	}

	decision := Decision{Action: ActionNone, Label: result.Label, Score: score}
	var category *model.RepostCategory
	for i := range categories {
		if categories[i].Label == string(result.Label) {
			category = &categories[i]
			break
		}
	}
	if category == nil {
		decision.Reason = ReasonNoCategory
		return decision
	}

	decision.Cutoff = category.Cutoff
	if !(score > category.Cutoff) {
		decision.Reason = ReasonBelowCutoff
		return decision
	}
	if category.ChannelName() == "" {
		decision.Reason = ReasonNoTarget
		return decision
	}

	decision.Action = ActionRepost
	decision.Reason = ReasonAboveCutoff
	decision.Channel = category.ChannelName()
	return decision
}
