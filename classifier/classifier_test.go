package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/comprehend"
	"github.com/aws/aws-sdk-go/service/comprehend/comprehendiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Luismorlan/goodnewsbot/model"
)

type fakeComprehend struct {
	comprehendiface.ComprehendAPI

	out    *comprehend.DetectSentimentOutput
	err    error
	inputs []*comprehend.DetectSentimentInput
}

func (f *fakeComprehend) DetectSentimentWithContext(ctx aws.Context, input *comprehend.DetectSentimentInput, opts ...request.Option) (*comprehend.DetectSentimentOutput, error) {
	f.inputs = append(f.inputs, input)
	return f.out, f.err
}

func sentimentOutput(label string, positive, negative, neutral, mixed float64) *comprehend.DetectSentimentOutput {
	return &comprehend.DetectSentimentOutput{
		Sentiment: aws.String(label),
		SentimentScore: &comprehend.SentimentScore{
			Positive: aws.Float64(positive),
			Negative: aws.Float64(negative),
			Neutral:  aws.Float64(neutral),
			Mixed:    aws.Float64(mixed),
		},
	}
}

func TestClassify(t *testing.T) {
	fake := &fakeComprehend{out: sentimentOutput("POSITIVE", 0.82, 0.08, 0.07, 0.03)}
	c := NewComprehendClassifierWithClient(fake, "")

	res, err := c.Classify(context.Background(), "Puppies rescued")
	require.NoError(t, err)

	assert.Equal(t, model.ClassificationResult{
		Label:    model.SentimentPositive,
		RawLabel: "POSITIVE",
		Scores:   model.SentimentScores{Positive: 0.82, Negative: 0.08, Neutral: 0.07, Mixed: 0.03},
	}, res)
	require.Len(t, fake.inputs, 1)
	assert.Equal(t, "Puppies rescued", aws.StringValue(fake.inputs[0].Text))
	assert.Equal(t, "en", aws.StringValue(fake.inputs[0].LanguageCode))
}

func TestClassifyUnknownLabel(t *testing.T) {
	fake := &fakeComprehend{out: sentimentOutput("SARCASTIC", 0.25, 0.25, 0.25, 0.25)}

	res, err := NewComprehendClassifierWithClient(fake, "en").Classify(context.Background(), "sure")
	require.NoError(t, err)
	assert.Equal(t, model.SentimentLabel(""), res.Label)
	assert.Equal(t, "SARCASTIC", res.RawLabel)
}

func TestClassifyServiceError(t *testing.T) {
	fake := &fakeComprehend{err: awserr.NewRequestFailure(
		awserr.New("InternalServerException", "something broke", nil), 500, "req-1")}

	_, err := NewComprehendClassifierWithClient(fake, "en").Classify(context.Background(), "text")
	var classErr *ClassificationError
	require.ErrorAs(t, err, &classErr)
	assert.Equal(t, 500, classErr.StatusCode)
	assert.Equal(t, "InternalServerException: something broke", classErr.Detail)
	assert.Contains(t, classErr.Error(), "500")
}

func TestClassifyTransportError(t *testing.T) {
	fake := &fakeComprehend{err: errors.New("dial tcp: timeout")}

	_, err := NewComprehendClassifierWithClient(fake, "en").Classify(context.Background(), "text")
	var classErr *ClassificationError
	require.ErrorAs(t, err, &classErr)
	assert.Equal(t, 0, classErr.StatusCode)
	assert.Equal(t, "dial tcp: timeout", classErr.Detail)
}

func TestClassifyEmptyOutput(t *testing.T) {
	fake := &fakeComprehend{out: &comprehend.DetectSentimentOutput{}}

	_, err := NewComprehendClassifierWithClient(fake, "en").Classify(context.Background(), "text")
	var classErr *ClassificationError
	assert.ErrorAs(t, err, &classErr)
}

func TestClassifyRejectsOutOfRangeScores(t *testing.T) {
	tests := []struct {
		name string
		out  *comprehend.DetectSentimentOutput
	}{
		{"above one", sentimentOutput("POSITIVE", 1.7, -0.5, 0.5, 0.3)},
		{"sum too small", sentimentOutput("POSITIVE", 0.5, 0.1, 0.1, 0.1)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeComprehend{out: tc.out}
			_, err := NewComprehendClassifierWithClient(fake, "en").Classify(context.Background(), "text")
			var classErr *ClassificationError
			require.ErrorAs(t, err, &classErr)
			assert.Contains(t, classErr.Detail, "scores out of range")
		})
	}
}

func TestExceedsTitleBudget(t *testing.T) {
	feedItem := func(title, description string) *model.Item {
		return &model.Item{Origin: model.OriginFeed, Title: title, Description: &description}
	}

	assert.False(t, ExceedsTitleBudget(feedItem("Title", "Body.")))
	assert.False(t, ExceedsTitleBudget(feedItem(strings.Repeat("t", 100), strings.Repeat("d", 200))))
	assert.True(t, ExceedsTitleBudget(feedItem(strings.Repeat("t", 100), strings.Repeat("d", 201))))
	assert.False(t, ExceedsTitleBudget(&model.Item{Origin: model.OriginSubreddit, Title: strings.Repeat("t", 400)}))
}

func TestPrimaryText(t *testing.T) {
	withDescription := func(title, description string) *model.Item {
		return &model.Item{Origin: model.OriginFeed, Title: title, Description: &description}
	}

	sub := &model.Item{Origin: model.OriginSubreddit, Title: "Sub title", Description: aws.String("ignored")}
	assert.Equal(t, "Sub title", PrimaryText(sub))

	assert.Equal(t, "Title. Body.", PrimaryText(withDescription("Title", "Body.")))
	assert.Equal(t, "Only title", PrimaryText(&model.Item{Origin: model.OriginFeed, Title: "Only title"}))

	// 5 + 2 + 291 = 298 still fits.
	fits := strings.Repeat("d", 291)
	assert.Equal(t, "Title. "+fits, PrimaryText(withDescription("Title", fits)))

	tooLong := strings.Repeat("d", 292)
	assert.Equal(t, tooLong, PrimaryText(withDescription("Title", tooLong)))

	huge := strings.Repeat("é", 400)
	assert.Equal(t, strings.Repeat("é", 300), PrimaryText(withDescription("Title", huge)))
}
