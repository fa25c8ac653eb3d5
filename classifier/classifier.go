package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/comprehend"
	"github.com/aws/aws-sdk-go/service/comprehend/comprehendiface"
	"github.com/pkg/errors"

	"github.com/Luismorlan/goodnewsbot/model"
	"github.com/Luismorlan/goodnewsbot/utils"
)

const (
	DefaultLanguageCode = "en"
	DefaultRegion       = "us-east-1"

	// Reddit caps link post titles at 300 chars, the combined text keeps two
	// chars of headroom.
	maxCombinedTextLength = 298
	maxPrimaryTextLength  = 300
)

type Classifier interface {
	Classify(ctx context.Context, text string) (model.ClassificationResult, error)
}

// ClassificationError is any failed call to the sentiment service. The item
// stays pending and is tried again on the next run.
type ClassificationError struct {
	// 0 when the request never got an http response.
	StatusCode int
	Detail     string
	Err        error
}

func (e *ClassificationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("sentiment request failed with status %d: %s", e.StatusCode, e.Detail)
	}
	return "sentiment request failed: " + e.Detail
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// ComprehendClassifier classifies text with AWS Comprehend DetectSentiment.
type ComprehendClassifier struct {
	client       comprehendiface.ComprehendAPI
	languageCode string
}

var _ Classifier = (*ComprehendClassifier)(nil)

func NewComprehendClassifier(region string, languageCode string) (*ComprehendClassifier, error) {
	if region == "" {
		region = DefaultRegion
	}
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, errors.Wrap(err, "fail to create aws session")
	}
	return NewComprehendClassifierWithClient(comprehend.New(sess), languageCode), nil
}

func NewComprehendClassifierWithClient(client comprehendiface.ComprehendAPI, languageCode string) *ComprehendClassifier {
	if languageCode == "" {
		languageCode = DefaultLanguageCode
	}
	return &ComprehendClassifier{client: client, languageCode: languageCode}
}

// Classify sends text as is. There is no retry.
func (c *ComprehendClassifier) Classify(ctx context.Context, text string) (model.ClassificationResult, error) {
	out, err := c.client.DetectSentimentWithContext(ctx, &comprehend.DetectSentimentInput{
		Text:         aws.String(text),
		LanguageCode: aws.String(c.languageCode),
	})
	if err != nil {
		return model.ClassificationResult{}, newClassificationError(err)
	}
	if out.Sentiment == nil || out.SentimentScore == nil {
		return model.ClassificationResult{}, &ClassificationError{
			Detail: "response carries no sentiment",
			Err:    errors.New("empty DetectSentiment output"),
		}
	}

	raw := aws.StringValue(out.Sentiment)
	result := model.ClassificationResult{
		RawLabel: raw,
		Scores: model.SentimentScores{
			Positive: aws.Float64Value(out.SentimentScore.Positive),
			Negative: aws.Float64Value(out.SentimentScore.Negative),
			Neutral:  aws.Float64Value(out.SentimentScore.Neutral),
			Mixed:    aws.Float64Value(out.SentimentScore.Mixed),
		},
	}
	if !result.Scores.Valid() {
		return model.ClassificationResult{}, &ClassificationError{
			Detail: fmt.Sprintf("scores out of range: %+v", result.Scores),
			Err:    errors.New("invalid DetectSentiment scores"),
		}
	}
	if label, err := model.ParseSentimentLabel(strings.ToUpper(raw)); err == nil {
		result.Label = label
	}
	return result, nil
}

func newClassificationError(err error) *ClassificationError {
	res := &ClassificationError{Detail: err.Error(), Err: err}
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) {
		res.StatusCode = reqErr.StatusCode()
		res.Detail = reqErr.Code() + ": " + reqErr.Message()
		return res
	}
	var awsErr awserr.Error
	if errors.As(err, &awsErr) {
		res.Detail = awsErr.Code() + ": " + awsErr.Message()
	}
	return res
}

// ExceedsTitleBudget reports whether a feed item's title and description
// together are longer than a reddit title. Only those get their parts
// classified on their own.
func ExceedsTitleBudget(item *model.Item) bool {
	if !item.IsFeedItem() {
		return false
	}
	return utils.RuneLength(item.Title)+utils.RuneLength(item.DescriptionText()) > maxPrimaryTextLength
}

// PrimaryText is the text whose sentiment decides whether item is reposted.
// For feed items it is also the title the repost is submitted with.
func PrimaryText(item *model.Item) string {
	if !item.IsFeedItem() {
		return item.Title
	}
	description := item.DescriptionText()
	if description == "" {
		return item.Title
	}
	combined := item.Title + ". " + description
	if utils.RuneLength(combined) <= maxCombinedTextLength {
		return combined
	}
	return utils.TruncateRunes(description, maxPrimaryTextLength)
}
