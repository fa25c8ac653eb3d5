package reporter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/pkg/errors"
	"github.com/slack-go/slack"

	"github.com/Luismorlan/goodnewsbot/pipeline"
	Logger "github.com/Luismorlan/goodnewsbot/utils/log"
)

const (
	metricPrefix = "goodnewsbot."

	DDOG_INGESTED_COUNTER              = metricPrefix + "ingested"
	DDOG_CLASSIFIED_COUNTER            = metricPrefix + "classified"
	DDOG_CLASSIFICATION_FAILED_COUNTER = metricPrefix + "classification_failed"
	DDOG_REPOSTED_COUNTER              = metricPrefix + "reposted"
	DDOG_PUBLISH_FAILED_COUNTER        = metricPrefix + "publish_failed"
	DDOG_FAILED_SOURCE_COUNTER         = metricPrefix + "failed_source"
	DDOG_RUN_DURATION_GAUGE            = metricPrefix + "run_duration_seconds"
)

// Reporter publishes the summary of a finished run. Errors never fail a run.
type Reporter interface {
	Report(ctx context.Context, summary pipeline.RunSummary) error
}

// StatsdClient is the part of *statsd.Client the reporter uses.
type StatsdClient interface {
	Count(name string, value int64, tags []string, rate float64) error
	Gauge(name string, value float64, tags []string, rate float64) error
	Flush() error
}

var _ StatsdClient = (*statsd.Client)(nil)

type StatsdReporter struct {
	client StatsdClient
	tags   []string
}

// NewStatsdReporter connects to a dogstatsd agent at addr, e.g. "127.0.0.1:8125".
func NewStatsdReporter(addr string, tags ...string) (*StatsdReporter, error) {
	client, err := statsd.New(addr)
	if err != nil {
		return nil, errors.Wrap(err, "fail to create statsd client for "+addr)
	}
	return NewStatsdReporterWithClient(client, tags...), nil
}

func NewStatsdReporterWithClient(client StatsdClient, tags ...string) *StatsdReporter {
	return &StatsdReporter{client: client, tags: tags}
}

func (r *StatsdReporter) Report(ctx context.Context, summary pipeline.RunSummary) error {
	var errs []string
	record := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	for source, n := range summary.IngestedBySource {
		record(r.client.Count(DDOG_INGESTED_COUNTER, int64(n), r.withTags("source:"+source), 1))
	}
	for _, source := range summary.FailedSources {
		record(r.client.Count(DDOG_FAILED_SOURCE_COUNTER, 1, r.withTags("source:"+source), 1))
	}
	record(r.client.Count(DDOG_CLASSIFIED_COUNTER, int64(summary.Classified), r.tags, 1))
	record(r.client.Count(DDOG_CLASSIFICATION_FAILED_COUNTER, int64(summary.ClassificationFailed), r.tags, 1))
	record(r.client.Count(DDOG_REPOSTED_COUNTER, int64(summary.Reposted), r.tags, 1))
	record(r.client.Count(DDOG_PUBLISH_FAILED_COUNTER, int64(summary.PublishFailed), r.tags, 1))
	record(r.client.Gauge(DDOG_RUN_DURATION_GAUGE, summary.Duration().Seconds(), r.tags, 1))
	record(r.client.Flush())

	if len(errs) > 0 {
		return errors.New("fail to report run to statsd: " + strings.Join(errs, "; "))
	}
	return nil
}

func (r *StatsdReporter) withTags(tags ...string) []string {
	return append(append([]string{}, r.tags...), tags...)
}

type WebhookPoster func(ctx context.Context, url string, msg *slack.WebhookMessage) error

// SlackReporter posts one message per run to a Slack incoming webhook.
type SlackReporter struct {
	webhookUrl string
	post       WebhookPoster
}

func NewSlackReporter(webhookUrl string) *SlackReporter {
	return &SlackReporter{webhookUrl: webhookUrl, post: slack.PostWebhookContext}
}

func (r *SlackReporter) Report(ctx context.Context, summary pipeline.RunSummary) error {
	msg := &slack.WebhookMessage{Text: FormatSlackSummary(summary)}
	return errors.Wrap(r.post(ctx, r.webhookUrl, msg), "fail to post run summary to slack")
}

func FormatSlackSummary(summary pipeline.RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*goodnewsbot run finished* in %s\n", summary.Duration().Round(time.Millisecond))
	for _, line := range summary.SourceLines() {
		b.WriteString("• " + line + "\n")
	}
	fmt.Fprintf(&b, "classified %d (%d failed), reposted %d (%d failed)",
		summary.Classified, summary.ClassificationFailed, summary.Reposted, summary.PublishFailed)
	if len(summary.FailedSources) > 0 {
		fmt.Fprintf(&b, "\nunreadable sources: %s", strings.Join(summary.FailedSources, ", "))
	}
	return b.String()
}

// MultiReporter reports to every reporter and logs the ones that fail.
type MultiReporter struct {
	reporters []Reporter
}

func NewMultiReporter(reporters ...Reporter) *MultiReporter {
	return &MultiReporter{reporters: reporters}
}

func (m *MultiReporter) Len() int {
	return len(m.reporters)
}

func (m *MultiReporter) Report(ctx context.Context, summary pipeline.RunSummary) error {
	failed := 0
	for _, r := range m.reporters {
		if err := r.Report(ctx, summary); err != nil {
			Logger.Log.Errorf("%v", err)
			failed++
		}
	}
	if failed > 0 {
		return errors.Errorf("%d of %d reporters failed", failed, len(m.reporters))
	}
	return nil
}
