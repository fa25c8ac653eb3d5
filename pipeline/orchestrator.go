package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/Luismorlan/goodnewsbot/classifier"
	"github.com/Luismorlan/goodnewsbot/collector"
	"github.com/Luismorlan/goodnewsbot/model"
	"github.com/Luismorlan/goodnewsbot/publisher"
	"github.com/Luismorlan/goodnewsbot/store"
	"github.com/Luismorlan/goodnewsbot/utils"
	Logger "github.com/Luismorlan/goodnewsbot/utils/log"
)

type State string

const (
	StateReading     State = "READING"
	StateIngesting   State = "INGESTING"
	StateClassifying State = "CLASSIFYING"
	StatePublishing  State = "PUBLISHING"
	StateDone        State = "DONE"
	StateFailed      State = "FAILED"
)

const DefaultPublishInterval = time.Second

// ErrNoRepostCategories aborts a run before anything is read.
var ErrNoRepostCategories = errors.New("no repost categories are configured")

type Publisher interface {
	Publish(ctx context.Context, item *model.Item, decision publisher.Decision, xpost *publisher.XpostContext) (model.RepostOutcome, error)
}

type Config struct {
	// Minimum spacing of two submissions, 0 means no spacing.
	PublishInterval time.Duration
	// Decide but never publish. Classifications and feed metadata are not
	// written either, so a later run still sees the items as pending.
	DryRun bool
}

// Pipeline runs ingest, classify, decide and publish once per Run, one
// source and one item at a time.
type Pipeline struct {
	store      *store.ItemStore
	subreddits collector.SubredditReader
	feeds      collector.FeedReader
	classifier classifier.Classifier
	publisher  Publisher
	config     Config

	state State
	now   func() time.Time
}

func NewPipeline(
	itemStore *store.ItemStore,
	subreddits collector.SubredditReader,
	feeds collector.FeedReader,
	sentimentClassifier classifier.Classifier,
	repostPublisher Publisher,
	config Config,
) *Pipeline {
	return &Pipeline{
		store:      itemStore,
		subreddits: subreddits,
		feeds:      feeds,
		classifier: sentimentClassifier,
		publisher:  repostPublisher,
		config:     config,
		now:        time.Now,
	}
}

func (p *Pipeline) State() State {
	return p.state
}

func (p *Pipeline) enter(state State) {
	if p.state != state {
		Logger.Log.Debugf("pipeline %s -> %s", p.state, state)
	}
	p.state = state
}

func (p *Pipeline) fail(source string, err error) {
	Logger.Log.Errorf("%s(%s): %v", StateFailed, source, err)
}

type classifiedItem struct {
	item   *model.Item
	result model.ClassificationResult
}

// Run does one full pass. Only configuration and storage failures return an
// error, a failing source or item is logged and skipped.
func (p *Pipeline) Run(ctx context.Context) (RunSummary, error) {
	summary := NewRunSummary(p.now())
	p.state = ""

	categories, err := p.store.RepostCategories(ctx)
	if err != nil {
		return summary, err
	}
	if len(categories) == 0 {
		return summary, ErrNoRepostCategories
	}

	known, err := p.store.KnownUrls(ctx)
	if err != nil {
		return summary, err
	}
	Logger.Log.Infof("starting run with %d known urls", known.Len())

	if err := p.ingestSubreddits(ctx, known, &summary); err != nil {
		return summary, err
	}
	if err := p.ingestFeeds(ctx, known, &summary); err != nil {
		return summary, err
	}

	classified, err := p.classifyPending(ctx, &summary)
	if err != nil {
		return summary, err
	}

	if err := p.publishAll(ctx, classified, categories, &summary); err != nil {
		return summary, err
	}

	p.enter(StateDone)
	summary.FinishedAt = p.now()
	return summary, nil
}

func (p *Pipeline) ingestSubreddits(ctx context.Context, known *store.KnownUrlSet, summary *RunSummary) error {
	sources, err := p.store.ActiveSubredditSources(ctx)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.Name)
	}
	if len(names) > 0 {
		Logger.Log.Infof("reading subreddits %s", utils.NaturalJoin(names, "and"))
	}

	for _, source := range sources {
		key := "r/" + source.Name
		p.enter(StateReading)
		candidates, err := p.subreddits.Read(ctx, source)
		if err != nil {
			p.fail(key, err)
			summary.IngestedBySource[key] = 0
			summary.FailedSources = append(summary.FailedSources, key)
			continue
		}

		p.enter(StateIngesting)
		created := p.store.IngestAll(ctx, candidates, known)
		summary.IngestedBySource[key] = created
		Logger.Log.Infof("%s: %d new items out of %d", key, created, len(candidates))
	}
	return nil
}

func (p *Pipeline) ingestFeeds(ctx context.Context, known *store.KnownUrlSet, summary *RunSummary) error {
	sources, err := p.store.ActiveFeedSources(ctx)
	if err != nil {
		return err
	}

	for _, source := range sources {
		key := source.Url
		p.enter(StateReading)
		candidates, err := p.feeds.Read(ctx, source)
		if err != nil {
			p.fail(key, err)
			summary.IngestedBySource[key] = 0
			summary.FailedSources = append(summary.FailedSources, key)
			continue
		}
		if !p.config.DryRun {
			if err := p.store.UpdateFeedMetadata(ctx, source); err != nil {
				Logger.Log.Warnf("%v", err)
			}
		}

		p.enter(StateIngesting)
		created := p.store.IngestAll(ctx, candidates, known)
		summary.IngestedBySource[key] = created
		Logger.Log.Infof("%s: %d new items out of %d", key, created, len(candidates))
	}
	return nil
}

func (p *Pipeline) classifyPending(ctx context.Context, summary *RunSummary) ([]classifiedItem, error) {
	p.enter(StateClassifying)
	pending, err := p.store.PendingItems(ctx)
	if err != nil {
		return nil, err
	}
	Logger.Log.Infof("classifying %d pending items", len(pending))

	classified := make([]classifiedItem, 0, len(pending))
	for _, item := range pending {
		result, err := p.classifier.Classify(ctx, classifier.PrimaryText(item))
		if err != nil {
			// Left pending, the next run tries again.
			Logger.Log.Errorf("fail to classify %s: %v", item.Url, err)
			summary.ClassificationFailed++
			continue
		}
		if p.config.DryRun {
			summary.Classified++
			classified = append(classified, classifiedItem{item: item, result: result})
			continue
		}
		if err := p.store.SaveClassification(ctx, item, model.NewSentimentClassification(result, p.now())); err != nil {
			Logger.Log.Errorf("%v", err)
			summary.ClassificationFailed++
			continue
		}
		summary.Classified++

		if classifier.ExceedsTitleBudget(item) {
			p.classifyFeedParts(ctx, item)
		}
		classified = append(classified, classifiedItem{item: item, result: result})
	}
	return classified, nil
}

// classifyFeedParts records the separate sentiment of title and description.
// Failures only cost the extra analysis.
func (p *Pipeline) classifyFeedParts(ctx context.Context, item *model.Item) {
	parts := []struct {
		part model.AnalysisPart
		text string
	}{
		{model.AnalysisPartTitle, item.Title},
		{model.AnalysisPartDescription, item.DescriptionText()},
	}
	for _, part := range parts {
		if part.text == "" {
			continue
		}
		result, err := p.classifier.Classify(ctx, part.text)
		if err != nil {
			Logger.Log.Warnf("fail to classify %s of %s: %v", part.part, item.Url, err)
			continue
		}
		if err := p.store.SaveAuxiliaryAnalysis(ctx, item, part.part, model.NewSentimentClassification(result, p.now())); err != nil {
			Logger.Log.Warnf("%v", err)
		}
	}
}

func (p *Pipeline) publishAll(ctx context.Context, classified []classifiedItem, categories []model.RepostCategory, summary *RunSummary) error {
	p.enter(StatePublishing)
	interval := p.config.PublishInterval
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	limiter := rate.NewLimiter(limit, 1)

	for _, c := range classified {
		decision := publisher.Decide(c.result, categories)
		Logger.Log.Infof("%s: %s", c.item.Url, decision)
		if decision.Action != publisher.ActionRepost {
			continue
		}
		if p.config.DryRun {
			summary.WouldRepost++
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return errors.Wrap(err, "publishing interrupted")
		}
		outcome, err := p.publisher.Publish(ctx, c.item, decision, publisher.XpostContextFor(c.item))
		if err != nil {
			Logger.Log.Errorf("fail to repost %s: %v", c.item.Url, err)
			summary.PublishFailed++
			continue
		}
		if err := p.store.SaveRepostOutcome(ctx, c.item, outcome); err != nil {
			Logger.Log.Errorf("reposted %s but fail to record it: %v", c.item.Url, err)
			summary.PublishFailed++
			continue
		}
		summary.Reposted++
	}
	return nil
}
