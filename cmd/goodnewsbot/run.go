package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Luismorlan/goodnewsbot/classifier"
	"github.com/Luismorlan/goodnewsbot/collector"
	"github.com/Luismorlan/goodnewsbot/collector/clients"
	"github.com/Luismorlan/goodnewsbot/pipeline"
	"github.com/Luismorlan/goodnewsbot/publisher"
	"github.com/Luismorlan/goodnewsbot/reporter"
	"github.com/Luismorlan/goodnewsbot/store"
	"github.com/Luismorlan/goodnewsbot/utils"
	. "github.com/Luismorlan/goodnewsbot/utils/log"
)

const doneTimestampFormat = "2006-01-02 15:04:05.000000-07:00"

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, analyse and repost once",
	Long: `Reads every active subreddit and feed, stores the new items, classifies
every pending item and reposts the ones above their category cutoff.
Meant to be run hourly by cron.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "classify and decide but never submit")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	setting, err := loadAppSetting()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := utils.GetDBConnection()
	if err != nil {
		return err
	}
	itemStore := store.NewItemStore(db, setting.MAX_DESCRIPTION_LENGTH)

	reddit := clients.NewRedditClient(ctx, clients.RedditCredentials{
		ClientId:     os.Getenv("REDDIT_CLIENT_ID"),
		ClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
		Username:     os.Getenv("REDDIT_USERNAME"),
		Password:     os.Getenv("REDDIT_PASSWORD"),
	}, setting.USER_AGENT)

	sentiment, err := classifier.NewComprehendClassifier(os.Getenv("AWS_REGION"), setting.LANGUAGE_CODE)
	if err != nil {
		return err
	}

	p := pipeline.NewPipeline(
		itemStore,
		collector.NewSubredditReader(reddit),
		collector.NewFeedReader(clients.NewGofeedParser(setting.USER_AGENT)),
		sentiment,
		publisher.NewRedditPublisher(reddit),
		pipeline.Config{
			PublishInterval: setting.PublishInterval(),
			DryRun:          dryRun || setting.DRY_RUN,
		},
	)

	summary, err := p.Run(ctx)
	if err != nil {
		return err
	}

	for _, line := range summary.SourceLines() {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	Log.Info(summary.String())

	if reporters := buildReporters(); reporters.Len() > 0 {
		if err := reporters.Report(ctx, summary); err != nil {
			Log.Warn(err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "[%s] Done!\n", time.Now().Format(doneTimestampFormat))
	return nil
}

// buildReporters enables each reporter whose env var is set.
func buildReporters() *reporter.MultiReporter {
	var reporters []reporter.Reporter
	if addr := os.Getenv("STATSD_ADDR"); addr != "" {
		r, err := reporter.NewStatsdReporter(addr, "env:"+os.Getenv("GOODNEWSBOT_ENV"))
		if err != nil {
			Log.Warn(err)
		} else {
			reporters = append(reporters, r)
		}
	}
	if webhook := os.Getenv("SLACK_WEBHOOK_URL"); webhook != "" {
		reporters = append(reporters, reporter.NewSlackReporter(webhook))
	}
	return reporter.NewMultiReporter(reporters...)
}
