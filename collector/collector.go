package collector

import (
	"context"
	"fmt"

	"github.com/Luismorlan/goodnewsbot/model"
)

type SubredditReader interface {
	Read(ctx context.Context, source model.SubredditSource) ([]model.CandidateItem, error)
}

// FeedReader may refresh the title and description of the source it reads.
type FeedReader interface {
	Read(ctx context.Context, source *model.FeedSource) ([]model.CandidateItem, error)
}

// SourceReadError means nothing could be read from a source in this run. The
// run goes on with an empty yield for that source.
type SourceReadError struct {
	Source string
	Err    error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("fail to read source %s: %v", e.Source, e.Err)
}

func (e *SourceReadError) Unwrap() error {
	return e.Err
}
