package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// RunSummary counts what one run did.
type RunSummary struct {
	// Keyed by "r/<name>" for subreddits and by url for feeds. Sources that
	// failed to read are present with 0.
	IngestedBySource     map[string]int
	FailedSources        []string
	Classified           int
	ClassificationFailed int
	Reposted             int
	PublishFailed        int
	// Reposts skipped because the run was a dry run.
	WouldRepost int
	StartedAt   time.Time
	FinishedAt  time.Time
}

func NewRunSummary(startedAt time.Time) RunSummary {
	return RunSummary{IngestedBySource: map[string]int{}, StartedAt: startedAt}
}

func (s RunSummary) TotalIngested() int {
	total := 0
	for _, n := range s.IngestedBySource {
		total += n
	}
	return total
}

func (s RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// SourceLines renders one "source: N new items" line per source, sorted.
func (s RunSummary) SourceLines() []string {
	sources := make([]string, 0, len(s.IngestedBySource))
	for source := range s.IngestedBySource {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	lines := make([]string, 0, len(sources))
	for _, source := range sources {
		lines = append(lines, fmt.Sprintf("%s: %d new items", source, s.IngestedBySource[source]))
	}
	return lines
}

func (s RunSummary) String() string {
	var b strings.Builder
	for _, line := range s.SourceLines() {
		b.WriteString(line)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "ingested %d, classified %d (%d failed), reposted %d (%d failed)",
		s.TotalIngested(), s.Classified, s.ClassificationFailed, s.Reposted, s.PublishFailed)
	if s.WouldRepost > 0 {
		fmt.Fprintf(&b, ", %d skipped by dry run", s.WouldRepost)
	}
	return b.String()
}
