// Package sinks holds the delivery destinations for normalized tenders.
package sinks

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/tenderbridge/tender-ingest/internal/ingest"
	"github.com/tenderbridge/tender-ingest/internal/models"
)

// InlineName is the name of the response body sink
const InlineName = "inline"

var (
	_ ingest.DeliverySink = (*InlineSink)(nil)
	_ ingest.GroupLimiter = (*InlineSink)(nil)
)

// InlineSink collects tenders so they can be returned in the response body.
// It takes everything in a single group.
type InlineSink struct {
	mu     sync.Mutex
	groups []ingest.Group
}

// NewInlineSink creates an empty inline sink
func NewInlineSink() *InlineSink {
	return &InlineSink{}
}

// Name implements ingest.DeliverySink
func (s *InlineSink) Name() string {
	return InlineName
}

// GroupLimit implements ingest.GroupLimiter; zero means unbounded
func (s *InlineSink) GroupLimit() int {
	return 0
}

// Deliver records the group
func (s *InlineSink) Deliver(ctx context.Context, group ingest.Group) (ingest.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return ingest.Outcome{}, err
	}

	s.mu.Lock()
	s.groups = append(s.groups, group)
	s.mu.Unlock()

	return ingest.Outcome{Succeeded: len(group.Tenders)}, nil
}

// Tenders returns the delivered tenders in group order
func (s *InlineSink) Tenders() []models.Tender {
	s.mu.Lock()
	groups := make([]ingest.Group, len(s.groups))
	copy(groups, s.groups)
	s.mu.Unlock()

	sort.Slice(groups, func(i, j int) bool { return groups[i].Index < groups[j].Index })

	tenders := []models.Tender{}
	for _, group := range groups {
		tenders = append(tenders, group.Tenders...)
	}
	return tenders
}

// Body serializes the delivered tenders as an indented JSON array
func (s *InlineSink) Body() (json.RawMessage, error) {
	return json.MarshalIndent(s.Tenders(), "", "  ")
}
