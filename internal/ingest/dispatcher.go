package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/tenderbridge/tender-ingest/internal/models"
)

// DefaultGroupSize matches the batch limit of the queue transport
const DefaultGroupSize = 10

// Group is a contiguous run of tenders delivered together
type Group struct {
	Index   int
	Tenders []models.Tender
}

// Outcome is what a sink reports for one group
type Outcome struct {
	Succeeded int
}

// DeliverySink receives groups of normalized tenders
type DeliverySink interface {
	Name() string
	Deliver(ctx context.Context, group Group) (Outcome, error)
}

// GroupLimiter is implemented by sinks that bound the size of a group.
// A limit of zero means the sink takes everything in one group.
type GroupLimiter interface {
	GroupLimit() int
}

// DispatchReport summarizes one dispatch run
type DispatchReport struct {
	Delivered   int
	Groups      []models.GroupOutcome
	Diagnostics []models.Diagnostic
}

// Option configures a Dispatcher
type Option func(*options)

// WithGroupSize sets the maximum number of tenders per group
func WithGroupSize(size int) Option {
	return func(o *options) {
		o.GroupSize = size
	}
}

// WithConcurrency sets how many groups may be in flight at once
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.Concurrency = n
	}
}

type options struct {
	GroupSize   int
	Concurrency int
}

// Dispatcher splits tenders into groups and hands each group to a sink
type Dispatcher struct {
	options     options
	diagnostics DiagnosticSink
}

// NewDispatcher creates a dispatcher. Delivery failures are reported in the
// returned DispatchReport and forwarded to diagnostics.
func NewDispatcher(diagnostics DiagnosticSink, opts ...Option) *Dispatcher {
	option := options{
		GroupSize:   DefaultGroupSize,
		Concurrency: 1,
	}
	for _, opt := range opts {
		opt(&option)
	}
	if option.GroupSize <= 0 {
		option.GroupSize = DefaultGroupSize
	}
	if option.Concurrency <= 0 {
		option.Concurrency = 1
	}

	return &Dispatcher{
		options:     option,
		diagnostics: orDiscard(diagnostics),
	}
}

// GroupSize returns the group size used for sink
func (d *Dispatcher) GroupSize(sink DeliverySink) int {
	size := d.options.GroupSize
	if limiter, ok := sink.(GroupLimiter); ok {
		limit := limiter.GroupLimit()
		switch {
		case limit == 0:
			return 0
		case limit > 0 && limit < size:
			size = limit
		}
	}
	return size
}

// Partition splits tenders into contiguous groups of at most size elements.
// A size of zero or less yields a single group.
func Partition(tenders []models.Tender, size int) []Group {
	if len(tenders) == 0 {
		return []Group{}
	}
	if size <= 0 || size >= len(tenders) {
		return []Group{{Index: 0, Tenders: tenders}}
	}

	groups := make([]Group, 0, (len(tenders)+size-1)/size)
	for start := 0; start < len(tenders); start += size {
		end := min(start+size, len(tenders))
		groups = append(groups, Group{Index: len(groups), Tenders: tenders[start:end:end]})
	}
	return groups
}

// Dispatch delivers tenders to sink group by group. A failing group counts as
// zero delivered and never stops the remaining groups.
func (d *Dispatcher) Dispatch(ctx context.Context, tenders []models.Tender, sink DeliverySink) DispatchReport {
	groups := Partition(tenders, d.GroupSize(sink))
	outcomes := make([]models.GroupOutcome, len(groups))

	if d.options.Concurrency == 1 || len(groups) < 2 {
		for i, group := range groups {
			outcomes[i] = d.deliver(ctx, sink, group)
		}
	} else {
		var wg sync.WaitGroup
		semaphore := make(chan struct{}, d.options.Concurrency)

		for i, group := range groups {
			wg.Add(1)
			go func(i int, group Group) {
				defer wg.Done()

				semaphore <- struct{}{}
				defer func() { <-semaphore }()

				outcomes[i] = d.deliver(ctx, sink, group)
			}(i, group)
		}

		wg.Wait()
	}

	report := DispatchReport{
		Groups:      outcomes,
		Diagnostics: []models.Diagnostic{},
	}
	for i, outcome := range outcomes {
		report.Delivered += outcome.Delivered
		if outcome.Error == "" {
			continue
		}

		index := i
		diagnostic := models.Diagnostic{
			Kind:   models.DiagnosticDelivery,
			ID:     groupLabel(groups[i]),
			Group:  &index,
			Reason: outcome.Error,
		}
		report.Diagnostics = append(report.Diagnostics, diagnostic)
		d.diagnostics.Emit(diagnostic)
	}

	return report
}

func (d *Dispatcher) deliver(ctx context.Context, sink DeliverySink, group Group) models.GroupOutcome {
	outcome := models.GroupOutcome{Index: group.Index, Size: len(group.Tenders)}

	if err := ctx.Err(); err != nil {
		outcome.Error = (&DeliveryError{Group: group.Index, Sink: sink.Name(), Err: err}).Error()
		return outcome
	}

	result, err := safeDeliver(ctx, sink, group)
	if err != nil {
		outcome.Error = (&DeliveryError{Group: group.Index, Sink: sink.Name(), Err: err}).Error()
		return outcome
	}

	outcome.Delivered = min(max(result.Succeeded, 0), outcome.Size)
	if outcome.Delivered < outcome.Size {
		err := fmt.Errorf("%w: %d of %d", ErrPartialDelivery, outcome.Delivered, outcome.Size)
		outcome.Error = (&DeliveryError{Group: group.Index, Sink: sink.Name(), Err: err}).Error()
	}
	return outcome
}

func safeDeliver(ctx context.Context, sink DeliverySink, group Group) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{}
			err = fmt.Errorf("%w: %v", ErrDeliveryPanic, r)
		}
	}()

	return sink.Deliver(ctx, group)
}

// groupLabel names a group by the tender numbers at its edges
func groupLabel(group Group) string {
	if len(group.Tenders) == 0 {
		return fmt.Sprintf("group-%d", group.Index)
	}
	first := group.Tenders[0].TenderNumber
	last := group.Tenders[len(group.Tenders)-1].TenderNumber
	if first == last {
		return first
	}
	return first + ".." + last
}
