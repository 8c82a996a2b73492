// Package realign owns the active range selection and reconciles it with the
// timezone the server reports as authoritative.
package realign

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"github.com/j-veylop/usage-analytics-tui/internal/buckets"
	"github.com/j-veylop/usage-analytics-tui/internal/logger"
	"github.com/j-veylop/usage-analytics-tui/internal/models"
	"github.com/j-veylop/usage-analytics-tui/internal/ranges"
	"github.com/j-veylop/usage-analytics-tui/internal/selection"
	"github.com/j-veylop/usage-analytics-tui/internal/tzclock"
)

// State is the coordinator's position in the realignment cycle.
type State int

const (
	// Settled means the range's zone matches the last reported zone.
	Settled State = iota
	// Pending means a corrected fetch is outstanding after a mismatch.
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "settled"
}

// Action tells the caller what to do with a fetch outcome.
type Action int

const (
	ActionDiscard Action = iota
	ActionApply
	ActionRefetch
	ActionFailed
)

func (a Action) String() string {
	switch a {
	case ActionApply:
		return "apply"
	case ActionRefetch:
		return "refetch"
	case ActionFailed:
		return "failed"
	default:
		return "discard"
	}
}

// Ticket identifies one fetch and the selection that triggered it.
type Ticket struct {
	ID         uuid.UUID
	Generation uint64
	Range      models.CalendarRange
	Params     url.Values
}

// Decision is the outcome of a response or failure.
type Decision struct {
	Action  Action
	Range   models.CalendarRange
	Buckets []models.Bucket
	Stats   buckets.Stats
	Data    *models.UsageAnalytics
	// Next is set when Action is ActionRefetch.
	Next Ticket
	// From and To are set when the range was re-anchored to another zone.
	From, To string
	Err      error
}

// Realigned reports whether the decision moved the range to another zone.
func (d Decision) Realigned() bool {
	return d.From != "" && d.From != d.To
}

// Saver persists the active selection.
type Saver interface {
	Save(ctx context.Context, rng models.CalendarRange, tz string)
}

// Coordinator tracks the current selection. It is not safe for concurrent
// use; callers drive it from a single event loop.
type Coordinator struct {
	resolver *ranges.Resolver
	saver    Saver

	state         State
	generation    uint64
	current       models.CalendarRange
	authoritative string
	seen          map[string]bool
	realigned     bool
}

// New creates a coordinator starting from initial. saver may be nil.
func New(initial models.CalendarRange, resolver *ranges.Resolver, saver Saver) *Coordinator {
	if resolver == nil {
		resolver = ranges.NewResolver(nil)
	}
	return &Coordinator{
		resolver: resolver,
		saver:    saver,
		current:  initial,
		seen:     make(map[string]bool),
	}
}

// Current returns the active range.
func (c *Coordinator) Current() models.CalendarRange {
	return c.current
}

// State returns the realignment state.
func (c *Coordinator) State() State {
	return c.state
}

// Generation returns the generation of the newest ticket.
func (c *Coordinator) Generation() uint64 {
	return c.generation
}

// Authoritative returns the last zone reported by the server, or "".
func (c *Coordinator) Authoritative() string {
	return c.authoritative
}

// TimeZone returns the zone new selections are resolved in.
func (c *Coordinator) TimeZone() string {
	if c.authoritative != "" {
		return c.authoritative
	}
	return c.current.TimeZone
}

// Refresh issues a new ticket for the unchanged range.
func (c *Coordinator) Refresh() Ticket {
	return c.issue()
}

// Select replaces the range after a user action and resets the
// realignment allowance.
func (c *Coordinator) Select(ctx context.Context, rng models.CalendarRange) Ticket {
	c.current = rng
	c.realigned = false
	c.state = Settled
	c.persist(ctx)
	return c.issue()
}

// Restore replaces the range with one loaded from storage. Unlike Select it
// does not write the range back. The generation keeps counting, so tickets
// issued before the restore are discarded.
func (c *Coordinator) Restore(rng models.CalendarRange) Ticket {
	c.current = rng
	c.realigned = false
	c.state = Settled
	return c.issue()
}

// SelectPreset resolves preset in the current zone and selects it.
func (c *Coordinator) SelectPreset(ctx context.Context, preset models.PresetID) (Ticket, error) {
	rng, err := c.resolver.Resolve(preset, c.TimeZone())
	if err != nil {
		return Ticket{}, err
	}
	return c.Select(ctx, rng), nil
}

// SelectCustom selects the inclusive dates startDate..endDate in the current zone.
func (c *Coordinator) SelectCustom(ctx context.Context, startDate, endDate string) (Ticket, error) {
	rng, err := ranges.Custom(startDate, endDate, c.TimeZone())
	if err != nil {
		return Ticket{}, err
	}
	return c.Select(ctx, rng), nil
}

// HandleResponse decides what to do with data fetched for t. Stale tickets
// are discarded. A zone mismatch realigns the range and asks for one
// refetch; a further mismatch before the next user selection is accepted
// as authoritative without another fetch.
func (c *Coordinator) HandleResponse(ctx context.Context, t Ticket, resp *models.UsageAnalytics) Decision {
	if t.Generation != c.generation {
		return Decision{Action: ActionDiscard, Range: c.current}
	}
	if resp == nil {
		resp = &models.UsageAnalytics{}
	}

	from := c.current.TimeZone
	to := from
	if resp.TimeZone != "" {
		to = tzclock.Normalize(resp.TimeZone)
	}
	c.authoritative = to

	if to == from {
		c.state = Settled
		return c.apply(resp)
	}

	c.current = c.resolver.AlignRangeToTimeZone(c.current, from, to)
	c.persist(ctx)

	if !c.realigned && !c.seen[to] {
		c.realigned = true
		c.seen[to] = true
		c.state = Pending
		logger.Info("Realigning range to server timezone",
			"from", from,
			"to", to,
			"range", c.current.Preset,
		)
		return Decision{
			Action: ActionRefetch,
			Range:  c.current,
			Next:   c.issue(),
			From:   from,
			To:     to,
		}
	}

	logger.Warn("Server timezone changed again, accepting without refetch",
		"from", from,
		"to", to,
		"generation", c.generation,
	)
	c.state = Settled
	d := c.apply(resp)
	d.From, d.To = from, to
	return d
}

// HandleFailure decides what to do with a failed fetch for t. The current
// range is left as is.
func (c *Coordinator) HandleFailure(t Ticket, err error) Decision {
	if t.Generation != c.generation {
		return Decision{Action: ActionDiscard, Range: c.current}
	}
	c.state = Settled
	return Decision{Action: ActionFailed, Range: c.current, Err: err}
}

func (c *Coordinator) apply(resp *models.UsageAnalytics) Decision {
	set := buckets.BuildForRange(c.current)
	out, stats := buckets.Aggregate(set, resp.Series, c.current.TimeZone)
	return Decision{
		Action:  ActionApply,
		Range:   c.current,
		Buckets: out,
		Stats:   stats,
		Data:    resp,
	}
}

func (c *Coordinator) issue() Ticket {
	c.generation++
	return Ticket{
		ID:         uuid.New(),
		Generation: c.generation,
		Range:      c.current,
		Params:     ParamsFor(c.current),
	}
}

func (c *Coordinator) persist(ctx context.Context) {
	if c.saver != nil {
		c.saver.Save(ctx, c.current, c.current.TimeZone)
	}
}

// ParamsFor returns the query parameters sent when fetching rng.
func ParamsFor(rng models.CalendarRange) url.Values {
	return selection.ToQuery(selection.Serialize(rng, rng.TimeZone))
}
