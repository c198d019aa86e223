package milestone

import "github.com/sagekernel/sagekernel/internal/domain"

// Period wraps a domain.TimePeriod with the network it is built on,
// enforcing the per-AdjustmentMode setter table from Component Design
// §4.4. Start and end are backed by real milestones so any other
// relationship installed on them elsewhere in the network is still
// reconciled via Network.MoveTo; duration in AdjNone mode is a free field
// with no milestone backing of its own.
type Period struct {
	net              *Network
	rec              domain.TimePeriod
	explicitDuration domain.Instant
}

// NewPeriod creates the two backing milestones and returns a period in adj
// mode, with the given initial start/end.
func NewPeriod(net *Network, name string, start, end domain.Instant, adj domain.AdjustmentMode) *Period {
	startID := net.AddMilestone(name+".start", start)
	endID := net.AddMilestone(name+".end", end)
	return &Period{
		net: net,
		rec: domain.TimePeriod{
			Start:       startID,
			End:         endID,
			HasDuration: true,
			Adj:         adj,
		},
		explicitDuration: end - start,
	}
}

func (p *Period) Start() domain.Instant {
	m, _ := p.net.Milestone(p.rec.Start)
	return m.Instant
}

func (p *Period) End() domain.Instant {
	m, _ := p.net.Milestone(p.rec.End)
	return m.Instant
}

// Duration returns end-start, except in AdjNone where duration is a
// free-standing field independent of the two milestones.
func (p *Period) Duration() domain.Instant {
	if p.rec.Adj == domain.AdjNone {
		return p.explicitDuration
	}
	return p.End() - p.Start()
}

func (p *Period) moveStart(t domain.Instant) error {
	if err := p.net.MoveTo(p.rec.Start, t); err != nil {
		return err
	}
	return nil
}

func (p *Period) moveEnd(t domain.Instant) error {
	if err := p.net.MoveTo(p.rec.End, t); err != nil {
		return err
	}
	return nil
}

// SetStart assigns the period's start, with the end and/or duration
// reacting per the period's adjustment mode.
func (p *Period) SetStart(t domain.Instant) error {
	switch p.rec.Adj {
	case domain.AdjNone:
		return p.moveStart(t)
	case domain.AdjFixedStart, domain.AdjFixedDuration, domain.AdjInferEnd:
		dur := p.Duration()
		if err := p.moveStart(t); err != nil {
			return err
		}
		return p.moveEnd(t.Add(dur))
	case domain.AdjFixedEnd, domain.AdjInferDuration:
		return p.moveStart(t)
	case domain.AdjInferStart, domain.AdjLocked:
		return domain.ErrTimePeriodAdjustment
	default:
		return domain.ErrTimePeriodAdjustment
	}
}

// SetEnd assigns the period's end, with start and/or duration reacting.
func (p *Period) SetEnd(t domain.Instant) error {
	switch p.rec.Adj {
	case domain.AdjNone:
		return p.moveEnd(t)
	case domain.AdjFixedStart, domain.AdjInferDuration:
		return p.moveEnd(t)
	case domain.AdjFixedDuration, domain.AdjFixedEnd:
		dur := p.Duration()
		if err := p.moveEnd(t); err != nil {
			return err
		}
		return p.moveStart(t.Add(-dur))
	case domain.AdjInferStart:
		dur := p.Duration()
		if err := p.moveEnd(t); err != nil {
			return err
		}
		return p.moveStart(t.Add(-dur))
	case domain.AdjInferEnd, domain.AdjLocked:
		return domain.ErrTimePeriodAdjustment
	default:
		return domain.ErrTimePeriodAdjustment
	}
}

// SetDuration assigns the period's duration, with start and/or end
// reacting. Illegal under FixedDuration and InferDuration (those modes
// derive duration rather than accept it) and under Locked.
func (p *Period) SetDuration(d domain.Instant) error {
	switch p.rec.Adj {
	case domain.AdjNone:
		p.explicitDuration = d
		return nil
	case domain.AdjFixedStart, domain.AdjInferEnd:
		start := p.Start()
		return p.moveEnd(start.Add(d))
	case domain.AdjFixedEnd, domain.AdjInferStart:
		end := p.End()
		return p.moveStart(end.Add(-d))
	case domain.AdjFixedDuration, domain.AdjInferDuration, domain.AdjLocked:
		return domain.ErrTimePeriodAdjustment
	default:
		return domain.ErrTimePeriodAdjustment
	}
}

// PushAdjustmentMode swaps in a new mode, remembering the old one.
func (p *Period) PushAdjustmentMode(m domain.AdjustmentMode) {
	p.rec.AdjStack = append(p.rec.AdjStack, p.rec.Adj)
	p.rec.Adj = m
}

// PopAdjustmentMode restores the mode active before the last Push. A no-op
// if the stack is empty.
func (p *Period) PopAdjustmentMode() {
	n := len(p.rec.AdjStack)
	if n == 0 {
		return
	}
	p.rec.Adj = p.rec.AdjStack[n-1]
	p.rec.AdjStack = p.rec.AdjStack[:n-1]
}

// Mode returns the period's current adjustment mode.
func (p *Period) Mode() domain.AdjustmentMode { return p.rec.Adj }

// Envelope aggregates the min-start and max-end of a set of child periods,
// auto-updating (it is computed fresh on every read, never cached) per
// Component Design §4.4's read-only aggregate contract.
type Envelope struct {
	Children []*Period
}

// Bounds returns the envelope's current start and end.
func (e *Envelope) Bounds() (start, end domain.Instant, ok bool) {
	if len(e.Children) == 0 {
		return 0, 0, false
	}
	start = e.Children[0].Start()
	end = e.Children[0].End()
	for _, c := range e.Children[1:] {
		if s := c.Start(); s < start {
			start = s
		}
		if en := c.End(); en > end {
			end = en
		}
	}
	return start, end, true
}
