// Package gesture turns pointer events into snapped block mutations.
//
// A Controller runs at most one create, move or resize gesture at a time.
// Pointer positions are vertical offsets in the same units the Quantizer is
// scaled for (pixels on the web, rows in a terminal).
package gesture

import (
	"errors"

	"github.com/example/timeblocks/internal/block"
	"github.com/example/timeblocks/internal/timegrid"
)

var (
	// ErrGestureActive is returned when a gesture starts while another runs.
	ErrGestureActive = errors.New("gesture: another gesture is active")
	// ErrNoGesture is returned when a pointer-up arrives while idle.
	ErrNoGesture = errors.New("gesture: no active gesture")
)

// State is the controller state.
type State int

// Controller states. Exactly one is current at any time.
const (
	Idle State = iota
	Creating
	Moving
	Resizing
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Creating:
		return "creating"
	case Moving:
		return "moving"
	case Resizing:
		return "resizing"
	default:
		return "idle"
	}
}

// Target identifies the entry a move or resize acts on.
type Target struct {
	ID        string
	Source    block.SourceKind
	Recurring bool
	Start     block.Clock
	End       block.Clock
}

// TargetOf describes a user block.
func TargetOf(b block.Block) Target {
	return Target{ID: b.ID, Source: block.SourceBlock, Recurring: b.IsRecurring(), Start: b.Start, End: b.End}
}

// OverlayTarget describes an overlay. Overlays are never movable.
func OverlayTarget(o block.Overlay) Target {
	return Target{ID: o.ID, Source: o.Kind, Start: o.Start, End: o.End}
}

// Movable reports whether the target accepts move, resize and duplicate.
func (t Target) Movable() bool {
	if t.Recurring {
		return false
	}
	return t.Source == "" || t.Source == block.SourceBlock
}

// Preview is the live range to draw while a gesture runs.
type Preview struct {
	State    State
	TargetID string
	Start    block.Clock
	End      block.Clock
}

// ResultKind tells the caller what a committed gesture produced.
type ResultKind int

const (
	// ResultDraft is a new, unsaved block range from a create drag.
	ResultDraft ResultKind = iota
	// ResultMove is a rescheduled block.
	ResultMove
	// ResultResize is a block with a new end.
	ResultResize
)

// Result is a committed gesture. DeltaMinutes is the snapped pointer travel
// for move and resize.
type Result struct {
	Kind         ResultKind
	TargetID     string
	Start        block.Clock
	End          block.Clock
	DeltaMinutes int
}

// Controller is the gesture state machine. It is not safe for concurrent
// use; pointer events arrive on one goroutine.
type Controller struct {
	quantizer    timegrid.Quantizer
	containerTop float64

	state   State
	target  Target
	anchor  block.Clock
	originY float64
}

// NewController builds an idle controller for a grid whose top edge sits at
// containerTop.
func NewController(q timegrid.Quantizer, containerTop float64) *Controller {
	return &Controller{quantizer: q, containerTop: containerTop}
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Quantizer returns the grid scale in use.
func (c *Controller) Quantizer() timegrid.Quantizer { return c.quantizer }

// SetScale replaces the grid scale. Ignored while a gesture runs.
func (c *Controller) SetScale(q timegrid.Quantizer, containerTop float64) {
	if c.state != Idle {
		return
	}
	c.quantizer = q
	c.containerTop = containerTop
}

// BeginCreate starts a drag-to-create at pointer position y.
func (c *Controller) BeginCreate(y float64) error {
	if c.state != Idle {
		return ErrGestureActive
	}
	c.state = Creating
	c.target = Target{}
	c.anchor = c.quantizer.PixelsToClock(y, c.containerTop)
	c.originY = y
	return nil
}

// BeginMove starts dragging target from pointer position y.
func (c *Controller) BeginMove(target Target, y float64) error {
	return c.beginEdit(Moving, target, y)
}

// BeginResize starts dragging the bottom edge of target from y.
func (c *Controller) BeginResize(target Target, y float64) error {
	return c.beginEdit(Resizing, target, y)
}

func (c *Controller) beginEdit(state State, target Target, y float64) error {
	if c.state != Idle {
		return ErrGestureActive
	}
	if !target.Movable() {
		return ErrNotMovable
	}
	c.state = state
	c.target = target
	c.originY = y
	return nil
}

// PointerMove computes the live preview for pointer position y. The boolean
// is false while idle. Nothing outside the controller is touched.
func (c *Controller) PointerMove(y float64) (Preview, bool) {
	if c.state == Idle {
		return Preview{}, false
	}
	res := c.evaluate(y)
	return Preview{State: c.state, TargetID: res.TargetID, Start: res.Start, End: res.End}, true
}

// PointerUp commits the gesture at pointer position y and returns to Idle.
func (c *Controller) PointerUp(y float64) (Result, error) {
	if c.state == Idle {
		return Result{}, ErrNoGesture
	}
	res := c.evaluate(y)
	c.reset()
	return res, nil
}

// Cancel abandons the active gesture without a result. It reports whether a
// gesture was running.
func (c *Controller) Cancel() bool {
	if c.state == Idle {
		return false
	}
	c.reset()
	return true
}

func (c *Controller) reset() {
	c.state = Idle
	c.target = Target{}
	c.anchor = 0
	c.originY = 0
}

func (c *Controller) evaluate(y float64) Result {
	switch c.state {
	case Creating:
		current := c.quantizer.PixelsToClock(y, c.containerTop)
		start, end := NormalizeCreate(c.anchor, current)
		return Result{Kind: ResultDraft, Start: start, End: end}
	case Moving:
		delta := c.quantizer.SnapDelta(y - c.originY)
		start, end := ApplyMove(c.target.Start, c.target.End, delta)
		return Result{Kind: ResultMove, TargetID: c.target.ID, Start: start, End: end, DeltaMinutes: delta}
	case Resizing:
		delta := c.quantizer.SnapDelta(y - c.originY)
		end := ApplyResize(c.target.Start, c.target.End, delta)
		return Result{Kind: ResultResize, TargetID: c.target.ID, Start: c.target.Start, End: end, DeltaMinutes: delta}
	}
	return Result{}
}
