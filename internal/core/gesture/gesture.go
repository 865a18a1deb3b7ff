// Package gesture resolves a raw pointer stream (press, move*, release)
// on a graph node into exactly one of click, long-press, or drag-end.
package gesture

import (
	"sync"
	"time"
)

// Action is the semantic outcome reported when an interaction resolves.
type Action string

const (
	ActionNone      Action = "none"
	ActionClick     Action = "click"
	ActionLongPress Action = "longPress"
	ActionDragEnd   Action = "dragEnd"
)

const (
	// DefaultHoldDelay is how long a press must be held, without
	// crossing the movement threshold, to count as a long press.
	DefaultHoldDelay = 1000 * time.Millisecond
	// DefaultMoveThreshold is the negligible-movement radius in
	// simulation coordinates below which a press still counts as a tap.
	DefaultMoveThreshold = 5.0
)

// Timer is the cancellable handle behind the long-press delay.
// *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// TimerFactory schedules fn after d. Injectable so tests control time.
type TimerFactory func(d time.Duration, fn func()) Timer

func realTimer(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Callbacks are invoked as interactions resolve. Pin/Unpin bracket
// every interaction so the force simulation holds the node still while
// the pointer owns it. OnDrag reports pointer positions while dragging
// (including after a long press fired; the node stays draggable).
type Callbacks struct {
	OnClick     func(nodeID string)
	OnLongPress func(nodeID string)
	OnPin       func(nodeID string, x, y float64)
	OnUnpin     func(nodeID string)
	OnDrag      func(nodeID string, x, y float64)
}

type state int

const (
	statePressed state = iota
	stateDragging
	stateLongPressFired
)

type interaction struct {
	state          state
	startX, startY float64
	timer          Timer
}

// Disambiguator tracks one in-flight interaction per node. Interactions
// on different nodes are independent; a second press on a node that is
// already active is ignored.
type Disambiguator struct {
	mu     sync.Mutex
	active map[string]*interaction

	callbacks     Callbacks
	newTimer      TimerFactory
	holdDelay     time.Duration
	moveThreshold float64
}

// Option tweaks a Disambiguator at construction time.
type Option func(*Disambiguator)

func WithHoldDelay(d time.Duration) Option {
	return func(g *Disambiguator) { g.holdDelay = d }
}

func WithMoveThreshold(r float64) Option {
	return func(g *Disambiguator) { g.moveThreshold = r }
}

func WithTimerFactory(f TimerFactory) Option {
	return func(g *Disambiguator) { g.newTimer = f }
}

func New(cb Callbacks, opts ...Option) *Disambiguator {
	g := &Disambiguator{
		active:        make(map[string]*interaction),
		callbacks:     cb,
		newTimer:      realTimer,
		holdDelay:     DefaultHoldDelay,
		moveThreshold: DefaultMoveThreshold,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Press begins an interaction: the node is pinned at the pointer
// position and the long-press timer starts.
func (g *Disambiguator) Press(nodeID string, x, y float64) {
	g.mu.Lock()
	if _, busy := g.active[nodeID]; busy {
		g.mu.Unlock()
		return
	}
	in := &interaction{state: statePressed, startX: x, startY: y}
	g.active[nodeID] = in
	in.timer = g.newTimer(g.holdDelay, func() { g.fireLongPress(nodeID, in) })
	onPin := g.callbacks.OnPin
	g.mu.Unlock()

	if onPin != nil {
		onPin(nodeID, x, y)
	}
}

// Move feeds pointer motion. Crossing the movement threshold while
// pressed cancels the pending long press and starts a drag; once
// dragging (or after a long press fired) the node tracks the pointer.
func (g *Disambiguator) Move(nodeID string, x, y float64) {
	g.mu.Lock()
	in, ok := g.active[nodeID]
	if !ok {
		g.mu.Unlock()
		return
	}

	if in.state == statePressed {
		dx, dy := x-in.startX, y-in.startY
		if dx*dx+dy*dy <= g.moveThreshold*g.moveThreshold {
			g.mu.Unlock()
			return
		}
		in.timer.Stop()
		in.state = stateDragging
	}
	onDrag := g.callbacks.OnDrag
	g.mu.Unlock()

	if onDrag != nil {
		onDrag(nodeID, x, y)
	}
}

// Release ends the interaction, unpins the node, and returns the
// semantic action that resolved: click for a short still press, dragEnd
// after movement, none after a long press already fired.
func (g *Disambiguator) Release(nodeID string) Action {
	g.mu.Lock()
	in, ok := g.active[nodeID]
	if !ok {
		g.mu.Unlock()
		return ActionNone
	}
	delete(g.active, nodeID)
	in.timer.Stop()

	action := ActionNone
	switch in.state {
	case statePressed:
		action = ActionClick
	case stateDragging:
		action = ActionDragEnd
	case stateLongPressFired:
		// Long press already consumed this cycle; click is suppressed.
	}
	onClick := g.callbacks.OnClick
	onUnpin := g.callbacks.OnUnpin
	g.mu.Unlock()

	if onUnpin != nil {
		onUnpin(nodeID)
	}
	if action == ActionClick && onClick != nil {
		onClick(nodeID)
	}
	return action
}

// fireLongPress runs on the timer goroutine. A timer that lost the race
// against Release or a drag start finds the interaction gone or moved
// on and does nothing, so cancellation is deterministic even when
// Stop() returns false.
func (g *Disambiguator) fireLongPress(nodeID string, in *interaction) {
	g.mu.Lock()
	current, ok := g.active[nodeID]
	if !ok || current != in || in.state != statePressed {
		g.mu.Unlock()
		return
	}
	in.state = stateLongPressFired
	onLongPress := g.callbacks.OnLongPress
	g.mu.Unlock()

	if onLongPress != nil {
		onLongPress(nodeID)
	}
}
