// Package collection implements the time-and-count windowed buffer that
// defers proposal/agreement commit decisions until a collect period
// elapses or enough candidates have arrived, then selects the
// top-scoring ones and emits accept/reject feedback actions.
//
// A Collection is owned exclusively by the engine goroutine that drives
// it: NewScored, Decide and SetGoal must only ever be called from that
// one goroutine. The background timer only ever sends on the feedback
// channel, so no locking is required.
package collection

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/negotiator/engine/internal/core"
	"github.com/negotiator/engine/internal/negotiation"
)

// Type distinguishes the two collection instances an engine runs.
type Type int

const (
	Proposal Type = iota
	Agreement
)

func (t Type) String() string {
	if t == Agreement {
		return "Agreement"
	}
	return "Proposal"
}

// DecideReason records why a Decide action fired.
type DecideReason int

const (
	GoalReached DecideReason = iota
	TimeElapsed
)

// Entry is one scored candidate held in a collection buffer.
type Entry struct {
	Their negotiation.ProposalView
	Our   negotiation.ProposalView
	Score float64
}

// ActionKind discriminates the feedback actions a collection produces.
type ActionKind int

const (
	ActionDecide ActionKind = iota
	ActionAccept
	ActionReject
)

// Action is one feedback event, consumed by the engine's feedback loop.
type Action struct {
	Kind       ActionKind
	Collection Type
	Id         core.ProposalId
	Reason     negotiation.Reason
	Final      bool
	Why        DecideReason
}

// busyReason is sent with every non-final reject drained by Decide.
var busyReason = negotiation.NewReason("Node is busy.")

// Collection is a sorted window of scored candidates plus the timer that
// periodically forces a decision.
type Collection struct {
	collectionType Type
	awaiting       []Entry
	rejected       []Entry
	goal           negotiation.Goal
	collectPeriod  time.Duration
	collectAmount  int
	timer          *time.Timer
	feedback       chan Action
}

// New returns a collection with its first collect timer already armed.
func New(collectionType Type, collectPeriod time.Duration, collectAmount int, goal negotiation.Goal) *Collection {
	c := &Collection{
		collectionType: collectionType,
		goal:           goal,
		collectPeriod:  collectPeriod,
		collectAmount:  collectAmount,
		feedback:       make(chan Action, 64),
	}
	c.rescheduleTimer()
	return c
}

// Feedback returns the channel the engine should merge into its
// feedback loop.
func (c *Collection) Feedback() <-chan Action {
	return c.feedback
}

// Close stops the pending collect timer. Safe to call from tests or
// shutdown paths that no longer want to drive decisions.
func (c *Collection) Close() {
	if c.timer != nil {
		c.timer.Stop()
	}
}

// rescheduleTimer cancels any pending timer and arms a fresh one; at
// most one timer is ever outstanding per collection.
func (c *Collection) rescheduleTimer() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.collectPeriod, func() {
		c.feedback <- Action{Kind: ActionDecide, Collection: c.collectionType, Why: TimeElapsed}
	})
}

func insertSorted(entries []Entry, e Entry) []Entry {
	idx := sort.Search(len(entries), func(i int) bool { return entries[i].Score < e.Score })
	entries = append(entries, Entry{})
	copy(entries[idx+1:], entries[idx:])
	entries[idx] = e
	return entries
}

// NewScored inserts a freshly scored candidate, preserving descending
// order (ties are placed after existing equals, so the incumbent keeps
// priority). It refuses entries with a non-finite score. Reaching
// collectAmount forces an immediate decide via the feedback channel.
func (c *Collection) NewScored(e Entry) error {
	if !isFinite(e.Score) {
		return fmt.Errorf("proposal [%s]: %w", e.Their.Id, core.ErrScoreNotFinite)
	}

	c.awaiting = insertSorted(c.awaiting, e)

	if c.collectAmount > 0 && len(c.awaiting) >= c.collectAmount {
		c.feedback <- Action{Kind: ActionDecide, Collection: c.collectionType, Why: GoalReached}
	}
	return nil
}

// addRejected moves a drained, still-plausible-later candidate into the
// deferred pool, keeping it sorted. Entries with a non-finite score are
// silently dropped, matching the upstream "proposals with wrong score
// won't be added" behavior.
func (c *Collection) addRejected(e Entry) {
	if !isFinite(e.Score) {
		return
	}
	c.rejected = insertSorted(c.rejected, e)
}

// SetGoal merges a goal update using Goal.Add's combination rule.
func (c *Collection) SetGoal(update negotiation.Goal) {
	c.goal = c.goal.Add(update)
}

// Decide drains the top-scoring entries as accepts up to the current
// goal size and the remainder as non-final rejects, emitting one Action
// per drained entry, moves the rejects into the deferred pool, shrinks
// a Limit goal by the number accepted (a Batch goal is left unchanged),
// and always restarts the collect timer.
func (c *Collection) Decide() {
	if len(c.awaiting) == 0 && len(c.rejected) > 0 {
		c.awaiting, c.rejected = c.rejected, nil
	}

	k := c.goal.Size()
	if k > len(c.awaiting) {
		k = len(c.awaiting)
	}
	if k < 0 {
		k = 0
	}

	accepted := c.awaiting[:k]
	rejectedNow := c.awaiting[k:]
	c.awaiting = nil

	for _, e := range accepted {
		c.feedback <- Action{Kind: ActionAccept, Collection: c.collectionType, Id: e.Their.Id}
	}

	for _, e := range rejectedNow {
		c.feedback <- Action{
			Kind:       ActionReject,
			Collection: c.collectionType,
			Id:         e.Their.Id,
			Reason:     busyReason,
			Final:      false,
		}
		c.addRejected(e)
	}

	c.goal = c.goal.Consumed(len(accepted))
	c.rescheduleTimer()
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
