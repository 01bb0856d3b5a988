package collection

import (
	"math"
	"testing"
	"time"

	"github.com/negotiator/engine/internal/core"
	"github.com/negotiator/engine/internal/negotiation"
)

func entryWithScore(id string, score float64) Entry {
	return Entry{
		Their: negotiation.ProposalView{Id: core.ProposalId(id)},
		Score: score,
	}
}

func TestNewScoredRejectsNaN(t *testing.T) {
	c := New(Proposal, time.Hour, 0, negotiation.Limit(1))
	defer c.timer.Stop()

	if err := c.NewScored(entryWithScore("p-1", math.NaN())); err == nil {
		t.Fatal("expected error for NaN score")
	}
}

func TestAwaitingStaysSortedDescending(t *testing.T) {
	c := New(Proposal, time.Hour, 0, negotiation.Limit(3))
	defer c.timer.Stop()

	scores := []float64{0.2, 0.9, 0.5, 0.9, 0.1}
	for i, s := range scores {
		if err := c.NewScored(entryWithScore(string(rune('a'+i)), s)); err != nil {
			t.Fatalf("NewScored: %v", err)
		}
	}

	for i := 1; i < len(c.awaiting); i++ {
		if c.awaiting[i-1].Score < c.awaiting[i].Score {
			t.Fatalf("awaiting not sorted descending: %+v", c.awaiting)
		}
	}
	// Ties: first-inserted equal score ("b"=0.9) must precede the later one ("d"=0.9).
	if c.awaiting[0].Their.Id != core.ProposalId("b") || c.awaiting[1].Their.Id != core.ProposalId("d") {
		t.Errorf("tie order = %v, want b before d", c.awaiting)
	}
}

func TestGoalReachedTriggersImmediateDecide(t *testing.T) {
	c := New(Proposal, time.Hour, 2, negotiation.Limit(1))
	defer c.timer.Stop()

	if err := c.NewScored(entryWithScore("p-1", 0.5)); err != nil {
		t.Fatalf("NewScored: %v", err)
	}
	select {
	case <-c.Feedback():
		t.Fatal("decide fired before collectAmount reached")
	default:
	}

	if err := c.NewScored(entryWithScore("p-2", 0.9)); err != nil {
		t.Fatalf("NewScored: %v", err)
	}
	select {
	case action := <-c.Feedback():
		if action.Kind != ActionDecide || action.Why != GoalReached {
			t.Errorf("action = %+v, want Decide/GoalReached", action)
		}
	case <-time.After(time.Second):
		t.Fatal("expected an immediate Decide action")
	}
}

func TestDecideAcceptsTopKAndRejectsRest(t *testing.T) {
	c := New(Agreement, time.Hour, 0, negotiation.Limit(1))
	defer c.timer.Stop()

	c.NewScored(entryWithScore("p-low", 0.2))
	c.NewScored(entryWithScore("p-high", 0.9))
	c.Decide()

	var accepted, rejected []Action
	for i := 0; i < 2; i++ {
		select {
		case a := <-c.Feedback():
			switch a.Kind {
			case ActionAccept:
				accepted = append(accepted, a)
			case ActionReject:
				rejected = append(rejected, a)
			}
		case <-time.After(time.Second):
			t.Fatal("expected two feedback actions")
		}
	}

	if len(accepted) != 1 || accepted[0].Id != core.ProposalId("p-high") {
		t.Errorf("accepted = %+v, want p-high", accepted)
	}
	if len(rejected) != 1 || rejected[0].Id != core.ProposalId("p-low") {
		t.Errorf("rejected = %+v, want p-low", rejected)
	}
	if rejected[0].Final {
		t.Error("Decide rejects must be non-final")
	}
	if rejected[0].Reason.Message != "Node is busy." {
		t.Errorf("reject reason = %q, want %q", rejected[0].Reason.Message, "Node is busy.")
	}
	if len(c.rejected) != 1 {
		t.Errorf("deferred pool size = %d, want 1", len(c.rejected))
	}

	// Limit(1) consumed by the one acceptance.
	if c.goal.Size() != 0 {
		t.Errorf("goal after decide = %d, want 0", c.goal.Size())
	}
}

func TestBatchGoalUnchangedAfterDecide(t *testing.T) {
	c := New(Proposal, time.Hour, 0, negotiation.Batch(5))
	defer c.timer.Stop()

	c.NewScored(entryWithScore("p-1", 0.5))
	c.Decide()
	<-c.Feedback() // drain the accept

	if c.goal.Kind != negotiation.GoalBatch || c.goal.N != 5 {
		t.Errorf("batch goal mutated: %+v", c.goal)
	}
}

func TestTimerSingletonRescheduleDoesNotDoubleFire(t *testing.T) {
	c := New(Proposal, 30*time.Millisecond, 0, negotiation.Limit(1))
	defer c.timer.Stop()

	time.Sleep(10 * time.Millisecond)
	c.rescheduleTimer()

	deadline := time.After(200 * time.Millisecond)
	count := 0
loop:
	for {
		select {
		case <-c.Feedback():
			count++
			if count > 1 {
				t.Fatal("more than one timer fired after reschedule")
			}
		case <-deadline:
			break loop
		}
	}
	if count != 1 {
		t.Errorf("fired %d times, want exactly 1", count)
	}
}
