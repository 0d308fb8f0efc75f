package scheduler

import (
	"sync"
	"testing"
	"time"

	"homehub/internal/dispatch"
	"homehub/internal/models"
	"homehub/internal/statestore"
)

type mockPublisher struct {
	mu        sync.Mutex
	published []string
}

func (m *mockPublisher) Publish(topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, topic+" "+string(payload))
	return nil
}

func testScheduler() (*Scheduler, *mockPublisher) {
	pub := &mockPublisher{}
	store := statestore.New()
	store.Update("Relay01", map[string]interface{}{"relay_state": "OFF"}, time.Now())
	return New(nil, store, dispatch.New(pub)), pub
}

// 2026-03-02 is a Monday
func monday(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
}

func mondayMorningRule() models.TimerRule {
	return models.TimerRule{
		ID: 1, Title: "morning lights", StartTime: "08:00", EndTime: "08:05",
		Days: []string{"Mon"}, RelayDeviceID: "Relay01", Action: "ON", Enabled: true,
	}
}

func TestFiresOncePerWindow(t *testing.T) {
	s, pub := testScheduler()
	rules := []models.TimerRule{mondayMorningRule()}

	for _, minute := range []int{0, 1, 2} {
		s.EvaluateAt(rules, monday(8, minute))
	}
	if len(pub.published) != 1 {
		t.Fatalf("published %d commands across three in-window ticks, want 1", len(pub.published))
	}
	if pub.published[0] != "home/Relay01/relay/command ON" {
		t.Errorf("published %q", pub.published[0])
	}
}

func TestRearmsAfterLeavingWindow(t *testing.T) {
	s, pub := testScheduler()
	rules := []models.TimerRule{mondayMorningRule()}

	s.EvaluateAt(rules, monday(8, 1))  // fires
	s.EvaluateAt(rules, monday(8, 10)) // left window, disarms
	s.EvaluateAt(rules, monday(8, 10).AddDate(0, 0, 7)) // next Monday, still outside

	if len(pub.published) != 1 {
		t.Fatalf("published %d, want 1 (8:10 is outside the window)", len(pub.published))
	}

	statuses := s.EvaluateAt(rules, monday(8, 3).AddDate(0, 0, 7))
	if !statuses[0].Fired {
		t.Error("rule must fire again in the next week's window")
	}
	if len(pub.published) != 2 {
		t.Errorf("published %d total, want 2", len(pub.published))
	}
}

func TestWindowBoundsInclusive(t *testing.T) {
	s, _ := testScheduler()
	rule := mondayMorningRule()

	if !inWindow(rule, monday(8, 0)) {
		t.Error("start bound must be inclusive")
	}
	if !inWindow(rule, monday(8, 5)) {
		t.Error("end bound must be inclusive")
	}
	if inWindow(rule, monday(7, 59)) || inWindow(rule, monday(8, 6)) {
		t.Error("times outside the window must not match")
	}
	_ = s
}

func TestDayFiltering(t *testing.T) {
	s, pub := testScheduler()
	rules := []models.TimerRule{mondayMorningRule()}

	tuesday := monday(8, 2).AddDate(0, 0, 1)
	statuses := s.EvaluateAt(rules, tuesday)
	if statuses[0].InWindow || len(pub.published) != 0 {
		t.Error("rule limited to Mon must not fire on Tuesday")
	}
}

func TestInvertedWindowNeverMatches(t *testing.T) {
	s, pub := testScheduler()
	rules := []models.TimerRule{{
		ID: 2, StartTime: "22:00", EndTime: "06:00",
		Days: []string{"Mon"}, RelayDeviceID: "Relay01", Action: "ON", Enabled: true,
	}}

	for _, at := range []time.Time{monday(23, 0), monday(3, 0), monday(22, 0)} {
		statuses := s.EvaluateAt(rules, at)
		if statuses[0].InWindow || statuses[0].Fired {
			t.Errorf("inverted window matched at %v", at)
		}
	}
	if len(pub.published) != 0 {
		t.Error("inverted window must never dispatch")
	}
}

func TestMalformedClockIsNonMatch(t *testing.T) {
	s, pub := testScheduler()
	rules := []models.TimerRule{{
		ID: 3, StartTime: "8am", EndTime: "noon",
		Days: []string{"Mon"}, RelayDeviceID: "Relay01", Action: "ON", Enabled: true,
	}}

	statuses := s.EvaluateAt(rules, monday(9, 0))
	if statuses[0].InWindow || len(pub.published) != 0 {
		t.Error("unparseable clock times must evaluate as never-matching, not crash")
	}
}

func TestFiresWhenRelayNeverSeen(t *testing.T) {
	pub := &mockPublisher{}
	s := New(nil, statestore.New(), dispatch.New(pub))
	rule := mondayMorningRule()
	rule.RelayDeviceID = "UnseenRelay"

	// Relays may be command-only and never publish state; the timer still
	// sends the command and leaves delivery to the broker
	statuses := s.EvaluateAt([]models.TimerRule{rule}, monday(8, 2))
	if !statuses[0].Fired {
		t.Error("timer must fire even when the relay has never published state")
	}
	if len(pub.published) != 1 || pub.published[0] != "home/UnseenRelay/relay/command ON" {
		t.Errorf("published %v", pub.published)
	}
}

func TestDisabledRuleIgnored(t *testing.T) {
	s, pub := testScheduler()
	rule := mondayMorningRule()
	rule.Enabled = false

	s.EvaluateAt([]models.TimerRule{rule}, monday(8, 2))
	if len(pub.published) != 0 {
		t.Error("disabled timer rule must not dispatch")
	}
}
