package reminder

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestAcknowledgeWritesRecords(t *testing.T) {
	occ := occurrence(1, at(10, 0, 0))
	store := newMemStore(occ)
	store.medications = []Medication{
		{ID: 3, Name: "Metformin"},
		{ID: 5, Name: "aspirin"},
	}
	d := NewDispatcher(store, WithPatientName("Margaret"))

	applied, err := d.Acknowledge(context.Background(), occ, at(9, 50, 0), at(9, 52, 0))
	if err != nil || !applied {
		t.Fatalf("Acknowledge = %v, %v", applied, err)
	}

	if store.status(1) != StatusCompleted {
		t.Fatalf("status = %s", store.status(1))
	}
	if len(store.completions) != 1 {
		t.Fatalf("completions = %d", len(store.completions))
	}
	c := store.completions[0]
	if c.ResponseTimeSeconds != 120 || c.Method != "acknowledged" || c.TriggeredBy != "patient" {
		t.Fatalf("completion = %+v", c)
	}
	if store.eventCount(EventCompleted) != 1 {
		t.Fatalf("completed logs = %d", store.eventCount(EventCompleted))
	}
	if len(store.usage) != 1 || store.usage[0].HourOfDay != 9 || store.usage[0].DayOfWeek != int(time.Monday) {
		t.Fatalf("usage = %+v", store.usage)
	}
	if len(store.taken) != 1 || store.taken[0] != 5 {
		t.Fatalf("taken = %v, want [5]", store.taken)
	}
	if len(store.activity) != 1 || !strings.Contains(store.activity[0].Description, "aspirin") {
		t.Fatalf("activity = %+v", store.activity)
	}
}

func TestAcknowledgeNonMedicationSkipsLink(t *testing.T) {
	occ := occurrence(1, at(10, 0, 0))
	occ.Reminder.Type = TypeMeal
	store := newMemStore(occ)
	store.medications = []Medication{{ID: 5, Name: "Aspirin"}}

	if _, err := NewDispatcher(store).Acknowledge(context.Background(), occ, at(9, 50, 0), at(9, 51, 0)); err != nil {
		t.Fatal(err)
	}
	if len(store.taken) != 0 || len(store.activity) != 0 {
		t.Fatalf("meal reminder touched medications: taken=%v activity=%v", store.taken, store.activity)
	}
}

func TestAcknowledgeWithoutMedicationMatch(t *testing.T) {
	occ := occurrence(1, at(10, 0, 0))
	store := newMemStore(occ)
	store.medications = []Medication{{ID: 5, Name: "Lisinopril"}}

	applied, err := NewDispatcher(store).Acknowledge(context.Background(), occ, at(9, 50, 0), at(9, 51, 0))
	if err != nil || !applied {
		t.Fatalf("Acknowledge = %v, %v", applied, err)
	}
	if len(store.taken) != 0 {
		t.Fatalf("taken = %v", store.taken)
	}
}

func TestAcknowledgePartialFailure(t *testing.T) {
	occ := occurrence(1, at(10, 0, 0))
	store := newMemStore(occ)
	store.fail["log"] = true
	store.fail["medication"] = true

	applied, err := NewDispatcher(store).Acknowledge(context.Background(), occ, at(9, 50, 0), at(9, 51, 0))
	if err != nil || !applied {
		t.Fatalf("side-effect failure leaked: %v, %v", applied, err)
	}
	if len(store.completions) != 1 || len(store.usage) != 1 {
		t.Fatalf("independent writes blocked: completions=%d usage=%d", len(store.completions), len(store.usage))
	}
}

func TestStatusWriteFailureReturned(t *testing.T) {
	occ := occurrence(1, at(10, 0, 0))
	store := newMemStore(occ)
	store.fail["status"] = true

	applied, err := NewDispatcher(store).MissedDose(context.Background(), occ, ReasonNoResponse, at(10, 1, 0))
	if err == nil || applied {
		t.Fatalf("MissedDose = %v, %v; want error", applied, err)
	}
}

func TestMissedDoseWritesRecords(t *testing.T) {
	occ := occurrence(1, at(10, 0, 0))
	store := newMemStore(occ)
	notifier := &recordingNotifier{}
	d := NewDispatcher(store, WithPatientName("Margaret"), WithNotifier(notifier))

	applied, err := d.MissedDose(context.Background(), occ, ReasonNoResponse, at(10, 1, 0))
	if err != nil || !applied {
		t.Fatalf("MissedDose = %v, %v", applied, err)
	}

	if store.statusWrites != 1 || store.eventCount(EventMissed) != 1 {
		t.Fatalf("status writes=%d missed logs=%d", store.statusWrites, store.eventCount(EventMissed))
	}
	if reason := store.logs[0].Metadata["reason"]; reason != "no_response_after_final_warning" {
		t.Fatalf("reason = %v", reason)
	}
	if len(store.alerts) != 1 {
		t.Fatalf("alerts = %d", len(store.alerts))
	}
	a := store.alerts[0]
	if a.PatientName != "Margaret" || a.Label != "Aspirin" || a.DoseTimeDisplay != "10:00 AM" {
		t.Fatalf("alert = %+v", a)
	}
	if len(store.activity) != 1 || !strings.HasPrefix(store.activity[0].Description, "⚠️") {
		t.Fatalf("activity = %+v", store.activity)
	}
	if len(notifier.alerts) != 1 || notifier.alerts[0].ID != a.ID {
		t.Fatalf("notifier = %+v", notifier.alerts)
	}

	// 再次调用为空操作
	applied, err = d.MissedDose(context.Background(), occ, ReasonNoResponse, at(10, 1, 1))
	if err != nil || applied {
		t.Fatalf("second MissedDose = %v, %v", applied, err)
	}
	if len(store.alerts) != 1 || store.eventCount(EventMissed) != 1 {
		t.Fatal("second MissedDose double-logged")
	}
}

func TestMissedDoseAlertFailureDoesNotBlockOthers(t *testing.T) {
	occ := occurrence(1, at(10, 0, 0))
	store := newMemStore(occ)
	store.fail["alert"] = true
	notifier := &recordingNotifier{}

	if _, err := NewDispatcher(store, WithNotifier(notifier)).MissedDose(context.Background(), occ, ReasonNoResponse, at(10, 1, 0)); err != nil {
		t.Fatal(err)
	}
	if store.eventCount(EventMissed) != 1 || len(store.activity) != 1 {
		t.Fatalf("missed logs=%d activity=%d", store.eventCount(EventMissed), len(store.activity))
	}
	if len(notifier.alerts) != 0 {
		t.Fatal("notified without an alert record")
	}
}

func TestSnoozeMovesDueTime(t *testing.T) {
	occ := occurrence(1, at(10, 0, 0))
	store := newMemStore(occ)

	applied, err := NewDispatcher(store).Snooze(context.Background(), occ, at(9, 59, 1), at(9, 50, 1))
	if err != nil || !applied {
		t.Fatalf("Snooze = %v, %v", applied, err)
	}
	store.mu.Lock()
	got := store.occurrences[1]
	store.mu.Unlock()
	if !got.NextDueTime.Equal(at(9, 59, 1)) || got.Status != StatusActive {
		t.Fatalf("occurrence = %+v", got)
	}
	if store.eventCount(EventSnoozed) != 1 || store.logs[0].Metadata["snoozeMinutes"] != 9 {
		t.Fatalf("logs = %+v", store.logs)
	}
	if len(store.usage) != 1 || store.usage[0].ActivityType != "reminder_snoozed" {
		t.Fatalf("usage = %+v", store.usage)
	}
}

func TestAcknowledgeMissedRace(t *testing.T) {
	for i := 0; i < 50; i++ {
		occ := occurrence(1, at(10, 0, 0))
		store := newMemStore(occ)
		d := NewDispatcher(store)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = d.Acknowledge(context.Background(), occ, at(9, 59, 0), at(10, 1, 0))
		}()
		go func() {
			defer wg.Done()
			_, _ = d.MissedDose(context.Background(), occ, ReasonNoResponse, at(10, 1, 0))
		}()
		wg.Wait()

		if store.statusWrites != 1 {
			t.Fatalf("run %d: status writes = %d, want 1", i, store.statusWrites)
		}
		terminal := store.eventCount(EventCompleted) + store.eventCount(EventMissed)
		if terminal != 1 {
			t.Fatalf("run %d: terminal logs = %d, want 1", i, terminal)
		}
	}
}

func TestFormatDoseTime(t *testing.T) {
	shanghai := time.FixedZone("CST", 8*3600)
	cases := []struct {
		t    time.Time
		loc  *time.Location
		want string
	}{
		{at(10, 0, 0), time.UTC, "10:00 AM"},
		{at(9, 5, 0), nil, "9:05 AM"},
		{at(10, 0, 0), shanghai, "6:00 PM"},
	}
	for _, c := range cases {
		if got := FormatDoseTime(c.t, c.loc); got != c.want {
			t.Errorf("FormatDoseTime(%v) = %q, want %q", c.t, got, c.want)
		}
	}
}
