package reminder

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var errInjected = errors.New("injected failure")

type logEntry struct {
	OccurrenceID int64
	EventType    EventType
	Metadata     map[string]any
}

// memStore 内存版 Store，fail 中的写入名称会返回 errInjected
type memStore struct {
	mu sync.Mutex

	occurrences map[int64]*Occurrence
	medications []Medication

	statusWrites int
	logs         []logEntry
	completions  []Completion
	usage        []UsagePattern
	alerts       []CaregiverAlert
	activity     []ActivityEntry
	taken        []int64

	fail    map[string]bool
	listErr error
}

func newMemStore(occs ...Occurrence) *memStore {
	s := &memStore{occurrences: make(map[int64]*Occurrence), fail: make(map[string]bool)}
	for i := range occs {
		o := occs[i]
		s.occurrences[o.ID] = &o
	}
	return s
}

func (s *memStore) failing(name string) bool {
	return s.fail[name]
}

func (s *memStore) ListOccurrences(_ context.Context, statuses []Status) ([]Occurrence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []Occurrence
	for _, o := range s.occurrences {
		for _, st := range statuses {
			if o.Status == st {
				out = append(out, *o)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextDueTime.Before(out[j].NextDueTime) })
	return out, nil
}

func (s *memStore) UpdateOccurrenceStatus(_ context.Context, id int64, status Status, _ *time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing("status") {
		return false, errInjected
	}
	o, ok := s.occurrences[id]
	if !ok || !o.Status.Actionable() {
		return false, nil
	}
	o.Status = status
	s.statusWrites++
	return true, nil
}

func (s *memStore) UpdateOccurrenceNextDue(_ context.Context, id int64, next time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing("next_due") {
		return false, errInjected
	}
	o, ok := s.occurrences[id]
	if !ok || !o.Status.Actionable() {
		return false, nil
	}
	o.NextDueTime = next
	return true, nil
}

func (s *memStore) AppendLog(_ context.Context, occ Occurrence, eventType EventType, metadata map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing("log") {
		return errInjected
	}
	s.logs = append(s.logs, logEntry{OccurrenceID: occ.ID, EventType: eventType, Metadata: metadata})
	return nil
}

func (s *memStore) AppendCompletion(_ context.Context, c Completion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing("completion") {
		return errInjected
	}
	s.completions = append(s.completions, c)
	return nil
}

func (s *memStore) AppendUsagePattern(_ context.Context, p UsagePattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing("usage") {
		return errInjected
	}
	s.usage = append(s.usage, p)
	return nil
}

func (s *memStore) CreateCaregiverAlert(_ context.Context, a CaregiverAlert) (CaregiverAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing("alert") {
		return CaregiverAlert{}, errInjected
	}
	a.ID = int64(len(s.alerts) + 1)
	s.alerts = append(s.alerts, a)
	return a, nil
}

func (s *memStore) AppendActivityFeedEntry(_ context.Context, e ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing("activity") {
		return errInjected
	}
	s.activity = append(s.activity, e)
	return nil
}

func (s *memStore) FindOpenMedicationByNameFragment(_ context.Context, fragment string) (*Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing("medication") {
		return nil, errInjected
	}
	med, _ := PickMedication(s.medications, fragment)
	return med, nil
}

func (s *memStore) MarkMedicationTaken(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.medications {
		if s.medications[i].ID == id {
			s.medications[i].Taken = true
			s.medications[i].TakenAt = &at
		}
	}
	s.taken = append(s.taken, id)
	return nil
}

func (s *memStore) eventCount(t EventType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.logs {
		if l.EventType == t {
			n++
		}
	}
	return n
}

func (s *memStore) status(id int64) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.occurrences[id].Status
}

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []CaregiverAlert
}

func (n *recordingNotifier) NotifyMissedDose(_ context.Context, a CaregiverAlert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, a)
	return nil
}

// at 返回测试基准日 10:00:00 附近的时间
func at(hour, min, sec int) time.Time {
	return time.Date(2024, 3, 4, hour, min, sec, 0, time.UTC)
}

func occurrence(id int64, due time.Time) Occurrence {
	return Occurrence{
		ID:          id,
		ReminderID:  id * 10,
		NextDueTime: due,
		Status:      StatusActive,
		Reminder: Definition{
			ID:      id * 10,
			Type:    TypeMedication,
			Title:   "Medication",
			Message: "Aspirin",
		},
	}
}
