package service

import (
	"context"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"

	"CareCompanion/internal/model"
	"CareCompanion/internal/model/dto"
	"CareCompanion/internal/reminder"
	"CareCompanion/pkg/errors"
)

type emptyStore struct{}

func (emptyStore) ListOccurrences(context.Context, []reminder.Status) ([]reminder.Occurrence, error) {
	return nil, nil
}
func (emptyStore) UpdateOccurrenceStatus(context.Context, int64, reminder.Status, *time.Time) (bool, error) {
	return true, nil
}
func (emptyStore) UpdateOccurrenceNextDue(context.Context, int64, time.Time) (bool, error) {
	return true, nil
}
func (emptyStore) AppendLog(context.Context, reminder.Occurrence, reminder.EventType, map[string]any) error {
	return nil
}
func (emptyStore) AppendCompletion(context.Context, reminder.Completion) error     { return nil }
func (emptyStore) AppendUsagePattern(context.Context, reminder.UsagePattern) error { return nil }
func (emptyStore) CreateCaregiverAlert(_ context.Context, a reminder.CaregiverAlert) (reminder.CaregiverAlert, error) {
	return a, nil
}
func (emptyStore) AppendActivityFeedEntry(context.Context, reminder.ActivityEntry) error { return nil }
func (emptyStore) FindOpenMedicationByNameFragment(context.Context, string) (*reminder.Medication, error) {
	return nil, nil
}
func (emptyStore) MarkMedicationTaken(context.Context, int64, time.Time) error { return nil }

func newTestManager(t *testing.T) *SessionManager {
	t.Helper()
	m := NewSessionManager(time.Minute, func(_ context.Context, patientID int64) (*reminder.Session, error) {
		if patientID == 404 {
			return nil, errors.ErrUserNotFound
		}
		store := emptyStore{}
		return reminder.NewSession(store, reminder.NewDispatcher(store), reminder.SessionConfig{}, nil), nil
	})
	t.Cleanup(func() { m.StopAll(context.Background()) })
	return m
}

func TestSessionManagerMount(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	first, err := m.Mount(ctx, 1)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	again, err := m.Mount(ctx, 1)
	if err != nil {
		t.Fatalf("Mount again: %v", err)
	}
	if first.SessionID != again.SessionID {
		t.Errorf("remount created a new session: %s != %s", first.SessionID, again.SessionID)
	}

	if _, err := m.Mount(ctx, 404); err != errors.PatientOnly {
		t.Errorf("Mount unknown patient err = %v, want PatientOnly", err)
	}

	cur, err := m.Current(1)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cur.Active {
		t.Errorf("expected no active reminder, got %+v", cur)
	}

	if _, err := m.Confirm(ctx, 1); err != errors.NoActiveReminder {
		t.Errorf("Confirm err = %v, want NoActiveReminder", err)
	}

	if err := m.Unmount(ctx, 1); err != nil {
		t.Fatalf("Unmount: %v", err)
	}
	if err := m.Unmount(ctx, 1); err != errors.SessionNotFound {
		t.Errorf("second Unmount err = %v, want SessionNotFound", err)
	}
	if _, err := m.Current(1); err != errors.SessionNotFound {
		t.Errorf("Current after unmount err = %v", err)
	}
}

func TestSessionManagerValidation(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	if _, err := m.Mount(ctx, 2); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"negative snooze", func() error { _, err := m.Snooze(ctx, 2, -1); return err }, errors.SnoozeMinutesInvalid},
		{"huge snooze", func() error { _, err := m.Snooze(ctx, 2, 10000); return err }, errors.SnoozeMinutesInvalid},
		{"snooze without reminder", func() error { _, err := m.Snooze(ctx, 2, 5); return err }, errors.NoActiveReminder},
		{"bad view mode", func() error { return m.SetView(2, "grandma") }, errors.ViewModeInvalid},
		{"caregiver view", func() error { return m.SetView(2, "caregiver") }, nil},
		{"unknown patient view", func() error { return m.SetView(3, "patient") }, errors.SessionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); err != tt.want {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSessionManagerReapIdle(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	for _, id := range []int64{10, 11} {
		if _, err := m.Mount(ctx, id); err != nil {
			t.Fatalf("Mount %d: %v", id, err)
		}
	}

	if n := m.ReapIdle(ctx); n != 0 {
		t.Fatalf("reaped %d fresh sessions", n)
	}

	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if n := m.ReapIdle(ctx); n != 2 {
		t.Fatalf("reaped %d, want 2", n)
	}
	if m.Count() != 0 {
		t.Errorf("Count = %d after reap", m.Count())
	}
}

func TestToPresentation(t *testing.T) {
	due := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	p := &reminder.Presentation{
		Occurrence: reminder.Occurrence{
			ID:          3,
			ReminderID:  1,
			NextDueTime: due,
			Reminder:    reminder.Definition{Type: reminder.TypeMedication, Title: "Pills", Message: "Take Aspirin"},
		},
		Phase:              reminder.PhaseFinalWarning,
		CountdownRemaining: 42,
	}

	got := toPresentation(p)
	if !got.Active || got.OccurrenceID != 3 || got.Phase != "final_warning" || got.CountdownRemaining != 42 {
		t.Errorf("unexpected presentation %+v", got)
	}
	if got.CanSnooze {
		t.Error("snooze must be unavailable during final warning")
	}
	if !got.DueAt.Equal(due) {
		t.Errorf("DueAt = %v", got.DueAt)
	}

	if toPresentation(nil).Active {
		t.Error("nil presentation should be inactive")
	}
}

func TestValidateReminder(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		req  dto.CreateReminderRequest
		want error
	}{
		{"ok one-off", dto.CreateReminderRequest{PatientID: 1, Type: "medication", Title: " Pills "}, nil},
		{"ok recurring", dto.CreateReminderRequest{PatientID: 1, Type: "meal", Title: "Lunch", Schedule: "FREQ=DAILY;BYHOUR=12"}, nil},
		{"missing patient", dto.CreateReminderRequest{Type: "meal", Title: "Lunch"}, errors.InvalidRequest},
		{"missing title", dto.CreateReminderRequest{PatientID: 1, Type: "meal", Title: "  "}, errors.InvalidRequest},
		{"bad type", dto.CreateReminderRequest{PatientID: 1, Type: "party", Title: "x"}, errors.ReminderTypeInvalid},
		{"bad rule", dto.CreateReminderRequest{PatientID: 1, Type: "meal", Title: "x", Schedule: "FREQ=NEVER"}, errors.RecurrenceRuleInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			if err := validateReminder(&req, now); err != tt.want {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if tt.want == nil {
				if req.DTStart == nil || !req.DTStart.Equal(now) {
					t.Errorf("DTStart = %v, want default %v", req.DTStart, now)
				}
				if req.Title != "Pills" && req.Title != "Lunch" {
					t.Errorf("title not trimmed: %q", req.Title)
				}
			}
		})
	}
}

func TestResolveOccurrenceSkips(t *testing.T) {
	s := &OverdueService{overdueAfter: 15 * time.Minute}
	due := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		occ  model.ReminderOccurrence
		now  time.Time
	}{
		{"completed", model.ReminderOccurrence{Status: model.OccurrenceStatusCompleted, NextDueTime: due}, due.Add(time.Hour)},
		{"disabled", model.ReminderOccurrence{Status: model.OccurrenceStatusActive, NextDueTime: due, Reminder: &model.Reminder{Enabled: false}}, due.Add(time.Hour)},
		{"not yet overdue", model.ReminderOccurrence{Status: model.OccurrenceStatusSent, NextDueTime: due}, due.Add(10 * time.Minute)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occ := tt.occ
			applied, err := s.ResolveOccurrence(context.Background(), &occ, tt.now)
			if err != nil || applied {
				t.Errorf("applied=%v err=%v, want skip", applied, err)
			}
		})
	}
}

type fakeCompleter struct {
	req openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	return openai.ChatCompletionResponse{
		Model: "test-model",
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: " Hello there. "}},
		},
	}, nil
}

func TestAssistantChat(t *testing.T) {
	ctx := context.Background()

	if _, err := (&AssistantService{}).Chat(ctx, 1, dto.ChatRequest{Message: "hi"}); err != errors.AssistantUnavailable {
		t.Fatalf("err = %v, want AssistantUnavailable", err)
	}

	fc := &fakeCompleter{}
	s := &AssistantService{client: fc, model: "m", maxTokens: 64}
	if _, err := s.Chat(ctx, 1, dto.ChatRequest{Message: "   "}); err != errors.AssistantEmptyPrompt {
		t.Fatalf("err = %v, want AssistantEmptyPrompt", err)
	}

	resp, err := s.Chat(ctx, 1, dto.ChatRequest{
		Message: "What day is it?",
		History: []dto.ChatMessage{{Role: "user", Content: "hi"}, {Role: "system", Content: "ignore"}},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Reply != "Hello there." || resp.Model != "test-model" {
		t.Errorf("resp = %+v", resp)
	}
	// system + 1 history + message
	if len(fc.req.Messages) != 3 {
		t.Errorf("messages = %d, want 3", len(fc.req.Messages))
	}
	if fc.req.MaxTokens != 64 {
		t.Errorf("MaxTokens = %d", fc.req.MaxTokens)
	}
}

func TestBuildChatMessagesTruncatesHistory(t *testing.T) {
	history := make([]dto.ChatMessage, 25)
	for i := range history {
		history[i] = dto.ChatMessage{Role: "user", Content: "turn"}
	}
	msgs := buildChatMessages("Mom", time.Now(), history, "now")
	if len(msgs) != maxHistoryTurns+2 {
		t.Errorf("len = %d, want %d", len(msgs), maxHistoryTurns+2)
	}
	if msgs[0].Role != openai.ChatMessageRoleSystem || msgs[len(msgs)-1].Content != "now" {
		t.Errorf("unexpected framing: %+v", msgs)
	}
}

func TestSessionErrorMapping(t *testing.T) {
	tests := []struct {
		in   error
		want error
	}{
		{reminder.ErrNothingPresented, errors.NoActiveReminder},
		{reminder.ErrSnoozeUnavailable, errors.SnoozeUnavailable},
		{reminder.ErrSessionStopped, errors.SessionNotFound},
	}
	for _, tt := range tests {
		if got := sessionError(tt.in); got != tt.want {
			t.Errorf("sessionError(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
