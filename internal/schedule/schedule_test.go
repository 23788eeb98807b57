package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"CareCompanion/internal/model"
)

func TestExpand(t *testing.T) {
	dtstart := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	from := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		rule    string
		want    []time.Time
		wantErr bool
	}{
		{
			name: "daily",
			rule: "FREQ=DAILY",
			want: []time.Time{
				time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC),
				time.Date(2024, 1, 4, 8, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "prefixed twice daily",
			rule: "RRULE:FREQ=DAILY;BYHOUR=8,20",
			want: []time.Time{
				time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC),
				time.Date(2024, 1, 3, 20, 0, 0, 0, time.UTC),
				time.Date(2024, 1, 4, 8, 0, 0, 0, time.UTC),
				time.Date(2024, 1, 4, 20, 0, 0, 0, time.UTC),
			},
		},
		{name: "count exhausted", rule: "FREQ=DAILY;COUNT=2"},
		{name: "empty rule", rule: ""},
		{name: "invalid", rule: "FREQ=SOMETIMES", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.rule, dtstart, from, to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if !got[i].Equal(tt.want[i]) {
					t.Errorf("[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestOccurrences(t *testing.T) {
	r := &model.Reminder{
		PatientID: 42,
		Schedule:  "FREQ=HOURLY;INTERVAL=6",
		DTStart:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	r.ID = 5

	from := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	occs, err := Occurrences(r, from, from.Add(12*time.Hour))
	if err != nil {
		t.Fatalf("Occurrences: %v", err)
	}
	if len(occs) != 3 {
		t.Fatalf("len = %d, want 3", len(occs))
	}
	for _, o := range occs {
		if o.ReminderID != 5 || o.PatientID != 42 {
			t.Errorf("bad ids: %+v", o)
		}
		if o.Status != model.OccurrenceStatusActive || !o.ScheduledFor.Equal(o.NextDueTime) {
			t.Errorf("bad occurrence: %+v", o)
		}
	}
}

type fakeLister struct {
	cutoff time.Time
	rows   []model.ReminderOccurrence
}

func (f *fakeLister) ListOverdue(_ context.Context, cutoff time.Time, _ int) ([]model.ReminderOccurrence, error) {
	f.cutoff = cutoff
	return f.rows, nil
}

type fakeResolver struct {
	results map[int64]error
	applied map[int64]bool
}

func (f *fakeResolver) ResolveOccurrence(_ context.Context, occ *model.ReminderOccurrence, _ time.Time) (bool, error) {
	if err := f.results[occ.ID]; err != nil {
		return false, err
	}
	return f.applied[occ.ID], nil
}

func TestSweep(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	rows := make([]model.ReminderOccurrence, 3)
	for i := range rows {
		rows[i].ID = int64(i + 1)
	}

	lister := &fakeLister{rows: rows}
	resolver := &fakeResolver{
		results: map[int64]error{2: errors.New("db down")},
		applied: map[int64]bool{1: true, 3: false},
	}

	s := NewSweeper(lister, resolver, 15*time.Minute)
	s.now = func() time.Time { return now }

	missed, err := s.sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if missed != 1 {
		t.Errorf("missed = %d, want 1", missed)
	}
	if want := now.Add(-15 * time.Minute); !lister.cutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", lister.cutoff, want)
	}
}
