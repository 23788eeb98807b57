package repository

import (
	"strings"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"CareCompanion/internal/model"
	"CareCompanion/internal/reminder"
)

// dryRunDB 只生成 SQL，不连接数据库
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=care dbname=care sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db
}

func TestActionableScopeIsCheckAndSet(t *testing.T) {
	db := dryRunDB(t)
	store, err := NewReminderStore(db, 42, nil, nil)
	if err != nil {
		t.Fatalf("NewReminderStore: %v", err)
	}

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&model.ReminderOccurrence{}).Scopes(store.actionable(7)).
			Updates(map[string]any{"status": "completed"})
	})

	for _, want := range []string{
		`UPDATE "reminder_occurrences"`,
		"id = 7 AND patient_id = 42 AND status IN ('active','sent')",
		`"deleted_at" IS NULL`,
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("sql %q missing %q", sql, want)
		}
	}
}

func TestNewReminderStoreRequiresDB(t *testing.T) {
	if _, err := NewReminderStore(nil, 1, nil, nil); err == nil {
		t.Fatal("expected error for nil db")
	}
}

func TestToOccurrence(t *testing.T) {
	due := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	m := model.ReminderOccurrence{
		ReminderID:  3,
		PatientID:   42,
		NextDueTime: due,
		Status:      model.OccurrenceStatusSent,
		SendCount:   2,
		Reminder: &model.Reminder{
			Type:    model.ReminderTypeMedication,
			Title:   "Morning pills",
			Message: "Aspirin",
		},
	}
	m.ID = 9
	m.Reminder.ID = 3

	got := ToOccurrence(m)
	if got.ID != 9 || got.ReminderID != 3 || got.PatientID != 42 || got.SendCount != 2 {
		t.Errorf("ids not copied: %+v", got)
	}
	if got.Status != reminder.StatusSent || !got.Status.Actionable() {
		t.Errorf("status = %q", got.Status)
	}
	if !got.NextDueTime.Equal(due) {
		t.Errorf("due = %v, want %v", got.NextDueTime, due)
	}
	if got.Reminder.Type != reminder.TypeMedication || got.Reminder.Label() != "Aspirin" {
		t.Errorf("definition = %+v", got.Reminder)
	}
}

func TestToOccurrenceWithoutReminder(t *testing.T) {
	got := ToOccurrence(model.ReminderOccurrence{Status: model.OccurrenceStatusActive})
	if got.Reminder != (reminder.Definition{}) {
		t.Errorf("expected zero definition, got %+v", got.Reminder)
	}
}
