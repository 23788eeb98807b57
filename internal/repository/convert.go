package repository

import (
	"CareCompanion/internal/model"
	"CareCompanion/internal/reminder"
)

func toDefinition(r *model.Reminder) reminder.Definition {
	if r == nil {
		return reminder.Definition{}
	}
	return reminder.Definition{
		ID:         r.ID,
		Type:       reminder.Type(r.Type),
		Title:      r.Title,
		Message:    r.Message,
		PhotoURL:   r.PhotoURL,
		Priority:   r.Priority,
		Persistent: r.Persistent,
		CreatedBy:  r.CreatedBy,
	}
}

// ToOccurrence 需要预加载 Reminder
func ToOccurrence(m model.ReminderOccurrence) reminder.Occurrence {
	return reminder.Occurrence{
		ID:          m.ID,
		ReminderID:  m.ReminderID,
		PatientID:   m.PatientID,
		NextDueTime: m.NextDueTime,
		Status:      reminder.Status(m.Status),
		LastSentAt:  m.LastSentAt,
		SendCount:   m.SendCount,
		Reminder:    toDefinition(m.Reminder),
	}
}

func toMedication(m model.Medication) reminder.Medication {
	return reminder.Medication{
		ID:       m.ID,
		Name:     m.Name,
		Dosage:   m.Dosage,
		Taken:    m.Taken,
		TakenAt:  m.TakenAt,
		DoseTime: m.DoseTime,
	}
}

func statusStrings(statuses []reminder.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func jsonb(m map[string]any) model.JSONB {
	if m == nil {
		return nil
	}
	return model.JSONB(m)
}
