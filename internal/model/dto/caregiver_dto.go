package dto

import "time"

type AlertItem struct {
	ID              int64      `json:"id,string"`
	PatientID       int64      `json:"patient_id,string"`
	ReminderID      int64      `json:"reminder_id,string"`
	OccurrenceID    int64      `json:"occurrence_id,string"`
	AlertType       string     `json:"alert_type"`
	PatientName     string     `json:"patient_name"`
	Label           string     `json:"label"`
	DoseTimeDisplay string     `json:"dose_time_display"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	AcknowledgedAt  *time.Time `json:"acknowledged_at,omitempty"`
}

type ActivityItem struct {
	ID          int64     `json:"id,string"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
	Icon        string    `json:"icon"`
	Completed   bool      `json:"completed"`
}

type CreateMedicationRequest struct {
	PatientID int64  `json:"patient_id,string"`
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	DoseTime  string `json:"dose_time"` // HH:MM
}

type MedicationItem struct {
	ID        int64      `json:"id,string"`
	PatientID int64      `json:"patient_id,string"`
	Name      string     `json:"name"`
	Dosage    string     `json:"dosage"`
	DoseTime  string     `json:"dose_time"`
	Taken     bool       `json:"taken"`
	TakenAt   *time.Time `json:"taken_at,omitempty"`
}
