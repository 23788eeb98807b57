package dto

import "time"

// MountSessionResponse 挂载提醒会话
type MountSessionResponse struct {
	SessionID string    `json:"session_id"`
	PatientID int64     `json:"patient_id"`
	StartedAt time.Time `json:"started_at"`
}

// PresentationResponse 当前展示的提醒，没有时 Active=false
type PresentationResponse struct {
	Active             bool       `json:"active"`
	OccurrenceID       int64      `json:"occurrence_id,omitempty"`
	ReminderID         int64      `json:"reminder_id,omitempty"`
	Type               string     `json:"type,omitempty"`
	Title              string     `json:"title,omitempty"`
	Message            string     `json:"message,omitempty"`
	PhotoURL           string     `json:"photo_url,omitempty"`
	Phase              string     `json:"phase,omitempty"`
	DueAt              *time.Time `json:"due_at,omitempty"`
	CountdownRemaining int        `json:"countdown_remaining"`
	MinutesUntilDue    int        `json:"minutes_until_due"`
	CanSnooze          bool       `json:"can_snooze"`
}

// SnoozeRequest minutes 为 0 时使用默认时长
type SnoozeRequest struct {
	Minutes int `json:"minutes"`
}

type SnoozeResponse struct {
	OccurrenceID int64     `json:"occurrence_id"`
	SnoozedUntil time.Time `json:"snoozed_until"`
}

// ViewModeRequest mode: patient / caregiver
type ViewModeRequest struct {
	Mode string `json:"mode"`
}
