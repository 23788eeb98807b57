package dto

import "time"

// CreateReminderRequest 照护者创建提醒
type CreateReminderRequest struct {
	PatientID  int64      `json:"patient_id,string"`
	Type       string     `json:"type"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	PhotoURL   string     `json:"photo_url"`
	Priority   int        `json:"priority"`
	Persistent bool       `json:"persistent"`
	Schedule   string     `json:"schedule"` // RRULE，可为空
	DTStart    *time.Time `json:"dtstart"`
}

type UpdateReminderRequest struct {
	Enabled *bool `json:"enabled"`
}

type ReminderItem struct {
	ID         int64     `json:"id,string"`
	PatientID  int64     `json:"patient_id,string"`
	Type       string    `json:"type"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	PhotoURL   string    `json:"photo_url,omitempty"`
	Priority   int       `json:"priority"`
	Persistent bool      `json:"persistent"`
	Enabled    bool      `json:"enabled"`
	Schedule   string    `json:"schedule,omitempty"`
	DTStart    time.Time `json:"dtstart"`
	CreatedAt  time.Time `json:"created_at"`
}

// SendReminderResponse 手动发送产生或刷新的实例
type SendReminderResponse struct {
	OccurrenceID int64     `json:"occurrence_id,string"`
	ReminderID   int64     `json:"reminder_id,string"`
	NextDueTime  time.Time `json:"next_due_time"`
	Status       string    `json:"status"`
	SendCount    int       `json:"send_count"`
	LastSentAt   time.Time `json:"last_sent_at"`
}
