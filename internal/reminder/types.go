package reminder

import "time"

// Status 提醒实例状态，只有 active/sent 可以展示给患者
type Status string

const (
	StatusActive    Status = "active"
	StatusSent      Status = "sent"
	StatusCompleted Status = "completed"
)

// ActionableStatuses 可被确认、延后或判定漏服的状态集合
var ActionableStatuses = []Status{StatusActive, StatusSent}

func (s Status) Actionable() bool {
	return s == StatusActive || s == StatusSent
}

type Type string

const (
	TypeMedication Type = "medication"
	TypeMeal       Type = "meal"
	TypeExercise   Type = "exercise"
	TypeCheckIn    Type = "check_in"
	TypeCustom     Type = "custom"
)

func (t Type) Valid() bool {
	switch t {
	case TypeMedication, TypeMeal, TypeExercise, TypeCheckIn, TypeCustom:
		return true
	}
	return false
}

// Phase 当前展示阶段
type Phase string

const (
	PhaseInitial      Phase = "initial"
	PhaseFinalWarning Phase = "final_warning"
	PhaseDismissed    Phase = "dismissed"
)

// EventType 审计日志事件类型
type EventType string

const (
	EventCompleted EventType = "completed"
	EventSnoozed   EventType = "snoozed"
	EventMissed    EventType = "missed"
)

// 漏服原因
const (
	ReasonNoResponse = "no_response_after_final_warning"
	ReasonOverdue    = "overdue_without_session"
)

// Definition 提醒定义，由照护者或系统创建
type Definition struct {
	ID         int64
	Type       Type
	Title      string
	Message    string
	PhotoURL   string
	Priority   int
	Persistent bool
	CreatedBy  int64
}

// Label 告警与动态中展示的名称，优先使用提醒内容
func (d Definition) Label() string {
	if d.Message != "" {
		return d.Message
	}
	return d.Title
}

// Occurrence 某条提醒在某个时间点的一次实例
type Occurrence struct {
	ID          int64
	ReminderID  int64
	PatientID   int64
	NextDueTime time.Time
	Status      Status
	LastSentAt  *time.Time
	SendCount   int
	Reminder    Definition
}

// Presentation 当前应展示给患者的提醒
type Presentation struct {
	Occurrence         Occurrence
	Phase              Phase
	CountdownRemaining int
	MinutesUntilDue    int
	StartedAt          time.Time
}

type Completion struct {
	ReminderID          int64
	OccurrenceID        int64
	Method              string
	ResponseTimeSeconds int
	TriggeredBy         string
	CompletedAt         time.Time
}

type UsagePattern struct {
	ActivityType string
	HourOfDay    int
	DayOfWeek    int
	Metadata     map[string]any
}

type CaregiverAlert struct {
	ID              int64
	ReminderID      int64
	OccurrenceID    int64
	PatientName     string
	Label           string
	DoseTimeDisplay string
	CreatedAt       time.Time
}

type ActivityEntry struct {
	Description string
	Time        time.Time
	Icon        string
	Completed   bool
}

type Medication struct {
	ID       int64
	Name     string
	Dosage   string
	Taken    bool
	TakenAt  *time.Time
	DoseTime string
}
