package errors

func (d Definition) Error() string {
	return d.Message
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// 认证相关错误。
var (
	Unauthorized   = Definition{Code: "UNAUTHORIZED", Message: "Unauthorized"}
	InvalidUserID  = Definition{Code: "INVALID_USER_ID", Message: "Invalid user ID format"}
	CaregiverOnly  = Definition{Code: "CAREGIVER_ONLY", Message: "Only caregivers can perform this action"}
	PatientOnly    = Definition{Code: "PATIENT_ONLY", Message: "Only patients can perform this action"}
	NotYourPatient = Definition{Code: "NOT_YOUR_PATIENT", Message: "Patient is not under your care"}
)

// 提醒模块错误。
var (
	ReminderNotFound        = Definition{Code: "REMINDER_NOT_FOUND", Message: "Reminder not found"}
	ReminderDisabled        = Definition{Code: "REMINDER_DISABLED", Message: "Reminder disabled"}
	ReminderTypeInvalid     = Definition{Code: "REMINDER_TYPE_INVALID", Message: "Reminder type invalid"}
	RecurrenceRuleInvalid   = Definition{Code: "RECURRENCE_RULE_INVALID", Message: "Recurrence rule invalid"}
	OccurrenceNotActionable = Definition{Code: "OCCURRENCE_NOT_ACTIONABLE", Message: "Occurrence already resolved"}
	NoActiveReminder        = Definition{Code: "NO_ACTIVE_REMINDER", Message: "No reminder is being presented"}
	SnoozeMinutesInvalid    = Definition{Code: "SNOOZE_MINUTES_INVALID", Message: "Snooze minutes out of range"}
	SnoozeUnavailable       = Definition{Code: "SNOOZE_UNAVAILABLE", Message: "Snooze is not available during the final warning"}
)

// 会话模块错误。
var (
	SessionNotFound = Definition{Code: "SESSION_NOT_FOUND", Message: "Reminder session not found"}
	ViewModeInvalid = Definition{Code: "VIEW_MODE_INVALID", Message: "View mode invalid"}
)

// 照护者告警与用药记录错误。
var (
	AlertNotFound      = Definition{Code: "ALERT_NOT_FOUND", Message: "Caregiver alert not found"}
	MedicationNotFound = Definition{Code: "MEDICATION_NOT_FOUND", Message: "Medication not found"}
)

// 语音助手错误。
var (
	AssistantUnavailable = Definition{Code: "ASSISTANT_UNAVAILABLE", Message: "Assistant unavailable"}
	AssistantEmptyPrompt = Definition{Code: "ASSISTANT_EMPTY_PROMPT", Message: "Message must not be empty"}
)

// 通用错误。
var (
	TooManyRequests = Definition{Code: "TOO_MANY_REQUESTS", Message: "Too many requests"}
	InvalidRequest  = Definition{Code: "INVALID_REQUEST", Message: "Invalid request"}
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	Unauthorized.Code:            Unauthorized,
	InvalidUserID.Code:           InvalidUserID,
	CaregiverOnly.Code:           CaregiverOnly,
	PatientOnly.Code:             PatientOnly,
	NotYourPatient.Code:          NotYourPatient,
	ReminderNotFound.Code:        ReminderNotFound,
	ReminderDisabled.Code:        ReminderDisabled,
	ReminderTypeInvalid.Code:     ReminderTypeInvalid,
	RecurrenceRuleInvalid.Code:   RecurrenceRuleInvalid,
	OccurrenceNotActionable.Code: OccurrenceNotActionable,
	NoActiveReminder.Code:        NoActiveReminder,
	SnoozeMinutesInvalid.Code:    SnoozeMinutesInvalid,
	SnoozeUnavailable.Code:       SnoozeUnavailable,
	SessionNotFound.Code:         SessionNotFound,
	ViewModeInvalid.Code:         ViewModeInvalid,
	AlertNotFound.Code:           AlertNotFound,
	MedicationNotFound.Code:      MedicationNotFound,
	AssistantUnavailable.Code:    AssistantUnavailable,
	AssistantEmptyPrompt.Code:    AssistantEmptyPrompt,
	TooManyRequests.Code:         TooManyRequests,
	InvalidRequest.Code:          InvalidRequest,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}
