package domain

import "time"

type CheckInMethod string

const (
	CheckInQRScan CheckInMethod = "qr_scan"
	CheckInManual CheckInMethod = "manual"
)

type OverrideAction string

const (
	OverrideCheckIn OverrideAction = "check_in"
	OverrideRevert  OverrideAction = "revert"
)

type OverrideAudit struct {
	By     uint           `json:"by"`
	At     time.Time      `json:"at"`
	Reason string         `json:"reason"`
	Action OverrideAction `json:"action"`
}

type Attendance struct {
	ID               uint            `json:"id"`
	EventID          uint            `json:"event_id"`
	RegistrationID   uint            `json:"registration_id"`
	ParticipantID    uint            `json:"participant_id"`
	CheckedInAt      time.Time       `json:"checked_in_at"`
	Method           CheckInMethod   `json:"method"`
	MarkedBy         uint            `json:"marked_by"`
	IsManualOverride bool            `json:"is_manual_override"`
	OverrideReason   string          `json:"override_reason,omitempty"`
	Audit            []OverrideAudit `json:"audit,omitempty"`
}

// CheckIn is the outcome of a scan or manual entry. AlreadyCheckedIn is set when
// an earlier record was returned instead of creating a new one.
type CheckIn struct {
	Attendance       Attendance `json:"attendance"`
	AlreadyCheckedIn bool       `json:"already_checked_in"`
}

type AttendanceEntry struct {
	Attendance
	TicketID         string `json:"ticket_id"`
	ParticipantName  string `json:"participant_name"`
	ParticipantEmail string `json:"participant_email"`
}

type AttendanceSummary struct {
	EventID    uint              `json:"event_id"`
	Checked    int64             `json:"checked"`
	Total      int64             `json:"total"`
	NotChecked int64             `json:"not_checked"`
	CheckIns   []AttendanceEntry `json:"check_ins"`
}
