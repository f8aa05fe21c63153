package models

import "time"

// AttendanceStatus is the closed set of persisted statuses. "Unmarked" is
// never stored; it is the absence of a record for a (session, participant)
// pair.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
	StatusLate    AttendanceStatus = "late"
	StatusExcused AttendanceStatus = "excused"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	default:
		return false
	}
}

// statusCycle is the order a status advances through on repeated UI clicks.
var statusCycle = [...]AttendanceStatus{StatusPresent, StatusAbsent, StatusLate, StatusExcused}

// NextStatus returns the status following current in the fixed cycle.
// Anything outside the cycle, including the empty "unmarked" state, starts
// over at present.
func NextStatus(current AttendanceStatus) AttendanceStatus {
	for i, s := range statusCycle {
		if s == current {
			return statusCycle[(i+1)%len(statusCycle)]
		}
	}
	return statusCycle[0]
}

// AttendanceRecord is the canonical, shape-independent attendance record.
// Timestamp is a last-modified marker, not an event time.
type AttendanceRecord struct {
	ID            int              `json:"id"`
	SessionID     int              `json:"session_id"`
	ParticipantID int              `json:"participant_id"`
	Status        AttendanceStatus `json:"status"`
	Timestamp     time.Time        `json:"timestamp"`
	Notes         string           `json:"notes"`
}
