package models

import "time"

// SessionStats aggregates the records of one session. Total counts records,
// not roster entries; roster members that were never marked do not appear.
type SessionStats struct {
	Total   int `json:"total"`
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
	Excused int `json:"excused"`
	Rate    int `json:"rate"`
}

// ParticipantStats aggregates one participant's records across sessions.
type ParticipantStats struct {
	TotalSessions int `json:"total_sessions"`
	Present       int `json:"present"`
	Absent        int `json:"absent"`
	Late          int `json:"late"`
	Excused       int `json:"excused"`
	Rate          int `json:"rate"`
}

// TrendPoint is one session's attendance rate on the trend series.
type TrendPoint struct {
	SessionID   int       `json:"session_id"`
	SessionName string    `json:"session_name"`
	Date        time.Time `json:"date"`
	Present     int       `json:"present"`
	Total       int       `json:"total"`
	Rate        int       `json:"rate"`
}

// PerformerRank pairs a participant with their computed attendance rate.
type PerformerRank struct {
	Participant
	AttendanceRate int `json:"attendance_rate"`
	TotalSessions  int `json:"total_sessions"`
	PresentCount   int `json:"present_count"`
}

// HistoryEntry joins an attendance record with its session for display.
// When the session lookup fails the session fields carry placeholders and
// DateLabel reads "Unknown Date" if the record has no usable timestamp.
type HistoryEntry struct {
	AttendanceRecord
	SessionName string    `json:"session_name"`
	SessionType string    `json:"session_type"`
	SessionDate time.Time `json:"session_date"`
	DateLabel   string    `json:"date_label"`
}

// Overview summarises the whole ledger for the reports landing view.
type Overview struct {
	TotalSessions     int `json:"total_sessions"`
	TotalParticipants int `json:"total_participants"`
	TotalRecords      int `json:"total_records"`
	OverallRate       int `json:"overall_rate"`
}

// StatusDistribution counts records per status across the whole ledger.
type StatusDistribution struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
	Excused int `json:"excused"`
}

// BulkFailure reports one participant whose bulk upsert failed.
type BulkFailure struct {
	ParticipantID int    `json:"participant_id"`
	Error         string `json:"error"`
}

// BulkResult reports per-item outcomes of a bulk mark. Partial failure is a
// result, never an error.
type BulkResult struct {
	Succeeded []int         `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}
