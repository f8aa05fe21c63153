// Package normalize maps heterogeneous raw records into the canonical
// shapes the rest of the engine operates on. Two shapes exist in the wild:
// the legacy flat one (status, sessionId, date) and the normalized suffixed
// one (status_c, session_id_c, date_c) whose relation fields may be objects
// carrying an Id. Resolution always prefers the normalized name, falls back
// to the legacy name, and defaults when both are missing. Normalization is
// total: it never fails, it only defaults.
package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/pulsetrack/attendance-api/internal/models"
	"github.com/pulsetrack/attendance-api/internal/recordstore"
)

// Attendance builds a canonical attendance record from a raw one.
func Attendance(raw recordstore.RawRecord) models.AttendanceRecord {
	return models.AttendanceRecord{
		ID:            intField(raw, "Id", "id"),
		SessionID:     intField(raw, "session_id_c", "sessionId"),
		ParticipantID: intField(raw, "participant_id_c", "participantId"),
		Status:        models.AttendanceStatus(stringField(raw, "status_c", "status")),
		Timestamp:     timeField(raw, "timestamp_c", "timestamp"),
		Notes:         stringField(raw, "notes_c", "notes"),
	}
}

// Session builds a canonical session from a raw one.
func Session(raw recordstore.RawRecord) models.Session {
	return models.Session{
		ID:             intField(raw, "Id", "id"),
		Name:           stringField(raw, "Name", "name"),
		Date:           timeField(raw, "date_c", "date"),
		Type:           stringField(raw, "type_c", "type"),
		ParticipantIDs: rosterField(raw, "participant_ids_c", "participantIds"),
	}
}

// Participant builds a canonical participant from a raw one.
func Participant(raw recordstore.RawRecord) models.Participant {
	return models.Participant{
		ID:         intField(raw, "Id", "id"),
		Name:       stringField(raw, "Name", "name"),
		Email:      stringField(raw, "email_c", "email"),
		Department: stringField(raw, "department_c", "department"),
	}
}

// Roster parses a roster value, accepting a native sequence of numbers or a
// comma-joined string of identifiers. Non-numeric tokens are dropped.
func Roster(value any) []int {
	switch v := value.(type) {
	case nil:
		return nil
	case []int:
		return append([]int(nil), v...)
	case []any:
		ids := make([]int, 0, len(v))
		for _, item := range v {
			if id, ok := intValue(item); ok {
				ids = append(ids, id)
			}
		}
		return ids
	case string:
		parts := strings.Split(v, ",")
		ids := make([]int, 0, len(parts))
		for _, part := range parts {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
		return ids
	default:
		return nil
	}
}

func lookup(raw recordstore.RawRecord, names ...string) (any, bool) {
	for _, name := range names {
		if value, ok := raw[name]; ok && value != nil {
			return value, true
		}
	}
	return nil, false
}

func intField(raw recordstore.RawRecord, names ...string) int {
	value, ok := lookup(raw, names...)
	if !ok {
		return 0
	}
	if id, ok := intValue(value); ok {
		return id
	}
	return 0
}

// intValue coerces the numeric representations seen across both shapes:
// JSON numbers decode as float64, relation fields may be {Id: n} objects,
// and some upstream exports stringify ids.
func intValue(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		id, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return id, true
	case map[string]any:
		if inner, ok := v["Id"]; ok {
			return intValue(inner)
		}
		return 0, false
	case recordstore.RawRecord:
		if inner, ok := v["Id"]; ok {
			return intValue(inner)
		}
		return 0, false
	default:
		return 0, false
	}
}

func stringField(raw recordstore.RawRecord, names ...string) string {
	value, ok := lookup(raw, names...)
	if !ok {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}

// timeField accepts RFC 3339 instants, bare dates, and time.Time values.
// Anything else yields the zero time.
func timeField(raw recordstore.RawRecord, names ...string) time.Time {
	value, ok := lookup(raw, names...)
	if !ok {
		return time.Time{}
	}
	switch v := value.(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
		if t, err := time.Parse("2006-01-02", v); err == nil {
			return t
		}
		return time.Time{}
	default:
		return time.Time{}
	}
}

func rosterField(raw recordstore.RawRecord, names ...string) []int {
	value, ok := lookup(raw, names...)
	if !ok {
		return nil
	}
	return Roster(value)
}
