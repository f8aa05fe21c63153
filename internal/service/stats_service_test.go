package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsetrack/attendance-api/internal/models"
	"github.com/pulsetrack/attendance-api/internal/recordstore"
	"github.com/pulsetrack/attendance-api/internal/repository"
)

type statsFixture struct {
	store *recordstore.Memory
	stats *StatsService
}

func newStatsFixture(t *testing.T) statsFixture {
	t.Helper()
	store := recordstore.NewMemory()
	ledger := repository.NewAttendanceRepository(store)
	sessions := repository.NewSessionRepository(store)
	participants := repository.NewParticipantRepository(store)
	stats := NewStatsService(ledger, sessions, participants, nil, nil, nil)
	return statsFixture{store: store, stats: stats}
}

func (f statsFixture) addSession(t *testing.T, id int, name, date string) {
	t.Helper()
	require.NoError(t, f.store.Create(context.Background(), recordstore.EntitySession, id, recordstore.RawRecord{
		"Name":   name,
		"date_c": date,
	}))
}

func (f statsFixture) addParticipant(t *testing.T, id int, name string) {
	t.Helper()
	require.NoError(t, f.store.Create(context.Background(), recordstore.EntityParticipant, id, recordstore.RawRecord{
		"Name": name,
	}))
}

func (f statsFixture) addRecord(t *testing.T, id, sessionID, participantID int, status string) {
	t.Helper()
	require.NoError(t, f.store.Create(context.Background(), recordstore.EntityAttendance, id, recordstore.RawRecord{
		"session_id_c":     sessionID,
		"participant_id_c": participantID,
		"status_c":         status,
	}))
}

func TestSessionStatsCountsAndRate(t *testing.T) {
	f := newStatsFixture(t)
	f.addRecord(t, 1, 1, 10, "present")
	f.addRecord(t, 2, 1, 11, "present")
	f.addRecord(t, 3, 1, 12, "absent")
	f.addRecord(t, 4, 1, 13, "late")

	stats, err := f.stats.SessionStats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, &models.SessionStats{Total: 4, Present: 2, Absent: 1, Late: 1, Rate: 50}, stats)
}

func TestSessionStatsEmptySession(t *testing.T) {
	f := newStatsFixture(t)

	stats, err := f.stats.SessionStats(context.Background(), 7)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.Rate)
}

func TestRateRoundsHalfUp(t *testing.T) {
	assert.Equal(t, 33, rate(1, 3))
	assert.Equal(t, 67, rate(2, 3))
	assert.Equal(t, 13, rate(1, 8))
	assert.Equal(t, 100, rate(5, 5))
	assert.Equal(t, 0, rate(0, 0))
}

func TestParticipantStats(t *testing.T) {
	f := newStatsFixture(t)
	f.addRecord(t, 1, 1, 10, "present")
	f.addRecord(t, 2, 2, 10, "excused")
	f.addRecord(t, 3, 3, 10, "present")

	stats, err := f.stats.ParticipantStats(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, &models.ParticipantStats{TotalSessions: 3, Present: 2, Excused: 1, Rate: 67}, stats)
}

func TestTrendAscendingWithStableTies(t *testing.T) {
	f := newStatsFixture(t)
	f.addSession(t, 1, "March Review", "2024-03-01")
	f.addSession(t, 2, "January Kickoff", "2024-01-15")
	f.addSession(t, 3, "January Retro", "2024-01-15")
	f.addRecord(t, 1, 1, 10, "present")
	f.addRecord(t, 2, 2, 10, "absent")

	points, err := f.stats.Trend(context.Background())
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, 2, points[0].SessionID)
	assert.Equal(t, 3, points[1].SessionID)
	assert.Equal(t, 1, points[2].SessionID)
	assert.Equal(t, 0, points[0].Rate)
	assert.Equal(t, 0, points[1].Total)
	assert.Equal(t, 100, points[2].Rate)
}

func TestRankingsStableOnTies(t *testing.T) {
	f := newStatsFixture(t)
	f.addParticipant(t, 1, "Ada")
	f.addParticipant(t, 2, "Ben")
	f.addParticipant(t, 3, "Cleo")
	// Ada and Cleo both at 100%, Ben at 0%.
	f.addRecord(t, 1, 1, 1, "present")
	f.addRecord(t, 2, 1, 2, "absent")
	f.addRecord(t, 3, 1, 3, "present")

	ranks, err := f.stats.Rankings(context.Background())
	require.NoError(t, err)
	require.Len(t, ranks, 3)
	assert.Equal(t, "Ada", ranks[0].Participant.Name)
	assert.Equal(t, "Cleo", ranks[1].Participant.Name)
	assert.Equal(t, "Ben", ranks[2].Participant.Name)
}

func TestTopPerformersLimit(t *testing.T) {
	f := newStatsFixture(t)
	f.addParticipant(t, 1, "Ada")
	f.addParticipant(t, 2, "Ben")
	f.addParticipant(t, 3, "Cleo")

	top, err := f.stats.TopPerformers(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)

	all, err := f.stats.TopPerformers(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestHistorySortedBySessionDateDescending(t *testing.T) {
	f := newStatsFixture(t)
	f.addSession(t, 1, "Kickoff", "2024-01-01")
	f.addSession(t, 2, "Midpoint", "2024-02-01")
	f.addSession(t, 3, "Wrap", "2024-03-01")
	f.addRecord(t, 1, 1, 10, "present")
	f.addRecord(t, 2, 2, 10, "late")
	f.addRecord(t, 3, 3, 10, "absent")

	entries, err := f.stats.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Wrap", entries[0].SessionName)
	assert.Equal(t, "Midpoint", entries[1].SessionName)
	assert.Equal(t, "Kickoff", entries[2].SessionName)
	assert.Equal(t, "2024-03-01", entries[0].DateLabel)
}

func TestHistoryUnknownSessionPlaceholders(t *testing.T) {
	f := newStatsFixture(t)
	require.NoError(t, f.store.Create(context.Background(), recordstore.EntityAttendance, 1, recordstore.RawRecord{
		"session_id_c":     99,
		"participant_id_c": 10,
		"status_c":         "present",
		"timestamp_c":      "2024-02-10T09:00:00Z",
	}))
	require.NoError(t, f.store.Create(context.Background(), recordstore.EntityAttendance, 2, recordstore.RawRecord{
		"session_id_c":     98,
		"participant_id_c": 10,
		"status_c":         "absent",
	}))

	entries, err := f.stats.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	dated := entries[0]
	assert.Equal(t, "Unknown Session", dated.SessionName)
	assert.Equal(t, "Unknown", dated.SessionType)
	assert.Equal(t, "2024-02-10", dated.DateLabel)

	undated := entries[1]
	assert.Equal(t, "Unknown Session", undated.SessionName)
	assert.Equal(t, "Unknown Date", undated.DateLabel)
	assert.True(t, undated.SessionDate.IsZero())
}

func TestOverviewAndDistribution(t *testing.T) {
	f := newStatsFixture(t)
	f.addSession(t, 1, "Kickoff", "2024-01-01")
	f.addSession(t, 2, "Wrap", "2024-03-01")
	f.addParticipant(t, 10, "Ada")
	f.addParticipant(t, 11, "Ben")
	f.addRecord(t, 1, 1, 10, "present")
	f.addRecord(t, 2, 1, 11, "absent")
	f.addRecord(t, 3, 2, 10, "present")
	f.addRecord(t, 4, 2, 11, "excused")

	overview, err := f.stats.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &models.Overview{TotalSessions: 2, TotalParticipants: 2, TotalRecords: 4, OverallRate: 50}, overview)

	distribution, err := f.stats.Distribution(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &models.StatusDistribution{Present: 2, Absent: 1, Excused: 1}, distribution)
}

func TestStatsServesFromCache(t *testing.T) {
	f := newStatsFixture(t)
	cacheRepo := &stubCacheRepo{}
	f.stats.cache = NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	f.addRecord(t, 1, 1, 10, "present")

	first, err := f.stats.SessionStats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Total)

	// A write behind the cache's back is not visible until invalidation.
	f.addRecord(t, 2, 1, 11, "absent")
	cached, err := f.stats.SessionStats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cached.Total)

	require.NoError(t, f.stats.cache.Invalidate(context.Background(), "stats:*"))
	fresh, err := f.stats.SessionStats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.Total)
}
