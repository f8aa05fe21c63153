package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pulsetrack/attendance-api/internal/models"
)

const unknownDateLabel = "Unknown Date"

type statsLedger interface {
	ListAll(ctx context.Context) ([]models.AttendanceRecord, error)
	ListBySession(ctx context.Context, sessionID int) ([]models.AttendanceRecord, error)
	ListByParticipant(ctx context.Context, participantID int) ([]models.AttendanceRecord, error)
}

type sessionDirectory interface {
	List(ctx context.Context) ([]models.Session, error)
	Get(ctx context.Context, id int) (*models.Session, error)
}

type participantDirectory interface {
	List(ctx context.Context) ([]models.Participant, error)
}

// StatsService derives statistics from the ledger on demand. Nothing is
// stored; given the same ledger contents every computation is
// deterministic, including tie-breaks, which preserve directory order.
type StatsService struct {
	ledger       statsLedger
	sessions     sessionDirectory
	participants participantDirectory
	cache        *CacheService
	metrics      *MetricsService
	logger       *zap.Logger
}

// NewStatsService constructs the statistics aggregator.
func NewStatsService(ledger statsLedger, sessions sessionDirectory, participants participantDirectory, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{ledger: ledger, sessions: sessions, participants: participants, cache: cache, metrics: metrics, logger: logger}
}

// SessionStats counts a session's records per status. Total is the record
// count, not the roster size; unmarked roster members contribute nothing.
func (s *StatsService) SessionStats(ctx context.Context, sessionID int) (*models.SessionStats, error) {
	cacheKey := makeStatsKey("session", fmt.Sprint(sessionID))
	var cached models.SessionStats
	if hit, err := s.cacheGet(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	records, err := s.ledger.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	stats := &models.SessionStats{Total: len(records)}
	for _, record := range records {
		switch record.Status {
		case models.StatusPresent:
			stats.Present++
		case models.StatusAbsent:
			stats.Absent++
		case models.StatusLate:
			stats.Late++
		case models.StatusExcused:
			stats.Excused++
		}
	}
	stats.Rate = rate(stats.Present, stats.Total)
	s.cacheSet(ctx, cacheKey, stats)
	return stats, nil
}

// ParticipantStats counts a participant's records across sessions.
func (s *StatsService) ParticipantStats(ctx context.Context, participantID int) (*models.ParticipantStats, error) {
	cacheKey := makeStatsKey("participant", fmt.Sprint(participantID))
	var cached models.ParticipantStats
	if hit, err := s.cacheGet(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	records, err := s.ledger.ListByParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	stats := &models.ParticipantStats{TotalSessions: len(records)}
	for _, record := range records {
		switch record.Status {
		case models.StatusPresent:
			stats.Present++
		case models.StatusAbsent:
			stats.Absent++
		case models.StatusLate:
			stats.Late++
		case models.StatusExcused:
			stats.Excused++
		}
	}
	stats.Rate = rate(stats.Present, stats.TotalSessions)
	s.cacheSet(ctx, cacheKey, stats)
	return stats, nil
}

// Trend computes the per-session attendance rate series ordered by
// ascending session date. Sessions sharing a date keep their directory
// order.
func (s *StatsService) Trend(ctx context.Context) ([]models.TrendPoint, error) {
	cacheKey := makeStatsKey("trend")
	var cached []models.TrendPoint
	if hit, err := s.cacheGet(ctx, cacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	start := time.Now()
	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.ledger.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveStoreOperation("stats_trend", time.Since(start))
	}

	ordered := make([]models.Session, len(sessions))
	copy(ordered, sessions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	bySession := make(map[int][]models.AttendanceRecord)
	for _, record := range records {
		bySession[record.SessionID] = append(bySession[record.SessionID], record)
	}

	points := make([]models.TrendPoint, 0, len(ordered))
	for _, session := range ordered {
		sessionRecords := bySession[session.ID]
		present := 0
		for _, record := range sessionRecords {
			if record.Status == models.StatusPresent {
				present++
			}
		}
		points = append(points, models.TrendPoint{
			SessionID:   session.ID,
			SessionName: session.Name,
			Date:        session.Date,
			Present:     present,
			Total:       len(sessionRecords),
			Rate:        rate(present, len(sessionRecords)),
		})
	}
	s.cacheSet(ctx, cacheKey, points)
	return points, nil
}

// Rankings returns every participant ranked by attendance rate descending.
// Participants with equal rates keep their directory order, so repeated
// calls always produce the same ranking.
func (s *StatsService) Rankings(ctx context.Context) ([]models.PerformerRank, error) {
	cacheKey := makeStatsKey("rankings")
	var cached []models.PerformerRank
	if hit, err := s.cacheGet(ctx, cacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	participants, err := s.participants.List(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.ledger.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	byParticipant := make(map[int][]models.AttendanceRecord)
	for _, record := range records {
		byParticipant[record.ParticipantID] = append(byParticipant[record.ParticipantID], record)
	}

	ranks := make([]models.PerformerRank, 0, len(participants))
	for _, participant := range participants {
		participantRecords := byParticipant[participant.ID]
		present := 0
		for _, record := range participantRecords {
			if record.Status == models.StatusPresent {
				present++
			}
		}
		ranks = append(ranks, models.PerformerRank{
			Participant:    participant,
			AttendanceRate: rate(present, len(participantRecords)),
			TotalSessions:  len(participantRecords),
			PresentCount:   present,
		})
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].AttendanceRate > ranks[j].AttendanceRate
	})
	s.cacheSet(ctx, cacheKey, ranks)
	return ranks, nil
}

// TopPerformers returns the first limit entries of the full ranking.
func (s *StatsService) TopPerformers(ctx context.Context, limit int) ([]models.PerformerRank, error) {
	ranks, err := s.Rankings(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(ranks) > limit {
		ranks = ranks[:limit]
	}
	return ranks, nil
}

// History joins a participant's records with their sessions and sorts the
// result by session date, most recent first. A failed session lookup does
// not fail the assembly: the entry carries placeholder session fields, with
// the date taken from the record's own timestamp when it has one.
func (s *StatsService) History(ctx context.Context, participantID int) ([]models.HistoryEntry, error) {
	records, err := s.ledger.ListByParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}

	entries := make([]models.HistoryEntry, 0, len(records))
	for _, record := range records {
		entry := models.HistoryEntry{AttendanceRecord: record}
		session, err := s.sessions.Get(ctx, record.SessionID)
		if err != nil {
			s.logger.Debug("session lookup failed for history entry",
				zap.Int("session_id", record.SessionID),
				zap.Int("record_id", record.ID),
				zap.Error(err))
			entry.SessionName = "Unknown Session"
			entry.SessionType = "Unknown"
			if !record.Timestamp.IsZero() {
				entry.SessionDate = record.Timestamp.Truncate(24 * time.Hour)
			}
		} else {
			entry.SessionName = session.Name
			entry.SessionType = session.Type
			entry.SessionDate = session.Date
		}
		entry.DateLabel = dateLabel(entry.SessionDate)
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SessionDate.After(entries[j].SessionDate)
	})
	return entries, nil
}

// Overview summarises the ledger for the reports landing view.
func (s *StatsService) Overview(ctx context.Context) (*models.Overview, error) {
	cacheKey := makeStatsKey("overview")
	var cached models.Overview
	if hit, err := s.cacheGet(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return nil, err
	}
	participants, err := s.participants.List(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.ledger.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	present := 0
	for _, record := range records {
		if record.Status == models.StatusPresent {
			present++
		}
	}
	overview := &models.Overview{
		TotalSessions:     len(sessions),
		TotalParticipants: len(participants),
		TotalRecords:      len(records),
		OverallRate:       rate(present, len(records)),
	}
	s.cacheSet(ctx, cacheKey, overview)
	return overview, nil
}

// Distribution counts records per status across the whole ledger. The
// counts are taken from the records themselves, never approximated.
func (s *StatsService) Distribution(ctx context.Context) (*models.StatusDistribution, error) {
	cacheKey := makeStatsKey("distribution")
	var cached models.StatusDistribution
	if hit, err := s.cacheGet(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	records, err := s.ledger.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	distribution := &models.StatusDistribution{}
	for _, record := range records {
		switch record.Status {
		case models.StatusPresent:
			distribution.Present++
		case models.StatusAbsent:
			distribution.Absent++
		case models.StatusLate:
			distribution.Late++
		case models.StatusExcused:
			distribution.Excused++
		}
	}
	s.cacheSet(ctx, cacheKey, distribution)
	return distribution, nil
}

// rate is round-half-up(present/total*100), 0 when total is 0.
func rate(present, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(present) / float64(total) * 100))
}

func dateLabel(date time.Time) string {
	if date.IsZero() {
		return unknownDateLabel
	}
	return date.Format("2006-01-02")
}

func (s *StatsService) cacheGet(ctx context.Context, key string, dest interface{}) (bool, error) {
	if s.cache == nil {
		return false, nil
	}
	return s.cache.Get(ctx, key, dest)
}

func (s *StatsService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, 0); err != nil {
		s.logger.Warn("cache stats", zap.String("key", key), zap.Error(err))
	}
}

func makeStatsKey(parts ...string) string {
	var builder strings.Builder
	builder.Grow(len(parts) * 12)
	builder.WriteString("stats")
	for _, part := range parts {
		if part == "" {
			continue
		}
		builder.WriteByte(':')
		builder.WriteString(strings.ReplaceAll(part, ":", "|"))
	}
	return builder.String()
}
