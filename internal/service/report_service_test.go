package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsetrack/attendance-api/internal/repository"
	appErrors "github.com/pulsetrack/attendance-api/pkg/errors"
)

func newReportFixture(t *testing.T) (*ReportService, statsFixture) {
	t.Helper()
	f := newStatsFixture(t)
	sessions := repository.NewSessionRepository(f.store)
	return NewReportService(f.stats, sessions), f
}

func TestRankingReportCSV(t *testing.T) {
	reports, f := newReportFixture(t)
	f.addParticipant(t, 1, "Ada")
	f.addParticipant(t, 2, "Ben")
	f.addRecord(t, 1, 1, 1, "present")
	f.addRecord(t, 2, 1, 2, "absent")

	payload, contentType, err := reports.RankingReport(context.Background(), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Attendance Rate")
	assert.Contains(t, lines[1], "Ada")
	assert.Contains(t, lines[1], "100")
	assert.Contains(t, lines[2], "Ben")
}

func TestSessionReportPDF(t *testing.T) {
	reports, f := newReportFixture(t)
	f.addSession(t, 1, "Kickoff", "2024-01-10")
	f.addRecord(t, 1, 1, 10, "present")

	payload, contentType, err := reports.SessionReport(context.Background(), 1, FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}

func TestReportUnknownFormat(t *testing.T) {
	reports, f := newReportFixture(t)
	f.addParticipant(t, 1, "Ada")

	_, _, err := reports.RankingReport(context.Background(), "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSessionReportUnknownSession(t *testing.T) {
	reports, _ := newReportFixture(t)

	_, _, err := reports.SessionReport(context.Background(), 42, FormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
