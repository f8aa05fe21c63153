package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	appErrors "github.com/pulsetrack/attendance-api/pkg/errors"
	"github.com/pulsetrack/attendance-api/pkg/export"
)

// Report formats supported by the export endpoints.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// ReportService turns statistics into downloadable documents.
type ReportService struct {
	stats    *StatsService
	sessions sessionDirectory
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
}

// NewReportService constructs the report service.
func NewReportService(stats *StatsService, sessions sessionDirectory) *ReportService {
	return &ReportService{
		stats:    stats,
		sessions: sessions,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
	}
}

// RankingReport renders the full attendance ranking in the requested format.
// It returns the document bytes and the content type.
func (s *ReportService) RankingReport(ctx context.Context, format string) ([]byte, string, error) {
	ranks, err := s.stats.Rankings(ctx)
	if err != nil {
		return nil, "", err
	}
	dataset := export.Dataset{
		Headers: []string{"Participant ID", "Name", "Attendance Rate (%)", "Sessions", "Present"},
		Rows:    make([][]string, 0, len(ranks)),
	}
	for _, rank := range ranks {
		dataset.Rows = append(dataset.Rows, []string{
			strconv.Itoa(rank.Participant.ID),
			rank.Participant.Name,
			strconv.Itoa(rank.AttendanceRate),
			strconv.Itoa(rank.TotalSessions),
			strconv.Itoa(rank.PresentCount),
		})
	}
	return s.render(dataset, "Attendance Ranking", format)
}

// SessionReport renders one session's attendance records in the requested
// format.
func (s *ReportService) SessionReport(ctx context.Context, sessionID int, format string) ([]byte, string, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}
	records, err := s.stats.ledger.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}
	dataset := export.Dataset{
		Headers: []string{"Record ID", "Participant ID", "Status", "Marked At", "Notes"},
		Rows:    make([][]string, 0, len(records)),
	}
	for _, record := range records {
		markedAt := ""
		if !record.Timestamp.IsZero() {
			markedAt = record.Timestamp.Format(time.RFC3339)
		}
		dataset.Rows = append(dataset.Rows, []string{
			strconv.Itoa(record.ID),
			strconv.Itoa(record.ParticipantID),
			string(record.Status),
			markedAt,
			record.Notes,
		})
	}
	title := fmt.Sprintf("Attendance %s (%s)", session.Name, dateLabel(session.Date))
	return s.render(dataset, title, format)
}

func (s *ReportService) render(dataset export.Dataset, title, format string) ([]byte, string, error) {
	switch format {
	case FormatCSV, "":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case FormatPDF:
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
}
