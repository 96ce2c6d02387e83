// Package sync orchestrates a sync run: pull yesterday's ad insights from
// the Graph API, filter by ad creation date, reshape into daily rows, and
// append them to the spreadsheet.
package sync

import (
	"context"
	"strconv"
	"time"

	"github.com/zetalabs/teliads/internal/facebook"
	"github.com/zetalabs/teliads/internal/logger"
)

// notAvailable fills name columns when the Graph API omits them.
const notAvailable = "Not Available"

// InsightsFetcher is the Graph API surface the service depends on.
type InsightsFetcher interface {
	FetchInsights(ctx context.Context, date string) ([]facebook.AdInsight, error)
	FilterByCutoff(ctx context.Context, insights []facebook.AdInsight) ([]facebook.AdInsight, error)
}

// RowWriter is the spreadsheet surface the service depends on.
type RowWriter interface {
	WriteRows(ctx context.Context, rows [][]interface{}) (int, error)
}

// Report summarizes a completed sync run.
type Report struct {
	Date        string `json:"date"`
	AdsFetched  int    `json:"ads_fetched"`
	AdsKept     int    `json:"ads_kept"`
	RowsWritten int    `json:"rows_written"`
}

// Service runs sync operations.
type Service struct {
	fetcher InsightsFetcher
	writer  RowWriter
	log     *logger.Logger
	now     func() time.Time
}

// NewService creates a sync service.
func NewService(fetcher InsightsFetcher, writer RowWriter, log *logger.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		writer:  writer,
		log:     log.WithComponent("sync"),
		now:     time.Now,
	}
}

// Run executes one full sync for yesterday's data.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	date := s.now().AddDate(0, 0, -1).Format("2006-01-02")

	start := time.Now()
	s.log.Info("Starting sync", map[string]interface{}{"date": date})

	insights, err := s.fetcher.FetchInsights(ctx, date)
	if err != nil {
		return nil, err
	}

	kept, err := s.fetcher.FilterByCutoff(ctx, insights)
	if err != nil {
		return nil, err
	}

	rows := s.BuildRows(date, kept)

	written, err := s.writer.WriteRows(ctx, rows)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Date:        date,
		AdsFetched:  len(insights),
		AdsKept:     len(kept),
		RowsWritten: written,
	}
	s.log.Info("Sync completed", map[string]interface{}{
		"date":         report.Date,
		"ads_fetched":  report.AdsFetched,
		"ads_kept":     report.AdsKept,
		"rows_written": report.RowsWritten,
		"duration_ms":  time.Since(start).Milliseconds(),
	})
	return report, nil
}

// BuildRows reshapes insights into spreadsheet rows: date, campaign name,
// ad name, spend, date_start, date_stop. Missing names become
// "Not Available"; a non-numeric spend becomes 0 with a warning.
func (s *Service) BuildRows(date string, insights []facebook.AdInsight) [][]interface{} {
	rows := make([][]interface{}, 0, len(insights))

	for _, entry := range insights {
		spend, err := strconv.ParseFloat(entry.Spend, 64)
		if err != nil {
			s.log.Warn("Invalid spend value, recording as 0", map[string]interface{}{
				"ad_id": entry.AdID,
				"spend": entry.Spend,
			})
			spend = 0
		}

		campaign := entry.CampaignName
		if campaign == "" {
			campaign = notAvailable
		}
		adName := entry.AdName
		if adName == "" {
			adName = notAvailable
		}

		rows = append(rows, []interface{}{
			date,
			campaign,
			adName,
			spend,
			date,
			date,
		})
	}

	return rows
}
