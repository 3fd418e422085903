package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"actilog/internal/errors"
	"actilog/internal/export"
	"actilog/internal/model"
	"actilog/internal/repository"
)

// Export periods accepted by Export.
const (
	ExportDaily   = "daily"
	ExportMonthly = "monthly"
	ExportYearly  = "yearly"
)

const (
	overviewRecentLimit = 10
	overviewTopLimit    = 5
)

// Overview is the admin landing payload: instance totals plus the
// current month's most active users and clients.
type Overview struct {
	TotalUsers    int64                      `json:"total_users"`
	TotalEntries  int64                      `json:"total_entries"`
	TodayEntries  int64                      `json:"today_entries"`
	RecentEntries []model.EntryView          `json:"recent_entries"`
	TopUsers      []repository.UserMinutes   `json:"top_users"`
	TopClients    []repository.ClientMinutes `json:"top_clients"`
}

// ReportTotals aggregates one reporting window.
type ReportTotals struct {
	Label   string          `json:"label"`
	Entries int64           `json:"entries"`
	Minutes int64           `json:"minutes"`
	Hours   decimal.Decimal `json:"hours"`
}

// MonthlyReport is the admin reporting payload: totals for the requested
// month and its year, with per-user and per-courtier breakdowns.
type MonthlyReport struct {
	Month      ReportTotals                 `json:"month"`
	Year       ReportTotals                 `json:"year"`
	ByUser     []repository.UserMinutes     `json:"by_user"`
	ByCourtier []repository.CourtierMinutes `json:"by_courtier"`
}

// ReportService aggregates activity for the admin screens and builds
// spreadsheet exports.
type ReportService interface {
	Overview(ctx context.Context) (*Overview, error)
	Report(ctx context.Context, month, year int) (*MonthlyReport, error)
	Export(ctx context.Context, period string, anchor time.Time) (filename string, data []byte, err error)
}

type reportService struct {
	entryRepo repository.EntryRepository
	userRepo  repository.UserRepository
}

// NewReportService creates a new report service.
func NewReportService(entryRepo repository.EntryRepository, userRepo repository.UserRepository) ReportService {
	return &reportService{entryRepo: entryRepo, userRepo: userRepo}
}

func (s *reportService) Overview(ctx context.Context) (*Overview, error) {
	totalUsers, err := s.userRepo.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	totalEntries, err := s.entryRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count entries: %w", err)
	}
	todayEntries, err := s.entryRepo.CountForDay(ctx, startOfDay(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("count today entries: %w", err)
	}

	recent, err := s.entryRepo.Recent(ctx, overviewRecentLimit)
	if err != nil {
		return nil, fmt.Errorf("recent entries: %w", err)
	}
	views := make([]model.EntryView, 0, len(recent))
	for i := range recent {
		views = append(views, recent[i].View())
	}

	period := time.Now().Format(model.PeriodLayout)
	topUsers, err := s.entryRepo.TotalsByUser(ctx, period, overviewTopLimit)
	if err != nil {
		return nil, fmt.Errorf("top users: %w", err)
	}
	topClients, err := s.entryRepo.TotalsByClient(ctx, period, overviewTopLimit)
	if err != nil {
		return nil, fmt.Errorf("top clients: %w", err)
	}

	return &Overview{
		TotalUsers:    totalUsers,
		TotalEntries:  totalEntries,
		TodayEntries:  todayEntries,
		RecentEntries: views,
		TopUsers:      topUsers,
		TopClients:    topClients,
	}, nil
}

// Report aggregates one month. Out-of-range month/year values fall back
// to the current period, matching the reporting screen's default view.
func (s *reportService) Report(ctx context.Context, month, year int) (*MonthlyReport, error) {
	now := time.Now()
	if month < 1 || month > 12 {
		month = int(now.Month())
	}
	if year <= 0 {
		year = now.Year()
	}

	period := fmt.Sprintf("%04d%02d", year, month)
	monthEntries, monthMinutes, err := s.entryRepo.PeriodTotals(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("month totals: %w", err)
	}

	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, now.Location())
	yearEnd := time.Date(year, time.December, 31, 0, 0, 0, 0, now.Location())
	yearEntries, yearMinutes, err := s.entryRepo.RangeTotals(ctx, yearStart, yearEnd)
	if err != nil {
		return nil, fmt.Errorf("year totals: %w", err)
	}

	byUser, err := s.entryRepo.TotalsByUser(ctx, period, 0)
	if err != nil {
		return nil, fmt.Errorf("totals by user: %w", err)
	}
	byCourtier, err := s.entryRepo.TotalsByCourtier(ctx, period, 0)
	if err != nil {
		return nil, fmt.Errorf("totals by courtier: %w", err)
	}

	return &MonthlyReport{
		Month: ReportTotals{
			Label:   period,
			Entries: monthEntries,
			Minutes: monthMinutes,
			Hours:   hoursOf(monthMinutes),
		},
		Year: ReportTotals{
			Label:   fmt.Sprintf("%d", year),
			Entries: yearEntries,
			Minutes: yearMinutes,
			Hours:   hoursOf(yearMinutes),
		},
		ByUser:     byUser,
		ByCourtier: byCourtier,
	}, nil
}

// Export builds an xlsx report for the day, month or year containing
// anchor and returns it as bytes ready to serve as an attachment.
// A zero anchor exports the current period.
func (s *reportService) Export(ctx context.Context, period string, anchor time.Time) (string, []byte, error) {
	now := anchor
	if now.IsZero() {
		now = time.Now()
	}
	day := startOfDay(now)

	var (
		from, to time.Time
		filename string
		opts     export.Options
	)
	switch period {
	case ExportDaily:
		from, to = day, day
		filename = fmt.Sprintf("daily_report_%s.xlsx", day.Format("20060102"))
		opts = export.Options{Title: "Daily Report - " + day.Format(model.DateLayout)}
	case ExportMonthly:
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		to = from.AddDate(0, 1, -1)
		label := now.Format(model.PeriodLayout)
		filename = fmt.Sprintf("monthly_report_%s.xlsx", label)
		opts = export.Options{
			Title:          "Monthly Report - " + label,
			DailyBreakdown: true,
		}
	case ExportYearly:
		from = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		to = time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, now.Location())
		filename = fmt.Sprintf("yearly_report_%d.xlsx", now.Year())
		opts = export.Options{
			Title:              fmt.Sprintf("Yearly Report - %d", now.Year()),
			MonthlyBreakdown:   true,
			QuarterlyBreakdown: true,
			TopClients:         true,
		}
	default:
		return "", nil, errors.ErrInvalidExportPeriod
	}

	entries, err := s.entryRepo.ListRange(ctx, from, to)
	if err != nil {
		return "", nil, fmt.Errorf("load entries: %w", err)
	}
	if len(entries) == 0 {
		return "", nil, errors.ErrNoEntries
	}

	workbook, err := export.Workbook(entries, opts)
	if err != nil {
		return "", nil, fmt.Errorf("build workbook: %w", err)
	}
	defer workbook.Close()

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		return "", nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return filename, buf.Bytes(), nil
}

// hoursOf converts minutes to hours with two decimal places.
func hoursOf(minutes int64) decimal.Decimal {
	return decimal.NewFromInt(minutes).Div(decimal.NewFromInt(60)).Round(2)
}
