package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"actilog/internal/cache"
	"actilog/internal/model"
	"actilog/internal/repository"
)

const (
	statsCacheTTL = time.Minute
	chartDays     = 7
)

func statsCacheKey(userID uint) string {
	return fmt.Sprintf("stats:today:%d", userID)
}

func dashboardCacheKey(userID uint) string {
	return fmt.Sprintf("stats:dashboard:%d", userID)
}

// TodayStats summarizes one user's current day.
type TodayStats struct {
	TodayMinutes int              `json:"today_minutes"`
	TodayCalls   int              `json:"today_calls"`
	LastEntry    *model.EntryView `json:"last_entry"`
}

// DashboardStats is the dashboard payload: today's counters plus a
// zero-filled per-day series covering the last chartDays days.
type DashboardStats struct {
	TodayMinutes int                  `json:"today_minutes"`
	TodayCalls   int                  `json:"today_calls"`
	ChartData    []repository.DayStat `json:"chart_data"`
}

// LiveStats is the admin live monitor payload.
type LiveStats struct {
	ActiveUsers      int64     `json:"active_users"`
	TodayEntries     int64     `json:"today_entries"`
	TodayMinutes     int64     `json:"today_minutes"`
	RecentActivity   int64     `json:"recent_activity"`
	ConnectedClients int       `json:"connected_clients"`
	Timestamp        time.Time `json:"timestamp"`
}

// PresenceCounter reports how many realtime clients are connected.
type PresenceCounter interface {
	ConnectedClients() int
}

// StatsService computes per-user and instance-wide activity counters.
type StatsService interface {
	Today(ctx context.Context, userID uint) (*TodayStats, error)
	Dashboard(ctx context.Context, actor Actor, targetUserID uint) (*DashboardStats, error)
	Chart(ctx context.Context, actor Actor, targetUserID uint, days int) (map[string]int, error)
	Live(ctx context.Context) (*LiveStats, error)
}

type statsService struct {
	entryRepo repository.EntryRepository
	userRepo  repository.UserRepository
	cache     *cache.Client
	presence  PresenceCounter
}

// NewStatsService creates a new stats service.
func NewStatsService(
	entryRepo repository.EntryRepository,
	userRepo repository.UserRepository,
	cache *cache.Client,
	presence PresenceCounter,
) StatsService {
	return &statsService{
		entryRepo: entryRepo,
		userRepo:  userRepo,
		cache:     cache,
		presence:  presence,
	}
}

// Today returns the user's counters for the current day. Results are
// cached briefly; entry writes invalidate the key.
func (s *statsService) Today(ctx context.Context, userID uint) (*TodayStats, error) {
	key := statsCacheKey(userID)

	var cached TodayStats
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	day := startOfDay(time.Now())
	dayStat, err := s.entryRepo.DayStats(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("day stats: %w", err)
	}

	stats := &TodayStats{
		TodayMinutes: dayStat.Minutes,
		TodayCalls:   dayStat.Calls,
	}

	last, err := s.entryRepo.LastEntryForDay(ctx, userID, day)
	switch {
	case err == nil:
		view := last.View()
		stats.LastEntry = &view
	case err != gorm.ErrRecordNotFound:
		return nil, fmt.Errorf("last entry: %w", err)
	}

	_ = s.cache.SetJSON(ctx, key, stats, statsCacheTTL)
	return stats, nil
}

// Dashboard returns today's counters plus a week of per-day minutes.
// Admins may request another user's dashboard; everyone else gets their own.
func (s *statsService) Dashboard(ctx context.Context, actor Actor, targetUserID uint) (*DashboardStats, error) {
	userID := actor.ID
	if actor.Admin && targetUserID != 0 {
		userID = targetUserID
	}
	key := dashboardCacheKey(userID)

	var cached DashboardStats
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	day := startOfDay(time.Now())
	dayStat, err := s.entryRepo.DayStats(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("day stats: %w", err)
	}

	from := day.AddDate(0, 0, -(chartDays - 1))
	totals, err := s.entryRepo.DailyTotals(ctx, userID, from, day)
	if err != nil {
		return nil, fmt.Errorf("daily totals: %w", err)
	}

	// Zero-fill so the series always spans the full window.
	chart := make([]repository.DayStat, chartDays)
	index := make(map[string]int, chartDays)
	for i := 0; i < chartDays; i++ {
		date := from.AddDate(0, 0, i).Format(model.DateLayout)
		chart[i] = repository.DayStat{Day: date}
		index[date] = i
	}
	for _, t := range totals {
		if i, ok := index[t.Day]; ok {
			chart[i].Minutes = t.Minutes
			chart[i].Calls = t.Calls
		}
	}

	stats := &DashboardStats{
		TodayMinutes: dayStat.Minutes,
		TodayCalls:   dayStat.Calls,
		ChartData:    chart,
	}
	_ = s.cache.SetJSON(ctx, key, stats, statsCacheTTL)
	return stats, nil
}

// Chart returns raw per-day minutes over the last days days. Unlike the
// dashboard series, days without entries are absent from the map.
func (s *statsService) Chart(ctx context.Context, actor Actor, targetUserID uint, days int) (map[string]int, error) {
	userID := actor.ID
	if actor.Admin && targetUserID != 0 {
		userID = targetUserID
	}
	if days < 1 {
		days = chartDays
	}
	if days > 365 {
		days = 365
	}

	day := startOfDay(time.Now())
	from := day.AddDate(0, 0, -(days - 1))
	totals, err := s.entryRepo.DailyTotals(ctx, userID, from, day)
	if err != nil {
		return nil, fmt.Errorf("daily totals: %w", err)
	}

	chart := make(map[string]int, len(totals))
	for _, t := range totals {
		chart[t.Day] = t.Minutes
	}
	return chart, nil
}

// Live returns instance-wide counters for the admin live monitor.
// Never cached: the point is watching the numbers move.
func (s *statsService) Live(ctx context.Context) (*LiveStats, error) {
	activeUsers, err := s.userRepo.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("count active users: %w", err)
	}

	now := time.Now()
	day := startOfDay(now)
	todayEntries, todayMinutes, err := s.entryRepo.RangeTotals(ctx, day, day)
	if err != nil {
		return nil, fmt.Errorf("today totals: %w", err)
	}

	recent, err := s.entryRepo.CountCreatedSince(ctx, now.Add(-time.Hour))
	if err != nil {
		return nil, fmt.Errorf("count recent entries: %w", err)
	}

	connected := 0
	if s.presence != nil {
		connected = s.presence.ConnectedClients()
	}

	return &LiveStats{
		ActiveUsers:      activeUsers,
		TodayEntries:     todayEntries,
		TodayMinutes:     todayMinutes,
		RecentActivity:   recent,
		ConnectedClients: connected,
		Timestamp:        now.UTC(),
	}, nil
}

// startOfDay truncates t to local midnight, matching the date column.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
