package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"actilog/internal/model"
)

// Listing page bounds.
const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// EntryFilter narrows entry listings. Nil/zero fields are ignored.
type EntryFilter struct {
	UserID     uint
	CourtierID uint
	ActeType   model.ActeType
	ClientName string
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int
	PerPage    int
}

// DayStat aggregates one day of activity.
type DayStat struct {
	Day     string `json:"date"`
	Minutes int    `json:"minutes"`
	Calls   int    `json:"calls"`
}

// UserMinutes aggregates minutes logged per user.
type UserMinutes struct {
	UserID   uint   `json:"user_id"`
	FullName string `json:"full_name"`
	Minutes  int    `json:"minutes"`
	Calls    int    `json:"calls"`
}

// CourtierMinutes aggregates minutes logged per courtier.
type CourtierMinutes struct {
	CourtierID uint   `json:"courtier_id"`
	Name       string `json:"name"`
	Minutes    int    `json:"minutes"`
	Calls      int    `json:"calls"`
}

// ClientMinutes aggregates minutes logged per client name.
type ClientMinutes struct {
	ClientName string `json:"client_name"`
	Minutes    int    `json:"minutes"`
	Calls      int    `json:"calls"`
}

// EntryRepository defines entry persistence operations.
type EntryRepository interface {
	Create(ctx context.Context, entry *model.Entry) error
	FindByID(ctx context.Context, id uint) (*model.Entry, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter EntryFilter) ([]model.Entry, int64, error)
	ListRange(ctx context.Context, from, to time.Time) ([]model.Entry, error)
	Recent(ctx context.Context, limit int) ([]model.Entry, error)
	DayStats(ctx context.Context, userID uint, day time.Time) (DayStat, error)
	LastEntryForDay(ctx context.Context, userID uint, day time.Time) (*model.Entry, error)
	DailyTotals(ctx context.Context, userID uint, from, to time.Time) ([]DayStat, error)

	Count(ctx context.Context) (int64, error)
	CountForDay(ctx context.Context, day time.Time) (int64, error)
	CountForCourtier(ctx context.Context, courtierID uint) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	PeriodTotals(ctx context.Context, period string) (entries int64, minutes int64, err error)
	RangeTotals(ctx context.Context, from, to time.Time) (entries int64, minutes int64, err error)
	TotalsByUser(ctx context.Context, period string, limit int) ([]UserMinutes, error)
	TotalsByCourtier(ctx context.Context, period string, limit int) ([]CourtierMinutes, error)
	TotalsByClient(ctx context.Context, period string, limit int) ([]ClientMinutes, error)

	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo EntryRepository) error) error
}

type entryRepository struct {
	db *gorm.DB
}

// NewEntryRepository builds a GORM-backed repository.
func NewEntryRepository(db *gorm.DB) EntryRepository {
	return &entryRepository{db: db}
}

// Create inserts the entry row only; populated relations are kept for
// rendering but never written back.
func (r *entryRepository) Create(ctx context.Context, entry *model.Entry) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(entry).Error
}

// FindByID loads an entry with its user and courtier resolved.
func (r *entryRepository) FindByID(ctx context.Context, id uint) (*model.Entry, error) {
	var entry model.Entry
	err := r.db.WithContext(ctx).
		Preload("User").Preload("Courtier").
		First(&entry, id).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *entryRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Entry{}, id).Error
}

// List returns a page of entries newest-first plus the unpaged total.
func (r *entryRepository) List(ctx context.Context, filter EntryFilter) ([]model.Entry, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Entry{})

	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.CourtierID != 0 {
		q = q.Where("courtier_id = ?", filter.CourtierID)
	}
	if filter.ActeType != "" {
		q = q.Where("acte_type = ?", filter.ActeType)
	}
	if filter.ClientName != "" {
		q = q.Where("client_name ILIKE ?", "%"+filter.ClientName+"%")
	}
	if filter.StartDate != nil {
		q = q.Where("date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("date <= ?", *filter.EndDate)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	var entries []model.Entry
	err := q.Preload("User").Preload("Courtier").
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ListRange returns every entry with date in [from, to], oldest first,
// with relations resolved. Used by the report exporter.
func (r *entryRepository) ListRange(ctx context.Context, from, to time.Time) ([]model.Entry, error) {
	var entries []model.Entry
	err := r.db.WithContext(ctx).
		Preload("User").Preload("Courtier").
		Where("date BETWEEN ? AND ?", from, to).
		Order("date, time").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *entryRepository) Recent(ctx context.Context, limit int) ([]model.Entry, error) {
	var entries []model.Entry
	err := r.db.WithContext(ctx).
		Preload("User").Preload("Courtier").
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// CountCreatedSince counts entries created after the given instant.
func (r *entryRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Entry{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

// DayStats sums one user's minutes and call count for a single day.
func (r *entryRepository) DayStats(ctx context.Context, userID uint, day time.Time) (DayStat, error) {
	var stat DayStat
	err := r.db.WithContext(ctx).Model(&model.Entry{}).
		Select("coalesce(sum(minutes), 0) as minutes, count(*) as calls").
		Where("user_id = ? AND date = ?", userID, day).
		Scan(&stat).Error
	if err != nil {
		return DayStat{}, err
	}
	stat.Day = day.Format(model.DateLayout)
	return stat, nil
}

// LastEntryForDay returns the user's most recent entry of the given day.
func (r *entryRepository) LastEntryForDay(ctx context.Context, userID uint, day time.Time) (*model.Entry, error) {
	var entry model.Entry
	err := r.db.WithContext(ctx).
		Preload("User").Preload("Courtier").
		Where("user_id = ? AND date = ?", userID, day).
		Order("created_at DESC").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// DailyTotals groups one user's minutes and calls per day over [from, to].
// Days without entries produce no row; the service zero-fills.
func (r *entryRepository) DailyTotals(ctx context.Context, userID uint, from, to time.Time) ([]DayStat, error) {
	var stats []DayStat
	err := r.db.WithContext(ctx).Model(&model.Entry{}).
		Select("to_char(date, 'YYYY-MM-DD') as day, coalesce(sum(minutes), 0) as minutes, count(*) as calls").
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, from, to).
		Group("day").
		Order("day").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *entryRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Entry{}).Count(&n).Error
	return n, err
}

func (r *entryRepository) CountForDay(ctx context.Context, day time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Entry{}).
		Where("date = ?", day).Count(&n).Error
	return n, err
}

func (r *entryRepository) CountForCourtier(ctx context.Context, courtierID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Entry{}).
		Where("courtier_id = ?", courtierID).Count(&n).Error
	return n, err
}

// PeriodTotals returns the entry count and summed minutes for one YYYYMM period.
func (r *entryRepository) PeriodTotals(ctx context.Context, period string) (int64, int64, error) {
	var totals struct {
		Entries int64
		Minutes int64
	}
	err := r.db.WithContext(ctx).Model(&model.Entry{}).
		Select("COUNT(id) AS entries, COALESCE(SUM(minutes), 0) AS minutes").
		Where("period = ?", period).
		Scan(&totals).Error
	return totals.Entries, totals.Minutes, err
}

// RangeTotals returns the entry count and summed minutes over [from, to].
func (r *entryRepository) RangeTotals(ctx context.Context, from, to time.Time) (int64, int64, error) {
	var totals struct {
		Entries int64
		Minutes int64
	}
	err := r.db.WithContext(ctx).Model(&model.Entry{}).
		Select("COUNT(id) AS entries, COALESCE(SUM(minutes), 0) AS minutes").
		Where("date >= ? AND date <= ?", from, to).
		Scan(&totals).Error
	return totals.Entries, totals.Minutes, err
}

// TotalsByUser ranks users by minutes logged within a period.
// limit <= 0 returns all users.
func (r *entryRepository) TotalsByUser(ctx context.Context, period string, limit int) ([]UserMinutes, error) {
	var totals []UserMinutes
	q := r.db.WithContext(ctx).Model(&model.Entry{}).
		Select("entries.user_id, users.full_name, coalesce(sum(entries.minutes), 0) as minutes, count(*) as calls").
		Joins("JOIN users ON users.id = entries.user_id").
		Where("entries.period = ?", period).
		Group("entries.user_id, users.full_name").
		Order("minutes DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(&totals).Error; err != nil {
		return nil, err
	}
	return totals, nil
}

// TotalsByCourtier ranks courtiers by minutes logged within a period.
func (r *entryRepository) TotalsByCourtier(ctx context.Context, period string, limit int) ([]CourtierMinutes, error) {
	var totals []CourtierMinutes
	q := r.db.WithContext(ctx).Model(&model.Entry{}).
		Select("entries.courtier_id, courtiers.name, coalesce(sum(entries.minutes), 0) as minutes, count(*) as calls").
		Joins("JOIN courtiers ON courtiers.id = entries.courtier_id").
		Where("entries.period = ?", period).
		Group("entries.courtier_id, courtiers.name").
		Order("minutes DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(&totals).Error; err != nil {
		return nil, err
	}
	return totals, nil
}

// TotalsByClient ranks client names by minutes logged within a period.
func (r *entryRepository) TotalsByClient(ctx context.Context, period string, limit int) ([]ClientMinutes, error) {
	var totals []ClientMinutes
	q := r.db.WithContext(ctx).Model(&model.Entry{}).
		Select("client_name, coalesce(sum(minutes), 0) as minutes, count(*) as calls").
		Where("period = ?", period).
		Group("client_name").
		Order("minutes DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(&totals).Error; err != nil {
		return nil, err
	}
	return totals, nil
}

// WithTransaction executes a function within a database transaction.
func (r *entryRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo EntryRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &entryRepository{db: tx}
		return fn(ctx, txRepo)
	})
}
