package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"actilog/internal/errors"
	"actilog/internal/model"
	"actilog/internal/repository"
)

// MockEntryRepository is a mock implementation of EntryRepository.
type MockEntryRepository struct {
	mock.Mock
}

func (m *MockEntryRepository) Create(ctx context.Context, entry *model.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockEntryRepository) FindByID(ctx context.Context, id uint) (*model.Entry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Entry), args.Error(1)
}

func (m *MockEntryRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEntryRepository) List(ctx context.Context, filter repository.EntryFilter) ([]model.Entry, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]model.Entry), args.Get(1).(int64), args.Error(2)
}

func (m *MockEntryRepository) ListRange(ctx context.Context, from, to time.Time) ([]model.Entry, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Entry), args.Error(1)
}

func (m *MockEntryRepository) Recent(ctx context.Context, limit int) ([]model.Entry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Entry), args.Error(1)
}

func (m *MockEntryRepository) DayStats(ctx context.Context, userID uint, day time.Time) (repository.DayStat, error) {
	args := m.Called(ctx, userID, day)
	return args.Get(0).(repository.DayStat), args.Error(1)
}

func (m *MockEntryRepository) LastEntryForDay(ctx context.Context, userID uint, day time.Time) (*model.Entry, error) {
	args := m.Called(ctx, userID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Entry), args.Error(1)
}

func (m *MockEntryRepository) DailyTotals(ctx context.Context, userID uint, from, to time.Time) ([]repository.DayStat, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.DayStat), args.Error(1)
}

func (m *MockEntryRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEntryRepository) CountForDay(ctx context.Context, day time.Time) (int64, error) {
	args := m.Called(ctx, day)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEntryRepository) CountForCourtier(ctx context.Context, courtierID uint) (int64, error) {
	args := m.Called(ctx, courtierID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEntryRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEntryRepository) PeriodTotals(ctx context.Context, period string) (int64, int64, error) {
	args := m.Called(ctx, period)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockEntryRepository) RangeTotals(ctx context.Context, from, to time.Time) (int64, int64, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockEntryRepository) TotalsByUser(ctx context.Context, period string, limit int) ([]repository.UserMinutes, error) {
	args := m.Called(ctx, period, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.UserMinutes), args.Error(1)
}

func (m *MockEntryRepository) TotalsByCourtier(ctx context.Context, period string, limit int) ([]repository.CourtierMinutes, error) {
	args := m.Called(ctx, period, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.CourtierMinutes), args.Error(1)
}

func (m *MockEntryRepository) TotalsByClient(ctx context.Context, period string, limit int) ([]repository.ClientMinutes, error) {
	args := m.Called(ctx, period, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.ClientMinutes), args.Error(1)
}

func (m *MockEntryRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.EntryRepository) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

// MockCourtierRepository is a mock implementation of CourtierRepository.
type MockCourtierRepository struct {
	mock.Mock
}

func (m *MockCourtierRepository) Create(ctx context.Context, courtier *model.Courtier) error {
	args := m.Called(ctx, courtier)
	return args.Error(0)
}

func (m *MockCourtierRepository) Update(ctx context.Context, courtier *model.Courtier) error {
	args := m.Called(ctx, courtier)
	return args.Error(0)
}

func (m *MockCourtierRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCourtierRepository) FindByID(ctx context.Context, id uint) (*model.Courtier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Courtier), args.Error(1)
}

func (m *MockCourtierRepository) FindByName(ctx context.Context, name string) (*model.Courtier, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Courtier), args.Error(1)
}

func (m *MockCourtierRepository) List(ctx context.Context) ([]model.Courtier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Courtier), args.Error(1)
}

func (m *MockCourtierRepository) ListActive(ctx context.Context) ([]model.Courtier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Courtier), args.Error(1)
}

func (m *MockCourtierRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockBroadcaster is a mock implementation of realtime.Broadcaster.
type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) EntryAdded(entry model.EntryView, userID uint) {
	m.Called(entry, userID)
}

func (m *MockBroadcaster) SystemMessage(message, level string) {
	m.Called(message, level)
}

// runTransaction has the mocked WithTransaction execute its closure against
// the mock itself, so Create still goes through the transactional path.
func runTransaction(m *MockEntryRepository) {
	m.On("WithTransaction", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			fn := args.Get(1).(func(context.Context, repository.EntryRepository) error)
			_ = fn(args.Get(0).(context.Context), m)
		}).
		Return(nil)
}

func TestEntryService_Create(t *testing.T) {
	activeUser := &model.User{ID: 7, Username: "marie.k", FullName: "Marie Keller", IsActive: true}
	activeCourtier := &model.Courtier{ID: 3, Name: "AXA", IsActive: true}

	draft := EntryDraft{
		Date:       "2026-03-02",
		Time:       "09:35",
		CourtierID: 3,
		Minutes:    15,
		ActeType:   string(model.ActeGestionSinistre),
		ClientName: "Dupont",
	}

	tests := []struct {
		name          string
		draft         EntryDraft
		setupMock     func(*MockEntryRepository, *MockUserRepository, *MockCourtierRepository, *MockBroadcaster)
		expectedError error
	}{
		{
			name:  "successful creation broadcasts entry_added",
			draft: draft,
			setupMock: func(mEntries *MockEntryRepository, mUsers *MockUserRepository, mCourtiers *MockCourtierRepository, mHub *MockBroadcaster) {
				mUsers.On("FindByID", mock.Anything, uint(7)).Return(activeUser, nil)
				mCourtiers.On("FindByID", mock.Anything, uint(3)).Return(activeCourtier, nil)
				runTransaction(mEntries)
				mEntries.On("Create", mock.Anything, mock.AnythingOfType("*model.Entry")).Return(nil)
				mHub.On("EntryAdded", mock.AnythingOfType("model.EntryView"), uint(7)).Return()
			},
		},
		{
			name: "missing courtier",
			draft: EntryDraft{
				Minutes:  15,
				ActeType: string(model.ActeProduction),
			},
			setupMock:     func(*MockEntryRepository, *MockUserRepository, *MockCourtierRepository, *MockBroadcaster) {},
			expectedError: &errors.MissingFieldError{Field: "courtier_id"},
		},
		{
			name: "missing acte type",
			draft: EntryDraft{
				CourtierID: 3,
				Minutes:    15,
			},
			setupMock:     func(*MockEntryRepository, *MockUserRepository, *MockCourtierRepository, *MockBroadcaster) {},
			expectedError: &errors.MissingFieldError{Field: "acte_type"},
		},
		{
			name: "unknown acte type",
			draft: EntryDraft{
				CourtierID: 3,
				Minutes:    15,
				ActeType:   "Démarchage",
			},
			setupMock:     func(*MockEntryRepository, *MockUserRepository, *MockCourtierRepository, *MockBroadcaster) {},
			expectedError: errors.ErrInvalidActeType,
		},
		{
			name: "zero minutes",
			draft: EntryDraft{
				CourtierID: 3,
				Minutes:    0,
				ActeType:   string(model.ActeProduction),
			},
			setupMock:     func(*MockEntryRepository, *MockUserRepository, *MockCourtierRepository, *MockBroadcaster) {},
			expectedError: errors.ErrInvalidDuration,
		},
		{
			name: "unparseable date",
			draft: EntryDraft{
				Date:       "02/03/2026",
				CourtierID: 3,
				Minutes:    15,
				ActeType:   string(model.ActeProduction),
			},
			setupMock:     func(*MockEntryRepository, *MockUserRepository, *MockCourtierRepository, *MockBroadcaster) {},
			expectedError: errors.ErrInvalidDate,
		},
		{
			name: "unparseable time",
			draft: EntryDraft{
				Date:       "2026-03-02",
				Time:       "9h35",
				CourtierID: 3,
				Minutes:    15,
				ActeType:   string(model.ActeProduction),
			},
			setupMock:     func(*MockEntryRepository, *MockUserRepository, *MockCourtierRepository, *MockBroadcaster) {},
			expectedError: errors.ErrInvalidTime,
		},
		{
			name:  "deactivated user",
			draft: draft,
			setupMock: func(mEntries *MockEntryRepository, mUsers *MockUserRepository, mCourtiers *MockCourtierRepository, mHub *MockBroadcaster) {
				mUsers.On("FindByID", mock.Anything, uint(7)).Return(&model.User{ID: 7, IsActive: false}, nil)
			},
			expectedError: errors.ErrUserInactive,
		},
		{
			name:  "unknown courtier",
			draft: draft,
			setupMock: func(mEntries *MockEntryRepository, mUsers *MockUserRepository, mCourtiers *MockCourtierRepository, mHub *MockBroadcaster) {
				mUsers.On("FindByID", mock.Anything, uint(7)).Return(activeUser, nil)
				mCourtiers.On("FindByID", mock.Anything, uint(3)).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: errors.ErrCourtierNotFound,
		},
		{
			name:  "deactivated courtier",
			draft: draft,
			setupMock: func(mEntries *MockEntryRepository, mUsers *MockUserRepository, mCourtiers *MockCourtierRepository, mHub *MockBroadcaster) {
				mUsers.On("FindByID", mock.Anything, uint(7)).Return(activeUser, nil)
				mCourtiers.On("FindByID", mock.Anything, uint(3)).Return(&model.Courtier{ID: 3, Name: "AXA", IsActive: false}, nil)
			},
			expectedError: errors.ErrCourtierInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockEntries := new(MockEntryRepository)
			mockUsers := new(MockUserRepository)
			mockCourtiers := new(MockCourtierRepository)
			mockHub := new(MockBroadcaster)
			tt.setupMock(mockEntries, mockUsers, mockCourtiers, mockHub)

			service := NewEntryService(mockEntries, mockUsers, mockCourtiers, nil, mockHub)
			entry, err := service.Create(context.Background(), 7, tt.draft)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, entry)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, entry)
				assert.Equal(t, "2026-03-02", entry.Date.Format(model.DateLayout))
				assert.Equal(t, "09:35", entry.Time)
				assert.Equal(t, uint(7), entry.UserID)
				assert.Equal(t, uint(3), entry.CourtierID)
				assert.Equal(t, 15, entry.Minutes)
				assert.Equal(t, model.ActeGestionSinistre, entry.ActeType)
				assert.Equal(t, "Marie Keller", entry.User.FullName)
				assert.Equal(t, "AXA", entry.Courtier.Name)
			}

			mockEntries.AssertExpectations(t)
			mockUsers.AssertExpectations(t)
			mockCourtiers.AssertExpectations(t)
			mockHub.AssertExpectations(t)
		})
	}
}

func TestEntryService_Create_DefaultsDateToToday(t *testing.T) {
	mockEntries := new(MockEntryRepository)
	mockUsers := new(MockUserRepository)
	mockCourtiers := new(MockCourtierRepository)
	mockHub := new(MockBroadcaster)

	mockUsers.On("FindByID", mock.Anything, uint(7)).Return(&model.User{ID: 7, IsActive: true}, nil)
	mockCourtiers.On("FindByID", mock.Anything, uint(3)).Return(&model.Courtier{ID: 3, Name: "AXA", IsActive: true}, nil)
	runTransaction(mockEntries)
	mockEntries.On("Create", mock.Anything, mock.AnythingOfType("*model.Entry")).Return(nil)
	mockHub.On("EntryAdded", mock.AnythingOfType("model.EntryView"), uint(7)).Return()

	service := NewEntryService(mockEntries, mockUsers, mockCourtiers, nil, mockHub)
	entry, err := service.Create(context.Background(), 7, EntryDraft{
		CourtierID: 3,
		Minutes:    20,
		ActeType:   string(model.ActeProduction),
	})

	assert.NoError(t, err)
	assert.Equal(t, time.Now().Format(model.DateLayout), entry.Date.Format(model.DateLayout))
	assert.NotEmpty(t, entry.Time)
}

func TestEntryService_List(t *testing.T) {
	entries := []model.Entry{
		{ID: 1, UserID: 7, CourtierID: 3, Minutes: 15, ActeType: model.ActeProduction, Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{ID: 2, UserID: 7, CourtierID: 3, Minutes: 30, ActeType: model.ActeGestionSinistre, Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
	}

	tests := []struct {
		name           string
		actor          Actor
		filter         repository.EntryFilter
		wantRepoUserID uint
		wantPages      int
	}{
		{
			name:           "regular user always scoped to own entries",
			actor:          Actor{ID: 7},
			filter:         repository.EntryFilter{UserID: 99, Page: 1, PerPage: 10},
			wantRepoUserID: 7,
			wantPages:      3,
		},
		{
			name:           "admin may list another user",
			actor:          Actor{ID: 1, Admin: true},
			filter:         repository.EntryFilter{UserID: 7, Page: 1, PerPage: 10},
			wantRepoUserID: 7,
			wantPages:      3,
		},
		{
			name:           "admin without user filter sees own",
			actor:          Actor{ID: 1, Admin: true},
			filter:         repository.EntryFilter{Page: 1, PerPage: 10},
			wantRepoUserID: 1,
			wantPages:      3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockEntries := new(MockEntryRepository)
			mockEntries.On("List", mock.Anything, mock.MatchedBy(func(f repository.EntryFilter) bool {
				return f.UserID == tt.wantRepoUserID
			})).Return(entries, int64(25), nil)

			service := NewEntryService(mockEntries, new(MockUserRepository), new(MockCourtierRepository), nil, nil)
			list, err := service.List(context.Background(), tt.actor, tt.filter)

			assert.NoError(t, err)
			assert.Len(t, list.Entries, 2)
			assert.Equal(t, int64(25), list.Total)
			assert.Equal(t, tt.wantPages, list.Pages)
			assert.Equal(t, 1, list.CurrentPage)
			assert.Equal(t, 10, list.PerPage)

			mockEntries.AssertExpectations(t)
		})
	}
}

func TestEntryService_Delete(t *testing.T) {
	owned := &model.Entry{ID: 42, UserID: 7}

	tests := []struct {
		name          string
		actor         Actor
		setupMock     func(*MockEntryRepository)
		expectedError error
	}{
		{
			name:  "owner deletes own entry",
			actor: Actor{ID: 7},
			setupMock: func(m *MockEntryRepository) {
				m.On("FindByID", mock.Anything, uint(42)).Return(owned, nil)
				m.On("Delete", mock.Anything, uint(42)).Return(nil)
			},
		},
		{
			name:  "admin deletes any entry",
			actor: Actor{ID: 1, Admin: true},
			setupMock: func(m *MockEntryRepository) {
				m.On("FindByID", mock.Anything, uint(42)).Return(owned, nil)
				m.On("Delete", mock.Anything, uint(42)).Return(nil)
			},
		},
		{
			name:  "other user is forbidden",
			actor: Actor{ID: 9},
			setupMock: func(m *MockEntryRepository) {
				m.On("FindByID", mock.Anything, uint(42)).Return(owned, nil)
			},
			expectedError: errors.ErrForbidden,
		},
		{
			name:  "entry not found",
			actor: Actor{ID: 7},
			setupMock: func(m *MockEntryRepository) {
				m.On("FindByID", mock.Anything, uint(42)).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: errors.ErrEntryNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockEntries := new(MockEntryRepository)
			tt.setupMock(mockEntries)

			service := NewEntryService(mockEntries, new(MockUserRepository), new(MockCourtierRepository), nil, nil)
			err := service.Delete(context.Background(), tt.actor, 42)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
			} else {
				assert.NoError(t, err)
			}

			mockEntries.AssertExpectations(t)
		})
	}
}
