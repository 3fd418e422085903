package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"actilog/internal/errors"
	"actilog/internal/model"
)

func TestCourtierCreate(t *testing.T) {
	t.Run("creates an active courtier with a trimmed name", func(t *testing.T) {
		courtierRepo := new(MockCourtierRepository)
		svc := NewCourtierService(courtierRepo, new(MockEntryRepository))

		courtierRepo.On("FindByName", mock.Anything, "Cabinet Martin").Return(nil, gorm.ErrRecordNotFound)
		courtierRepo.On("Create", mock.Anything, mock.MatchedBy(func(c *model.Courtier) bool {
			return c.Name == "Cabinet Martin" && c.IsActive && c.OdooID == nil
		})).Return(nil)

		courtier, err := svc.Create(context.Background(), "  Cabinet Martin  ", nil)

		require.NoError(t, err)
		assert.Equal(t, "Cabinet Martin", courtier.Name)
		assert.True(t, courtier.IsActive)
		courtierRepo.AssertExpectations(t)
	})

	t.Run("rejects a blank name", func(t *testing.T) {
		svc := NewCourtierService(new(MockCourtierRepository), new(MockEntryRepository))

		_, err := svc.Create(context.Background(), "   ", nil)

		var missing *errors.MissingFieldError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "name", missing.Field)
	})

	t.Run("rejects a duplicate name", func(t *testing.T) {
		courtierRepo := new(MockCourtierRepository)
		svc := NewCourtierService(courtierRepo, new(MockEntryRepository))

		courtierRepo.On("FindByName", mock.Anything, "Cabinet Martin").
			Return(&model.Courtier{ID: 4, Name: "Cabinet Martin"}, nil)

		_, err := svc.Create(context.Background(), "Cabinet Martin", nil)

		assert.ErrorIs(t, err, errors.ErrCourtierExists)
		courtierRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestCourtierToggle(t *testing.T) {
	t.Run("flips active to inactive", func(t *testing.T) {
		courtierRepo := new(MockCourtierRepository)
		svc := NewCourtierService(courtierRepo, new(MockEntryRepository))

		courtierRepo.On("FindByID", mock.Anything, uint(4)).
			Return(&model.Courtier{ID: 4, Name: "Cabinet Martin", IsActive: true}, nil)
		courtierRepo.On("Update", mock.Anything, mock.MatchedBy(func(c *model.Courtier) bool {
			return c.ID == 4 && !c.IsActive
		})).Return(nil)

		courtier, err := svc.Toggle(context.Background(), 4)

		require.NoError(t, err)
		assert.False(t, courtier.IsActive)
		courtierRepo.AssertExpectations(t)
	})

	t.Run("unknown courtier", func(t *testing.T) {
		courtierRepo := new(MockCourtierRepository)
		svc := NewCourtierService(courtierRepo, new(MockEntryRepository))

		courtierRepo.On("FindByID", mock.Anything, uint(99)).Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.Toggle(context.Background(), 99)

		assert.ErrorIs(t, err, errors.ErrCourtierNotFound)
	})
}

func TestCourtierDelete(t *testing.T) {
	t.Run("deletes a courtier without entries", func(t *testing.T) {
		courtierRepo := new(MockCourtierRepository)
		entryRepo := new(MockEntryRepository)
		svc := NewCourtierService(courtierRepo, entryRepo)

		courtierRepo.On("FindByID", mock.Anything, uint(4)).
			Return(&model.Courtier{ID: 4, Name: "Cabinet Martin"}, nil)
		entryRepo.On("CountForCourtier", mock.Anything, uint(4)).Return(int64(0), nil)
		courtierRepo.On("Delete", mock.Anything, uint(4)).Return(nil)

		require.NoError(t, svc.Delete(context.Background(), 4))
		courtierRepo.AssertExpectations(t)
	})

	t.Run("refuses to orphan entries", func(t *testing.T) {
		courtierRepo := new(MockCourtierRepository)
		entryRepo := new(MockEntryRepository)
		svc := NewCourtierService(courtierRepo, entryRepo)

		courtierRepo.On("FindByID", mock.Anything, uint(4)).
			Return(&model.Courtier{ID: 4, Name: "Cabinet Martin"}, nil)
		entryRepo.On("CountForCourtier", mock.Anything, uint(4)).Return(int64(12), nil)

		err := svc.Delete(context.Background(), 4)

		assert.ErrorIs(t, err, errors.ErrCourtierHasEntries)
		courtierRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("unknown courtier", func(t *testing.T) {
		courtierRepo := new(MockCourtierRepository)
		svc := NewCourtierService(courtierRepo, new(MockEntryRepository))

		courtierRepo.On("FindByID", mock.Anything, uint(99)).Return(nil, gorm.ErrRecordNotFound)

		assert.ErrorIs(t, svc.Delete(context.Background(), 99), errors.ErrCourtierNotFound)
	})
}

func TestCourtierList(t *testing.T) {
	courtierRepo := new(MockCourtierRepository)
	svc := NewCourtierService(courtierRepo, new(MockEntryRepository))

	active := []model.Courtier{{ID: 1, Name: "Cabinet Martin", IsActive: true}}
	all := append(active, model.Courtier{ID: 2, Name: "Ancien Cabinet"})
	courtierRepo.On("ListActive", mock.Anything).Return(active, nil)
	courtierRepo.On("List", mock.Anything).Return(all, nil)

	got, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = svc.List(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
