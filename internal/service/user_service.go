package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"actilog/internal/errors"
	"actilog/internal/model"
	"actilog/internal/repository"
)

// UserService exposes the admin view of user accounts.
type UserService interface {
	Get(ctx context.Context, id uint) (*model.User, error)
	List(ctx context.Context) ([]repository.UserWithCount, error)
	Toggle(ctx context.Context, actor Actor, userID uint) (*model.User, error)
}

type userService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new user service.
func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) Get(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// List returns all accounts with their entry counts for the admin screen.
func (s *userService) List(ctx context.Context) ([]repository.UserWithCount, error) {
	return s.userRepo.ListWithEntryCounts(ctx)
}

// Toggle flips a user between active and inactive. Admins cannot lock
// themselves out by deactivating their own account.
func (s *userService) Toggle(ctx context.Context, actor Actor, userID uint) (*model.User, error) {
	if userID == actor.ID {
		return nil, errors.ErrForbidden
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	user.IsActive = !user.IsActive
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}
