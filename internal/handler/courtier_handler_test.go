package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"actilog/internal/auth"
	"actilog/internal/model"
)

type MockCourtierService struct {
	mock.Mock
}

func (m *MockCourtierService) List(ctx context.Context, includeInactive bool) ([]model.Courtier, error) {
	args := m.Called(ctx, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Courtier), args.Error(1)
}

func (m *MockCourtierService) Create(ctx context.Context, name string, odooID *int) (*model.Courtier, error) {
	args := m.Called(ctx, name, odooID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Courtier), args.Error(1)
}

func (m *MockCourtierService) Toggle(ctx context.Context, id uint) (*model.Courtier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Courtier), args.Error(1)
}

func (m *MockCourtierService) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func courtierListContext(t *testing.T, query string, claims *auth.Claims) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/courtiers"+query, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if claims != nil {
		c.Set(claimsKey, claims)
	}
	return c, rec
}

func TestCourtierList_IncludeInactiveIsAdminOnly(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		role        string
		wantForward bool
	}{
		{"standard user cannot see deactivated courtiers", "?include_inactive=true", model.RoleUser, false},
		{"admin gets deactivated courtiers on request", "?include_inactive=true", model.RoleAdmin, true},
		{"admin without the flag gets the active list", "", model.RoleAdmin, false},
		{"standard user default", "", model.RoleUser, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockCourtierService)
			svc.On("List", mock.Anything, tt.wantForward).
				Return([]model.Courtier{{ID: 1, Name: "Cabinet Martin", IsActive: true}}, nil)

			c, rec := courtierListContext(t, tt.query, &auth.Claims{UserID: 7, Role: tt.role})

			require.NoError(t, NewCourtierHandler(svc).List(c))
			assert.Equal(t, http.StatusOK, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestCourtierList_MissingClaims(t *testing.T) {
	svc := new(MockCourtierService)
	c, _ := courtierListContext(t, "", nil)

	err := NewCourtierHandler(svc).List(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}
