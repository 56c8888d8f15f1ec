package subscriptions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-manager/internal/models"
	"github.com/magabrotheeeer/subscription-manager/internal/services/admin"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) ListAllSubscriptions(ctx context.Context, page, pageSize int, status string) (*models.SubscriptionPage, error) {
	args := m.Called(ctx, page, pageSize, status)
	p, _ := args.Get(0).(*models.SubscriptionPage)
	return p, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSubscriptionsHandler_QueryParsing(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantPage   int
		wantLimit  int
		wantStatus string
	}{
		{name: "no params", query: "", wantPage: 0, wantLimit: 0, wantStatus: ""},
		{name: "explicit", query: "?page=3&limit=25&status=expired", wantPage: 3, wantLimit: 25, wantStatus: "expired"},
		{name: "garbage numbers", query: "?page=abc&limit=-", wantPage: 0, wantLimit: 0, wantStatus: ""},
		{name: "all", query: "?status=all", wantStatus: "all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &models.SubscriptionPage{
				Subscriptions: []models.AdminSubscription{},
				Pagination:    models.Pagination{Current: 1, Total: 0, PageSize: 10},
			}
			svc := new(ServiceMock)
			svc.On("ListAllSubscriptions", mock.Anything, tt.wantPage, tt.wantLimit, tt.wantStatus).Return(page, nil).Once()

			rec := httptest.NewRecorder()
			New(newNoopLogger(), svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/subscriptions"+tt.query, nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestSubscriptionsHandler_Response(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("ListAllSubscriptions", mock.Anything, 2, 1, "").Return(&models.SubscriptionPage{
		Subscriptions: []models.AdminSubscription{{
			Subscription: models.Subscription{SubscriptionID: "s-2", Status: models.StatusActive},
			UserName:     "Alice",
			UserEmail:    "alice@example.com",
			PlanName:     "Basic",
			PlanPrice:    models.MustMoney("9.99"),
		}},
		Pagination: models.Pagination{Current: 2, Total: 3, PageSize: 1, TotalRecords: 3},
	}, nil).Once()

	rec := httptest.NewRecorder()
	New(newNoopLogger(), svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/subscriptions?page=2&limit=1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Success bool `json:"success"`
		Data    struct {
			Subscriptions []map[string]any `json:"subscriptions"`
			Pagination    map[string]any   `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.True(t, got.Success)
	require.Len(t, got.Data.Subscriptions, 1)
	assert.Equal(t, "alice@example.com", got.Data.Subscriptions[0]["user_email"])
	assert.Equal(t, float64(2), got.Data.Pagination["current"])
	assert.Equal(t, float64(3), got.Data.Pagination["total"])
	assert.Equal(t, float64(1), got.Data.Pagination["pageSize"])
	assert.Equal(t, float64(3), got.Data.Pagination["totalRecords"])
}

func TestSubscriptionsHandler_Errors(t *testing.T) {
	t.Run("invalid status", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("ListAllSubscriptions", mock.Anything, 0, 0, "paused").
			Return(nil, fmt.Errorf("op: %w", admin.ErrInvalidStatus)).Once()

		rec := httptest.NewRecorder()
		New(newNoopLogger(), svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/subscriptions?status=paused", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("storage error", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("ListAllSubscriptions", mock.Anything, 0, 0, "").Return(nil, errors.New("db down")).Once()

		rec := httptest.NewRecorder()
		New(newNoopLogger(), svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/subscriptions", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
