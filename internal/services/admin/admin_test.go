package admin_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-manager/internal/models"
	"github.com/magabrotheeeer/subscription-manager/internal/services/admin"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) ListSubscriptions(ctx context.Context, filter models.SubscriptionFilter) ([]models.AdminSubscription, error) {
	args := m.Called(ctx, filter)
	items, _ := args.Get(0).([]models.AdminSubscription)
	return items, args.Error(1)
}

func (m *RepoMock) CountSubscriptions(ctx context.Context, status string) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

func rows(n int) []models.AdminSubscription {
	out := make([]models.AdminSubscription, n)
	for i := range out {
		out[i].SubscriptionID = fmt.Sprintf("sub-%d", i)
	}
	return out
}

func TestListAllSubscriptions_Pagination(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		pageSize   int
		status     string
		wantFilter models.SubscriptionFilter
		returned   int
		total      int
		want       models.Pagination
	}{
		{
			name: "first page of 25", page: 1, pageSize: 10,
			wantFilter: models.SubscriptionFilter{Limit: 10, Offset: 0},
			returned:   10, total: 25,
			want: models.Pagination{Current: 1, Total: 3, PageSize: 10, TotalRecords: 25},
		},
		{
			name: "last partial page", page: 3, pageSize: 10,
			wantFilter: models.SubscriptionFilter{Limit: 10, Offset: 20},
			returned:   5, total: 25,
			want: models.Pagination{Current: 3, Total: 3, PageSize: 10, TotalRecords: 25},
		},
		{
			name: "defaults for non-positive input", page: 0, pageSize: -5,
			wantFilter: models.SubscriptionFilter{Limit: 10, Offset: 0},
			returned:   0, total: 0,
			want: models.Pagination{Current: 1, Total: 0, PageSize: 10, TotalRecords: 0},
		},
		{
			name: "page size clamped", page: 2, pageSize: 100000,
			wantFilter: models.SubscriptionFilter{Limit: 100, Offset: 100},
			returned:   0, total: 150,
			want: models.Pagination{Current: 2, Total: 2, PageSize: 100, TotalRecords: 150},
		},
		{
			name: "status filter", page: 1, pageSize: 10, status: models.StatusActive,
			wantFilter: models.SubscriptionFilter{Status: models.StatusActive, Limit: 10},
			returned:   1, total: 1,
			want: models.Pagination{Current: 1, Total: 1, PageSize: 10, TotalRecords: 1},
		},
		{
			name: "all means no filter", page: 1, pageSize: 10, status: admin.StatusAll,
			wantFilter: models.SubscriptionFilter{Limit: 10},
			returned:   2, total: 2,
			want: models.Pagination{Current: 1, Total: 1, PageSize: 10, TotalRecords: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			repo.On("ListSubscriptions", mock.Anything, tt.wantFilter).Return(rows(tt.returned), nil).Once()
			repo.On("CountSubscriptions", mock.Anything, tt.wantFilter.Status).Return(tt.total, nil).Once()
			svc := admin.NewService(repo, 0)

			page, err := svc.ListAllSubscriptions(context.Background(), tt.page, tt.pageSize, tt.status)
			require.NoError(t, err)
			assert.Len(t, page.Subscriptions, tt.returned)
			assert.NotNil(t, page.Subscriptions)
			assert.Equal(t, tt.want, page.Pagination)
			repo.AssertExpectations(t)
		})
	}
}

func TestListAllSubscriptions_ConfiguredCap(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListSubscriptions", mock.Anything, models.SubscriptionFilter{Limit: 20}).Return(rows(0), nil).Once()
	repo.On("CountSubscriptions", mock.Anything, "").Return(0, nil).Once()

	page, err := admin.NewService(repo, 20).ListAllSubscriptions(context.Background(), 1, 50, "")
	require.NoError(t, err)
	assert.Equal(t, 20, page.Pagination.PageSize)
}

func TestListAllSubscriptions_HugePageDoesNotOverflow(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		pageSize int
	}{
		{name: "max int page", page: math.MaxInt, pageSize: 100},
		{name: "page times size wraps", page: math.MaxInt64 / 50, pageSize: 100},
		{name: "default size", page: math.MaxInt / 2, pageSize: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			repo.On("ListSubscriptions", mock.Anything, mock.MatchedBy(func(f models.SubscriptionFilter) bool {
				return f.Offset >= 0 && f.Limit > 0
			})).Return(rows(0), nil).Once()
			repo.On("CountSubscriptions", mock.Anything, "").Return(25, nil).Once()

			page, err := admin.NewService(repo, 0).ListAllSubscriptions(context.Background(), tt.page, tt.pageSize, "")
			require.NoError(t, err)
			assert.Empty(t, page.Subscriptions)
			assert.Positive(t, page.Pagination.Current)
			assert.Equal(t, 25, page.Pagination.TotalRecords)
			repo.AssertExpectations(t)
		})
	}
}

func TestListAllSubscriptions_InvalidStatus(t *testing.T) {
	repo := new(RepoMock)
	svc := admin.NewService(repo, 0)

	_, err := svc.ListAllSubscriptions(context.Background(), 1, 10, "pending")
	assert.ErrorIs(t, err, admin.ErrInvalidStatus)
	repo.AssertNotCalled(t, "ListSubscriptions", mock.Anything, mock.Anything)
}

func TestListAllSubscriptions_StorageErrors(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("ListSubscriptions", mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Once()
		_, err := admin.NewService(repo, 0).ListAllSubscriptions(context.Background(), 1, 10, "")
		assert.Error(t, err)
	})

	t.Run("count", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("ListSubscriptions", mock.Anything, mock.Anything).Return(rows(1), nil).Once()
		repo.On("CountSubscriptions", mock.Anything, "").Return(0, errors.New("boom")).Once()
		_, err := admin.NewService(repo, 0).ListAllSubscriptions(context.Background(), 1, 10, "")
		assert.Error(t, err)
	})
}
