package service

import (
	"context"
	"iter"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/domain/selection"
	"github.com/phrazzld/scry-dealer/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockDealerStore mocks the store.DealerStore interface
type MockDealerStore struct {
	mock.Mock
}

var _ store.DealerStore = (*MockDealerStore)(nil)

func (m *MockDealerStore) Create(ctx context.Context, dealer *domain.Dealer) error {
	args := m.Called(ctx, dealer)
	return args.Error(0)
}

func (m *MockDealerStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Dealer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dealer), args.Error(1)
}

func (m *MockDealerStore) List(ctx context.Context) ([]domain.DealerSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DealerSummary), args.Error(1)
}

func (m *MockDealerStore) Rename(ctx context.Context, id uuid.UUID, title string) error {
	args := m.Called(ctx, id, title)
	return args.Error(0)
}

func (m *MockDealerStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDealerStore) AddFilter(ctx context.Context, dealerID, filterID uuid.UUID, weight int) error {
	args := m.Called(ctx, dealerID, filterID, weight)
	return args.Error(0)
}

func (m *MockDealerStore) RemoveFilter(ctx context.Context, dealerID, filterID uuid.UUID) error {
	args := m.Called(ctx, dealerID, filterID)
	return args.Error(0)
}

func (m *MockDealerStore) SetWeight(ctx context.Context, dealerID, filterID uuid.UUID, weight int) error {
	args := m.Called(ctx, dealerID, filterID, weight)
	return args.Error(0)
}

func (m *MockDealerStore) ListFilters(ctx context.Context, dealerID uuid.UUID) ([]domain.DealerFilter, error) {
	args := m.Called(ctx, dealerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DealerFilter), args.Error(1)
}

// MockSelector mocks the selection.Selector interface
type MockSelector struct {
	mock.Mock
}

var _ selection.Selector = (*MockSelector)(nil)

func (m *MockSelector) SelectOne(ctx context.Context, packID *uuid.UUID, c selection.TagCriterion) (uuid.UUID, bool, error) {
	args := m.Called(ctx, packID, c)
	return args.Get(0).(uuid.UUID), args.Bool(1), args.Error(2)
}

func (m *MockSelector) SelectMany(
	ctx context.Context,
	packID *uuid.UUID,
	c selection.TagCriterion,
	limit int,
) ([]uuid.UUID, error) {
	args := m.Called(ctx, packID, c, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// failingCardStore is a store.CardStore whose pack lookups fail.
type failingCardStore struct {
	store.CardStore
	err error
}

func (s failingCardStore) PackExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return false, s.err
}

func (s failingCardStore) ShuffledCardIDs(ctx context.Context, packID *uuid.UUID) iter.Seq2[uuid.UUID, error] {
	return func(yield func(uuid.UUID, error) bool) {
		yield(uuid.Nil, s.err)
	}
}
