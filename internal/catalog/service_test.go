package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/novamart/shopbus/events"
)

func productEvent() events.ProductAddSucceeded {
	return events.ProductAddSucceeded{
		Name:           "Trail Jacket",
		Price:          129.95,
		Description:    "Waterproof shell",
		Variants:       []string{"S", "M", "L"},
		Discounts:      10,
		Images:         []string{"jacket.png"},
		Specifications: map[string]string{"color": "green"},
	}
}

func TestCreateFromEvent_CreatesRecordAndIndexes(t *testing.T) {
	repo := new(MockRepository)
	indexer := new(MockIndexer)
	svc := NewService(repo, indexer, zap.NewNop())

	repo.On("FindByName", mock.Anything, "Trail Jacket").Return(nil, nil).Once()
	repo.On("Create", mock.Anything, mock.MatchedBy(func(rec *Record) bool {
		return rec.Name == "Trail Jacket" && strings.HasPrefix(rec.ProductCode, "P-")
	})).Return(nil).Once()
	indexer.On("IndexProduct", mock.Anything, mock.MatchedBy(func(rec Record) bool {
		return rec.Name == "Trail Jacket"
	})).Return(nil).Once()

	rec, err := svc.CreateFromEvent(context.Background(), productEvent())
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "Trail Jacket", rec.Name)
	assert.Equal(t, 129.95, rec.Price)
	repo.AssertExpectations(t)
	indexer.AssertExpectations(t)
}

func TestCreateFromEvent_ReplayReindexesExistingRecord(t *testing.T) {
	repo := new(MockRepository)
	indexer := new(MockIndexer)
	svc := NewService(repo, indexer, zap.NewNop())

	existing := &Record{ProductCode: "P-ABC", Name: "Trail Jacket"}
	repo.On("FindByName", mock.Anything, "Trail Jacket").Return(existing, nil).Once()
	// The replay re-runs the index write, healing a delivery that persisted
	// the record but died before indexing it.
	indexer.On("IndexProduct", mock.Anything, *existing).Return(nil).Once()

	rec, err := svc.CreateFromEvent(context.Background(), productEvent())
	require.NoError(t, err)

	assert.Same(t, existing, rec)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	indexer.AssertExpectations(t)
}

func TestCreateFromEvent_ConcurrentDuplicateResolvedByRefetch(t *testing.T) {
	repo := new(MockRepository)
	indexer := new(MockIndexer)
	svc := NewService(repo, indexer, zap.NewNop())

	winner := &Record{ProductCode: "P-DEF", Name: "Trail Jacket"}
	repo.On("FindByName", mock.Anything, "Trail Jacket").Return(nil, nil).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(ErrDuplicateRecord).Once()
	repo.On("FindByName", mock.Anything, "Trail Jacket").Return(winner, nil).Once()

	rec, err := svc.CreateFromEvent(context.Background(), productEvent())
	require.NoError(t, err)
	assert.Same(t, winner, rec)
}

func TestCreateFromEvent_IndexFailurePropagates(t *testing.T) {
	repo := new(MockRepository)
	indexer := new(MockIndexer)
	svc := NewService(repo, indexer, zap.NewNop())

	indexErr := errors.New("redis unavailable")
	repo.On("FindByName", mock.Anything, mock.Anything).Return(nil, nil).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	indexer.On("IndexProduct", mock.Anything, mock.Anything).Return(indexErr).Once()

	rec, err := svc.CreateFromEvent(context.Background(), productEvent())
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, indexErr)
}

func TestRecordAddFailure_ReportsError(t *testing.T) {
	svc := NewService(new(MockRepository), new(MockIndexer), zap.NewNop())

	err := svc.RecordAddFailure(context.Background(), events.ProductAddFailed{
		Name:   "Trail Jacket",
		Reason: "disk full",
	})
	require.Error(t, err, "a failed upstream add must land on the dead-letter queue")
	assert.Contains(t, err.Error(), "Trail Jacket")
}

func TestNewProductCode_Shape(t *testing.T) {
	code := newProductCode()
	assert.True(t, strings.HasPrefix(code, "P-"))
	assert.Equal(t, strings.ToUpper(code), code)
	assert.NotEqual(t, newProductCode(), code)
}
