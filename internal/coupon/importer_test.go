package coupon

import (
	"context"
	"errors"
	"testing"

	"mini-shop/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MockCouponRepository is a mock implementation of repository.CouponRepository.
type MockCouponRepository struct {
	mock.Mock
}

func (m *MockCouponRepository) GetByCode(ctx context.Context, code string) (*model.CouponCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CouponCode), args.Error(1)
}

func (m *MockCouponRepository) ConditionalIncrement(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, tx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCouponRepository) Decrement(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockCouponRepository) Upsert(ctx context.Context, coupon *model.CouponCode) error {
	args := m.Called(ctx, coupon)
	return args.Error(0)
}

func TestImporter_Import_Success(t *testing.T) {
	logger := zerolog.Nop()

	lines := []string{
		`{"code":"TENOFF","type":"fixed","value":1000,"total":100,"enabled":true}`,
		`{"code":"TWENTY","type":"percent","value":20,"total":50,"enabled":true}`,
	}
	filePath := createTestCouponFile(t, "import.gz", lines)

	repo := new(MockCouponRepository)
	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(c *model.CouponCode) bool {
		return c.Code == "TENOFF" || c.Code == "TWENTY"
	})).Return(nil)

	importer := NewImporter(NewFileLoader(logger), repo, logger)
	count, err := importer.Import(context.Background(), filePath)

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	repo.AssertNumberOfCalls(t, "Upsert", 2)
}

func TestImporter_Import_StopsAtFirstStorageError(t *testing.T) {
	logger := zerolog.Nop()

	lines := []string{
		`{"code":"GOOD1","type":"fixed","value":100,"total":1,"enabled":true}`,
		`{"code":"BAD","type":"fixed","value":100,"total":1,"enabled":true}`,
		`{"code":"GOOD2","type":"fixed","value":100,"total":1,"enabled":true}`,
	}
	filePath := createTestCouponFile(t, "import_partial.gz", lines)

	repo := new(MockCouponRepository)
	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(c *model.CouponCode) bool {
		return c.Code == "GOOD1"
	})).Return(nil)
	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(c *model.CouponCode) bool {
		return c.Code == "BAD"
	})).Return(errors.New("connection reset"))

	importer := NewImporter(NewFileLoader(logger), repo, logger)
	count, err := importer.Import(context.Background(), filePath)

	require.Error(t, err)
	assert.Equal(t, 1, count)
	repo.AssertNumberOfCalls(t, "Upsert", 2)
}

func TestImporter_Import_LoaderFailure(t *testing.T) {
	logger := zerolog.Nop()

	repo := new(MockCouponRepository)

	importer := NewImporter(NewFileLoader(logger), repo, logger)
	count, err := importer.Import(context.Background(), "/nonexistent/coupons.gz")

	require.Error(t, err)
	assert.Zero(t, count)
	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}
