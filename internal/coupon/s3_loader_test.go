package coupon

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// mockLoader is a mock implementation of the Loader interface for testing.
type mockLoader struct {
	loadFunc func(ctx context.Context, filePath string) ([]Definition, error)
}

func (m *mockLoader) Load(ctx context.Context, filePath string) ([]Definition, error) {
	if m.loadFunc != nil {
		return m.loadFunc(ctx, filePath)
	}
	return nil, errors.New("not implemented")
}

func TestFallbackLoader_S3Success(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	s3Defs := []Definition{{Code: "S3ONLY", Type: "fixed", Value: 100, Total: 5, Enabled: true}}
	s3Loader := &mockLoader{
		loadFunc: func(ctx context.Context, filePath string) ([]Definition, error) {
			assert.Equal(t, "coupons/test.gz", filePath, "S3 key should have prefix")
			return s3Defs, nil
		},
	}

	fileLoader := &mockLoader{
		loadFunc: func(ctx context.Context, filePath string) ([]Definition, error) {
			t.Error("file loader should not be called when S3 succeeds")
			return nil, errors.New("should not be called")
		},
	}

	fallback := NewFallbackLoader(s3Loader, fileLoader, "coupons/", true, logger)

	defs, err := fallback.Load(ctx, "test.gz")
	assert.NoError(t, err)
	assert.Equal(t, s3Defs, defs)
}

func TestFallbackLoader_S3FailsFallsBackToLocal(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	s3Loader := &mockLoader{
		loadFunc: func(ctx context.Context, filePath string) ([]Definition, error) {
			return nil, errors.New("S3 connection failed")
		},
	}

	localDefs := []Definition{{Code: "LOCAL1", Type: "percent", Value: 10, Total: 5, Enabled: true}}
	fileLoader := &mockLoader{
		loadFunc: func(ctx context.Context, filePath string) ([]Definition, error) {
			assert.Equal(t, "test.gz", filePath, "local file path should not have prefix")
			return localDefs, nil
		},
	}

	fallback := NewFallbackLoader(s3Loader, fileLoader, "coupons/", true, logger)

	defs, err := fallback.Load(ctx, "test.gz")
	assert.NoError(t, err)
	assert.Equal(t, localDefs, defs)
}

func TestFallbackLoader_S3Disabled(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	s3Loader := &mockLoader{
		loadFunc: func(ctx context.Context, filePath string) ([]Definition, error) {
			t.Error("S3 loader should not be called when disabled")
			return nil, errors.New("should not be called")
		},
	}

	localDefs := []Definition{{Code: "LOCAL1", Type: "fixed", Value: 200, Total: 1, Enabled: true}}
	fileLoader := &mockLoader{
		loadFunc: func(ctx context.Context, filePath string) ([]Definition, error) {
			return localDefs, nil
		},
	}

	fallback := NewFallbackLoader(s3Loader, fileLoader, "coupons/", false, logger)

	defs, err := fallback.Load(ctx, "test.gz")
	assert.NoError(t, err)
	assert.Equal(t, localDefs, defs)
}

func TestFallbackLoader_BothFail(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	s3Loader := &mockLoader{
		loadFunc: func(ctx context.Context, filePath string) ([]Definition, error) {
			return nil, errors.New("S3 connection failed")
		},
	}
	fileLoader := &mockLoader{
		loadFunc: func(ctx context.Context, filePath string) ([]Definition, error) {
			return nil, errors.New("file not found")
		},
	}

	fallback := NewFallbackLoader(s3Loader, fileLoader, "coupons/", true, logger)

	_, err := fallback.Load(ctx, "test.gz")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}
