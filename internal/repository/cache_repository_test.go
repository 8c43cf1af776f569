package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/bbsmart-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest []string
	assert.ErrorIs(t, repo.Get(ctx, RecordCacheKey("students"), &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, RecordCacheKey("students"), []string{"a"}, time.Minute))
	assert.NoError(t, repo.Delete(ctx, RecordCacheKey("students")))
	assert.NoError(t, repo.DeleteByPattern(ctx, "records:*"))
	assert.NoError(t, repo.Close())
}

func TestRecordCacheKey(t *testing.T) {
	assert.Equal(t, "records:meeting-places", RecordCacheKey("meeting-places"))
}
