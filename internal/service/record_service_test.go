package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/bbsmart-api/internal/models"
	appErrors "github.com/noah-isme/bbsmart-api/pkg/errors"
)

// cacheRepoStub is an in-memory CacheRepository.
type cacheRepoStub struct {
	items   map[string][]byte
	deleted []string
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{items: make(map[string][]byte)}
}

func (c *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.items[key] = raw
	return nil
}

func (c *cacheRepoStub) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.items, key)
		c.deleted = append(c.deleted, key)
	}
	return nil
}

func (c *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	c.items = make(map[string][]byte)
	return nil
}

func newRecordFixture(t *testing.T) (*RecordService, *memoryStore, *cacheRepoStub, *MetricsService) {
	t.Helper()
	store := newMemoryStore()
	cacheRepo := newCacheRepoStub()
	metrics := NewMetricsService()
	cache := NewCacheService(cacheRepo, metrics, time.Minute, nil, true)
	return NewRecordService(store, cache, metrics, nil, nil, time.Minute), store, cacheRepo, metrics
}

func TestRecordServiceListUsesCache(t *testing.T) {
	svc, store, _, metrics := newRecordFixture(t)
	store.seed(t, ResourceVideos, map[string]string{"id": "v1", "title": "บทนำ"})

	first, err := svc.List(context.Background(), ResourceVideos)
	require.NoError(t, err)
	require.Len(t, first, 1)

	store.fetchErr = errors.New("store should not be hit")
	second, err := svc.List(context.Background(), ResourceVideos)
	require.NoError(t, err)
	assert.Equal(t, len(first), len(second))

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
	assert.Equal(t, uint64(1), snap.StoreCallCount)
}

func TestRecordServiceUnknownResource(t *testing.T) {
	svc, _, _, _ := newRecordFixture(t)
	_, err := svc.List(context.Background(), "grades")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRecordServiceSaveAssignsIDAndInvalidates(t *testing.T) {
	svc, store, cacheRepo, _ := newRecordFixture(t)
	_, err := svc.List(context.Background(), ResourceReports)
	require.NoError(t, err)

	teacher := &models.JWTClaims{UserID: "T1", Role: models.RoleTeacher}
	saved, err := svc.Save(context.Background(), teacher, ResourceReports, json.RawMessage(`{"title":"ประชุมครู","hours":2}`))
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(saved, &doc))
	assert.NotEmpty(t, doc["id"])
	assert.Equal(t, 1, store.oneCalls)
	assert.Contains(t, cacheRepo.deleted, "records:reports")

	list, err := svc.List(context.Background(), ResourceReports)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRecordServiceWritePermissions(t *testing.T) {
	svc, _, _, _ := newRecordFixture(t)
	ctx := context.Background()
	teacher := &models.JWTClaims{UserID: "T1", Role: models.RoleTeacher}
	student := &models.JWTClaims{UserID: "6710001", Role: models.RoleStudent}

	_, err := svc.Save(ctx, teacher, ResourceSubjects, json.RawMessage(`{"id":"M101","code":"M","name":"Math","type":"COMPULSORY","credit":3}`))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Save(ctx, student, ResourceVideos, json.RawMessage(`{"id":"v1"}`))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Save(ctx, nil, ResourceVideos, json.RawMessage(`{"id":"v1"}`))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	assert.True(t, CanWrite(models.RoleAdminVIP, ResourceSettings))
	assert.True(t, CanWrite(models.RoleTeacher, ResourceClassrooms))
	assert.False(t, CanWrite(models.RoleTeacher, ResourceStudents))
	assert.False(t, CanWrite(models.RoleAdmin, "unknown"))
}

func TestRecordServiceValidatesTypedResources(t *testing.T) {
	svc, _, _, _ := newRecordFixture(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, staffClaims(), ResourceSubjects, json.RawMessage(`{"id":"M101","code":"M","name":"Math","type":"OPTIONAL","credit":3}`))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Save(ctx, staffClaims(), ResourceStudents, json.RawMessage(`{"id":"6710001","gender":7}`))
	require.Error(t, err)

	_, err = svc.Save(ctx, staffClaims(), ResourceVideos, json.RawMessage(`["not","an","object"]`))
	require.Error(t, err)

	_, err = svc.Save(ctx, staffClaims(), ResourceVideos, json.RawMessage(`{"id":{"nested":1}}`))
	require.Error(t, err)

	_, err = svc.Save(ctx, staffClaims(), ResourceSettings, json.RawMessage(`{"id":"theme","value":"dark"}`))
	require.Error(t, err)
}

func TestRecordServiceHashesUserPasswords(t *testing.T) {
	svc, store, _, _ := newRecordFixture(t)

	saved, err := svc.Save(context.Background(), staffClaims(), ResourceUsers,
		json.RawMessage(`{"id":"u1","username":"teacher1","password":"secret","name":"ครูหนึ่ง","role":"TEACHER"}`))
	require.NoError(t, err)
	assert.NotContains(t, string(saved), "password")

	var stored models.User
	require.NoError(t, json.Unmarshal(store.data[ResourceUsers][0], &stored))
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("secret")))

	// an existing hash is stored as is
	_, err = svc.Save(context.Background(), staffClaims(), ResourceUsers,
		json.RawMessage(`{"id":"u1","username":"teacher1","password":"`+stored.Password+`","role":"TEACHER"}`))
	require.NoError(t, err)
	var again models.User
	require.NoError(t, json.Unmarshal(store.data[ResourceUsers][0], &again))
	assert.Equal(t, stored.Password, again.Password)

	list, err := svc.List(context.Background(), ResourceUsers)
	require.NoError(t, err)
	assert.NotContains(t, string(list[0]), "password")
}

func TestRecordServiceSaveBatch(t *testing.T) {
	svc, store, _, _ := newRecordFixture(t)

	saved, err := svc.SaveBatch(context.Background(), staffClaims(), ResourceMeetingPlaces, []json.RawMessage{
		json.RawMessage(`{"id":"room-1","name":"ห้องประชุม 1"}`),
		json.RawMessage(`{"name":"ลานกิจกรรม"}`),
	})
	require.NoError(t, err)
	assert.Len(t, saved, 2)
	assert.Equal(t, 1, store.batchCalls)
	assert.Len(t, store.data[ResourceMeetingPlaces], 2)

	_, err = svc.SaveBatch(context.Background(), staffClaims(), ResourceSubjects, []json.RawMessage{
		json.RawMessage(`{"id":"M101","code":"M","name":"Math","type":"COMPULSORY","credit":3}`),
		json.RawMessage(`{"id":"X","credit":0}`),
	})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "record 1")
	assert.Equal(t, 1, store.batchCalls)
}

func TestRecordServiceDelete(t *testing.T) {
	svc, store, _, _ := newRecordFixture(t)
	store.seed(t, ResourceTextbooks, map[string]string{"id": "b1"})

	require.NoError(t, svc.Delete(context.Background(), staffClaims(), ResourceTextbooks, "b1"))
	assert.Empty(t, store.data[ResourceTextbooks])

	err := svc.Delete(context.Background(), staffClaims(), ResourceTextbooks, "b1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRecordServiceStoreFailureIsUpstream(t *testing.T) {
	svc, store, _, _ := newRecordFixture(t)
	store.batchErrs = []error{errors.New("disk full")}

	_, err := svc.SaveBatch(context.Background(), staffClaims(), ResourceVideos, []json.RawMessage{json.RawMessage(`{"id":"v1"}`)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
}
