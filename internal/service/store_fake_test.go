package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bbsmart-api/internal/models"
	"github.com/noah-isme/bbsmart-api/internal/repository"
)

// memoryStore is an ordered in-memory RecordStore.
type memoryStore struct {
	mu         sync.Mutex
	data       map[string][]json.RawMessage
	fetchErr   error
	batchErrs  []error
	batchCalls int
	oneCalls   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string][]json.RawMessage)}
}

func (m *memoryStore) seed(t *testing.T, resource string, values ...interface{}) {
	t.Helper()
	for _, v := range values {
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		m.data[resource] = append(m.data[resource], raw)
	}
}

func (m *memoryStore) FetchAll(ctx context.Context, resource string) ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return append([]json.RawMessage(nil), m.data[resource]...), nil
}

func (m *memoryStore) UpsertBatch(ctx context.Context, resource string, records []json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	if len(m.batchErrs) > 0 {
		err := m.batchErrs[0]
		m.batchErrs = m.batchErrs[1:]
		if err != nil {
			return err
		}
	}
	for _, rec := range records {
		if err := m.upsert(resource, rec); err != nil {
			return err
		}
	}
	return nil
}

func (m *memoryStore) UpsertOne(ctx context.Context, resource string, record json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.oneCalls++
	return m.upsert(resource, record)
}

func (m *memoryStore) Delete(ctx context.Context, resource, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, rec := range m.data[resource] {
		if existing, _ := repository.RecordID(rec); existing == id {
			m.data[resource] = append(m.data[resource][:i], m.data[resource][i+1:]...)
			return nil
		}
	}
	return repository.ErrRecordNotFound
}

func (m *memoryStore) upsert(resource string, record json.RawMessage) error {
	id, err := repository.RecordID(record)
	if err != nil {
		return err
	}
	for i, rec := range m.data[resource] {
		if existing, _ := repository.RecordID(rec); existing == id {
			m.data[resource][i] = record
			return nil
		}
	}
	m.data[resource] = append(m.data[resource], record)
	return nil
}

func (m *memoryStore) students(t *testing.T) []models.Student {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	out, err := decodeRecords[models.Student](ResourceStudents, m.data[ResourceStudents])
	require.NoError(t, err)
	return out
}

func (m *memoryStore) student(t *testing.T, id string) models.Student {
	t.Helper()
	for _, st := range m.students(t) {
		if st.ID == id {
			return st
		}
	}
	t.Fatalf("student %s not stored", id)
	return models.Student{}
}

type semesterStub struct {
	semester string
	err      error
}

func (s semesterStub) CurrentSemester(ctx context.Context) (string, error) {
	return s.semester, s.err
}

func staffClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "registrar-1", Role: models.RoleRegistrar}
}

func rawRecords(t *testing.T, values ...interface{}) []json.RawMessage {
	t.Helper()
	out := make([]json.RawMessage, 0, len(values))
	for _, v := range values {
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		out = append(out, raw)
	}
	return out
}
