package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/bbsmart-api/internal/models"
	"github.com/noah-isme/bbsmart-api/internal/repository"
	appErrors "github.com/noah-isme/bbsmart-api/pkg/errors"
)

// Resource names served by the record API.
const (
	ResourceStudents      = "students"
	ResourceSubjects      = "subjects"
	ResourceUsers         = "users"
	ResourceVideos        = "videos"
	ResourceReports       = "reports"
	ResourceMeetingPlaces = "meeting-places"
	ResourcePersonnel     = "personnel"
	ResourceResources     = "resources"
	ResourceClassrooms    = "classrooms"
	ResourceTextbooks     = "textbooks"
	ResourceExamSchedules = "exam-schedules"
	ResourceSettings      = "settings"
)

// RecordStore is the persistence capability behind every resource: a list of
// JSON documents keyed by their "id".
type RecordStore interface {
	FetchAll(ctx context.Context, resource string) ([]json.RawMessage, error)
	UpsertBatch(ctx context.Context, resource string, records []json.RawMessage) error
	UpsertOne(ctx context.Context, resource string, record json.RawMessage) error
	Delete(ctx context.Context, resource, id string) error
}

type resourcePolicy struct {
	teacherWritable bool
	// schema returns a typed value the payload must decode into and validate.
	schema func() interface{}
}

var resourcePolicies = map[string]resourcePolicy{
	ResourceStudents:      {schema: func() interface{} { return &models.Student{} }},
	ResourceSubjects:      {schema: func() interface{} { return &models.Subject{} }},
	ResourceUsers:         {schema: func() interface{} { return &models.User{} }},
	ResourceSettings:      {schema: func() interface{} { return &models.Setting{} }},
	ResourceVideos:        {teacherWritable: true},
	ResourceReports:       {teacherWritable: true},
	ResourceClassrooms:    {teacherWritable: true},
	ResourceResources:     {teacherWritable: true},
	ResourceMeetingPlaces: {},
	ResourcePersonnel:     {},
	ResourceTextbooks:     {},
	ResourceExamSchedules: {},
}

// Resources lists the resource names the record API serves.
func Resources() []string {
	names := make([]string, 0, len(resourcePolicies))
	for name := range resourcePolicies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CanWrite reports whether role may modify documents of resource.
func CanWrite(role models.UserRole, resource string) bool {
	policy, ok := resourcePolicies[resource]
	if !ok {
		return false
	}
	if role.IsStaff() {
		return true
	}
	return role == models.RoleTeacher && policy.teacherWritable
}

// RecordService exposes the generic record store with validation, access
// rules and a read-through cache.
type RecordService struct {
	store    RecordStore
	cache    *CacheService
	metrics  *MetricsService
	validate *validator.Validate
	logger   *zap.Logger
	cacheTTL time.Duration
}

// NewRecordService constructs a RecordService.
func NewRecordService(store RecordStore, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *RecordService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordService{store: store, cache: cache, metrics: metrics, validate: validate, logger: logger, cacheTTL: cacheTTL}
}

// List returns every document of resource, from cache when possible. User
// documents are returned without their password.
func (s *RecordService) List(ctx context.Context, resource string) ([]json.RawMessage, error) {
	if _, ok := resourcePolicies[resource]; !ok {
		return nil, unknownResource(resource)
	}
	records, err := s.fetch(ctx, resource)
	if err != nil {
		return nil, err
	}
	if resource == ResourceUsers {
		return redactPasswords(records), nil
	}
	return records, nil
}

// fetch is the cached read used by every service built on the record store.
func (s *RecordService) fetch(ctx context.Context, resource string) ([]json.RawMessage, error) {
	key := repository.RecordCacheKey(resource)
	var cached []json.RawMessage
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	start := time.Now()
	records, err := s.store.FetchAll(ctx, resource)
	s.metrics.ObserveStoreCall("fetch_all", resource, err, time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "record store read failed")
	}
	if records == nil {
		records = []json.RawMessage{}
	}
	s.cache.Set(ctx, key, records, s.cacheTTL)
	return records, nil
}

// Save validates and upserts one document, assigning an id when it has none.
func (s *RecordService) Save(ctx context.Context, actor *models.JWTClaims, resource string, payload json.RawMessage) (json.RawMessage, error) {
	if err := s.authorizeWrite(actor, resource); err != nil {
		return nil, err
	}
	record, err := s.prepare(resource, payload)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	err = s.store.UpsertOne(ctx, resource, record)
	s.metrics.ObserveStoreCall("upsert_one", resource, err, time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}
	s.cache.Invalidate(ctx, repository.RecordCacheKey(resource))
	return redactPassword(resource, record), nil
}

// SaveBatch validates every document first and then upserts them in one call.
func (s *RecordService) SaveBatch(ctx context.Context, actor *models.JWTClaims, resource string, payloads []json.RawMessage) ([]json.RawMessage, error) {
	if err := s.authorizeWrite(actor, resource); err != nil {
		return nil, err
	}
	records := make([]json.RawMessage, len(payloads))
	for i, payload := range payloads {
		record, err := s.prepare(resource, payload)
		if err != nil {
			appErr := appErrors.FromError(err)
			return nil, appErrors.Clone(appErr, fmt.Sprintf("record %d: %s", i, appErr.Message))
		}
		records[i] = record
	}
	if len(records) == 0 {
		return records, nil
	}

	start := time.Now()
	err := s.store.UpsertBatch(ctx, resource, records)
	s.metrics.ObserveStoreCall("upsert_batch", resource, err, time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}
	s.cache.Invalidate(ctx, repository.RecordCacheKey(resource))
	if resource == ResourceUsers {
		return redactPasswords(records), nil
	}
	return records, nil
}

// Delete removes one document.
func (s *RecordService) Delete(ctx context.Context, actor *models.JWTClaims, resource, id string) error {
	if err := s.authorizeWrite(actor, resource); err != nil {
		return err
	}
	if id == "" {
		return appErrors.Clone(appErrors.ErrValidation, "id is required")
	}

	start := time.Now()
	err := s.store.Delete(ctx, resource, id)
	s.metrics.ObserveStoreCall("delete", resource, err, time.Since(start))
	if errors.Is(err, repository.ErrRecordNotFound) {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s %s not found", resource, id))
	}
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}
	s.cache.Invalidate(ctx, repository.RecordCacheKey(resource))
	return nil
}

func (s *RecordService) authorizeWrite(actor *models.JWTClaims, resource string) error {
	if _, ok := resourcePolicies[resource]; !ok {
		return unknownResource(resource)
	}
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if !CanWrite(actor.Role, resource) {
		return appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("role %s cannot modify %s", actor.Role, resource))
	}
	return nil
}

// prepare normalises a payload: it must be an object, gets an id when it has
// none, has passwords hashed and is checked against the resource schema.
func (s *RecordService) prepare(resource string, payload json.RawMessage) (json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var doc map[string]interface{}
	if err := dec.Decode(&doc); err != nil || doc == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "record must be a JSON object")
	}

	if raw, present := doc["id"]; !present || raw == nil || raw == "" {
		doc["id"] = uuid.NewString()
	} else if _, err := repository.RecordID(payload); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "id must be a string or a number")
	}

	if resource == ResourceUsers {
		if err := hashPassword(doc); err != nil {
			return nil, err
		}
	}

	record, err := json.Marshal(doc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode record")
	}

	if schema := resourcePolicies[resource].schema; schema != nil {
		target := schema()
		if err := json.Unmarshal(record, target); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid %s record", resource))
		}
		if err := s.validate.Struct(target); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
		}
	}
	return record, nil
}

// hashPassword replaces a plaintext password with its bcrypt hash. Values that
// already are bcrypt hashes are kept.
func hashPassword(doc map[string]interface{}) error {
	password, ok := doc["password"].(string)
	if !ok || password == "" {
		return nil
	}
	if _, err := bcrypt.Cost([]byte(password)); err == nil {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "password cannot be hashed")
	}
	doc["password"] = string(hash)
	return nil
}

func redactPasswords(records []json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, len(records))
	for i, record := range records {
		out[i] = redactPassword(ResourceUsers, record)
	}
	return out
}

func redactPassword(resource string, record json.RawMessage) json.RawMessage {
	if resource != ResourceUsers {
		return record
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(record, &doc); err != nil {
		return record
	}
	if _, ok := doc["password"]; !ok {
		return record
	}
	delete(doc, "password")
	redacted, err := json.Marshal(doc)
	if err != nil {
		return record
	}
	return redacted
}

func unknownResource(resource string) error {
	return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("unknown resource %q", resource))
}

// decodeRecords decodes raw documents into typed values, keeping order.
func decodeRecords[T any](resource string, raws []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(raws))
	for i, raw := range raws {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
				fmt.Sprintf("stored %s record %d is malformed", resource, i))
		}
		out = append(out, item)
	}
	return out, nil
}
