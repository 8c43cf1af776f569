package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/bbsmart-api/internal/dto"
	"github.com/noah-isme/bbsmart-api/internal/models"
	"github.com/noah-isme/bbsmart-api/internal/reconcile"
	"github.com/noah-isme/bbsmart-api/internal/repository"
	appErrors "github.com/noah-isme/bbsmart-api/pkg/errors"
	"github.com/noah-isme/bbsmart-api/pkg/retry"
)

type semesterSource interface {
	CurrentSemester(ctx context.Context) (string, error)
}

// ImportConfig tunes import behaviour.
type ImportConfig struct {
	MaxBatchSize int
	// DefaultSemester is used when neither the request nor the settings name
	// an active semester.
	DefaultSemester string
	Retry           retry.Policy
}

// ImportService applies batch imports to the student collection: it loads
// the current state, reconciles the batch and persists every changed student
// in a single batch write.
type ImportService struct {
	store     RecordStore
	semesters semesterSource
	cache     *CacheService
	metrics   *MetricsService
	validate  *validator.Validate
	logger    *zap.Logger
	cfg       ImportConfig

	// mu serialises load-reconcile-persist passes.
	mu sync.Mutex
}

// NewImportService constructs an ImportService.
func NewImportService(store RecordStore, semesters semesterSource, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ImportConfig) *ImportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 5000
	}
	return &ImportService{
		store:     store,
		semesters: semesters,
		cache:     cache,
		metrics:   metrics,
		validate:  validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Import reconciles and persists a batch.
func (s *ImportService) Import(ctx context.Context, actor *models.JWTClaims, rawKind string, req dto.ImportRequest) (*dto.ImportResult, error) {
	return s.run(ctx, actor, rawKind, req, false)
}

// Preview reconciles a batch without writing anything.
func (s *ImportService) Preview(ctx context.Context, actor *models.JWTClaims, rawKind string, req dto.ImportRequest) (*dto.ImportResult, error) {
	return s.run(ctx, actor, rawKind, req, true)
}

func (s *ImportService) run(ctx context.Context, actor *models.JWTClaims, rawKind string, req dto.ImportRequest, dryRun bool) (*dto.ImportResult, error) {
	start := time.Now()
	kind, ok := models.ParseImportKind(rawKind)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedImport, fmt.Sprintf("unsupported import kind %q", rawKind))
	}
	if len(req.Records) > s.cfg.MaxBatchSize {
		s.metrics.ObserveImport(kind, ImportOutcomeRejected, 0, 0, time.Since(start))
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge,
			fmt.Sprintf("batch has %d records, the limit is %d", len(req.Records), s.cfg.MaxBatchSize))
	}

	records, err := s.decode(kind, req.Records)
	if err != nil {
		s.metrics.ObserveImport(kind, ImportOutcomeRejected, 0, 0, time.Since(start))
		return nil, err
	}
	active := strings.TrimSpace(req.ActiveSemester)
	if active != "" && !models.ValidSemester(active) {
		s.metrics.ObserveImport(kind, ImportOutcomeRejected, 0, 0, time.Since(start))
		return nil, appErrors.Clone(appErrors.ErrValidation, "activeSemester must look like 1/2567")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if active == "" {
		if active, err = s.activeSemester(ctx); err != nil {
			return nil, err
		}
	}

	order, current, err := s.loadStudents(ctx)
	if err != nil {
		return nil, err
	}
	var catalog models.SubjectCatalog
	if kind == models.ImportGrade {
		if catalog, err = s.loadCatalog(ctx); err != nil {
			return nil, err
		}
	}

	result := reconcile.Reconcile(kind, records, current, catalog, active)
	for _, skip := range result.Skipped {
		s.logger.Warn("import record skipped",
			zap.String("kind", string(kind)),
			zap.Int("index", skip.Index),
			zap.String("student_id", skip.StudentID),
			zap.String("reason", skip.Reason),
		)
	}

	snapshot, updatedIDs := overlay(order, current, result.Students)
	if !dryRun && len(updatedIDs) > 0 {
		if err := s.persist(ctx, kind, updatedIDs, result.Students); err != nil {
			s.metrics.ObserveImport(kind, ImportOutcomeFailed, 0, 0, time.Since(start))
			return nil, err
		}
		s.cache.Invalidate(ctx, repository.RecordCacheKey(ResourceStudents))
	}

	if !dryRun {
		s.metrics.ObserveImport(kind, ImportOutcomeApplied, len(updatedIDs), len(result.Skipped), time.Since(start))
		s.logger.Info("import applied",
			zap.String("kind", string(kind)),
			zap.String("active_semester", active),
			zap.Int("records", len(records)),
			zap.Int("updated", len(updatedIDs)),
			zap.Int("skipped", len(result.Skipped)),
			zap.String("by", actorID(actor)),
			zap.Duration("duration", time.Since(start)),
		)
	}

	out := &dto.ImportResult{
		Kind:           kind,
		ActiveSemester: active,
		UpdatedCount:   len(updatedIDs),
		UpdatedIDs:     updatedIDs,
		Skipped:        make([]dto.ImportSkip, 0, len(result.Skipped)),
		Students:       snapshot,
		DryRun:         dryRun,
	}
	for _, skip := range result.Skipped {
		out.Skipped = append(out.Skipped, dto.ImportSkip{Index: skip.Index, StudentID: skip.StudentID, Reason: skip.Reason})
	}
	if req.Redirect {
		out.NavigateTo = kind.NavigateTo()
	}
	return out, nil
}

// decode turns raw rows into validated records. Activities without an id get
// a generated one.
func (s *ImportService) decode(kind models.ImportKind, raws []json.RawMessage) ([]models.ImportRecord, error) {
	records, err := models.DecodeImportRecords(kind, raws)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	for i, rec := range records {
		if err := s.validate.Struct(rec); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("record %d: %s", i, err.Error()))
		}
		if act, ok := rec.(models.ActivityImport); ok && act.Activity.ID == "" {
			act.Activity.ID = uuid.NewString()
			records[i] = act
		}
	}
	return records, nil
}

func (s *ImportService) activeSemester(ctx context.Context) (string, error) {
	if s.semesters != nil {
		semester, err := s.semesters.CurrentSemester(ctx)
		if err != nil {
			return "", err
		}
		if semester != "" {
			return semester, nil
		}
	}
	return s.cfg.DefaultSemester, nil
}

// loadStudents reads the authoritative collection straight from the store.
// The returned order lists each id once, at its first position.
func (s *ImportService) loadStudents(ctx context.Context) ([]string, map[string]models.Student, error) {
	raws, err := s.fetchAll(ctx, ResourceStudents)
	if err != nil {
		return nil, nil, err
	}
	students, err := decodeRecords[models.Student](ResourceStudents, raws)
	if err != nil {
		return nil, nil, err
	}
	order := make([]string, 0, len(students))
	current := make(map[string]models.Student, len(students))
	for _, st := range students {
		if _, seen := current[st.ID]; !seen {
			order = append(order, st.ID)
		}
		current[st.ID] = st
	}
	return order, current, nil
}

func (s *ImportService) loadCatalog(ctx context.Context) (models.SubjectCatalog, error) {
	raws, err := s.fetchAll(ctx, ResourceSubjects)
	if err != nil {
		return nil, err
	}
	subjects, err := decodeRecords[models.Subject](ResourceSubjects, raws)
	if err != nil {
		return nil, err
	}
	return models.NewSubjectCatalog(subjects), nil
}

func (s *ImportService) fetchAll(ctx context.Context, resource string) ([]json.RawMessage, error) {
	start := time.Now()
	raws, err := s.store.FetchAll(ctx, resource)
	s.metrics.ObserveStoreCall("fetch_all", resource, err, time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "record store read failed")
	}
	return raws, nil
}

// persist writes the changed students with one batch call, retried per the
// configured policy.
func (s *ImportService) persist(ctx context.Context, kind models.ImportKind, ids []string, students map[string]models.Student) error {
	payloads := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		payload, err := json.Marshal(students[id])
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode student")
		}
		payloads = append(payloads, payload)
	}

	policy := s.cfg.Retry
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		s.logger.Warn("retrying student batch write",
			zap.String("kind", string(kind)),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		start := time.Now()
		err := s.store.UpsertBatch(ctx, ResourceStudents, payloads)
		s.metrics.ObserveStoreCall("upsert_batch", ResourceStudents, err, time.Since(start))
		return err
	})
	if err != nil {
		s.logger.Error("student batch write failed",
			zap.String("kind", string(kind)),
			zap.Int("students", len(payloads)),
			zap.Error(err),
		)
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}
	return nil
}

// overlay applies updated students onto the current collection. Existing
// students keep their position; new ones are appended in id order. The ids
// of all updated students are returned in snapshot order.
func overlay(order []string, current, updated map[string]models.Student) ([]models.Student, []string) {
	snapshot := make([]models.Student, 0, len(order)+len(updated))
	ids := make([]string, 0, len(updated))
	for _, id := range order {
		if st, ok := updated[id]; ok {
			snapshot = append(snapshot, st)
			ids = append(ids, id)
			continue
		}
		snapshot = append(snapshot, current[id])
	}

	var fresh []string
	for id := range updated {
		if _, ok := current[id]; !ok {
			fresh = append(fresh, id)
		}
	}
	sort.Strings(fresh)
	for _, id := range fresh {
		snapshot = append(snapshot, updated[id])
		ids = append(ids, id)
	}
	return snapshot, ids
}
