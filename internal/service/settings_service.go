package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/bbsmart-api/internal/dto"
	"github.com/noah-isme/bbsmart-api/internal/models"
	"github.com/noah-isme/bbsmart-api/internal/repository"
	appErrors "github.com/noah-isme/bbsmart-api/pkg/errors"
)

// SettingsService reads and updates the school-wide settings stored as
// {id, value} documents in the settings resource.
type SettingsService struct {
	records         *RecordService
	defaultSemester string
	logger          *zap.Logger
}

// NewSettingsService constructs a SettingsService. defaultSemester is used
// when no current semester has been configured.
func NewSettingsService(records *RecordService, defaultSemester string, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{records: records, defaultSemester: defaultSemester, logger: logger}
}

// Get returns the aggregated settings with defaults filled in.
func (s *SettingsService) Get(ctx context.Context) (*models.Settings, error) {
	raws, err := s.records.fetch(ctx, ResourceSettings)
	if err != nil {
		return nil, err
	}
	entries, err := decodeRecords[models.Setting](ResourceSettings, raws)
	if err != nil {
		return nil, err
	}

	settings := &models.Settings{}
	for _, entry := range entries {
		switch entry.ID {
		case models.SettingSchoolName:
			settings.SchoolName, _ = entry.Value.(string)
		case models.SettingLogoURL:
			settings.LogoURL, _ = entry.Value.(string)
		case models.SettingCurrentSemester:
			settings.CurrentSemester, _ = entry.Value.(string)
		case models.SettingSemesterList:
			settings.SemesterList = stringList(entry.Value)
		}
	}
	if settings.CurrentSemester == "" {
		settings.CurrentSemester = s.defaultSemester
	}
	if len(settings.SemesterList) == 0 {
		settings.SemesterList = models.DefaultSemesters()
	}
	return settings, nil
}

// CurrentSemester returns the semester imports treat as active.
func (s *SettingsService) CurrentSemester(ctx context.Context) (string, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return "", err
	}
	return settings.CurrentSemester, nil
}

// Update changes one setting.
func (s *SettingsService) Update(ctx context.Context, actor *models.JWTClaims, req dto.UpdateSettingRequest) (*models.Settings, error) {
	if err := s.records.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	var value interface{}
	switch req.Key {
	case models.SettingSchoolName, models.SettingLogoURL, models.SettingCurrentSemester:
		var text string
		if err := json.Unmarshal(req.Value, &text); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be a string", req.Key))
		}
		text = strings.TrimSpace(text)
		if req.Key == models.SettingCurrentSemester && !models.ValidSemester(text) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "currentSemester must look like 1/2567")
		}
		value = text
	case models.SettingSemesterList:
		var list []string
		if err := json.Unmarshal(req.Value, &list); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "semesterList must be an array of strings")
		}
		for _, semester := range list {
			if !models.ValidSemester(semester) {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid semester %q", semester))
			}
		}
		value = list
	}

	if err := s.put(ctx, actor, req.Key, value); err != nil {
		return nil, err
	}
	return s.Get(ctx)
}

// AddSemester prepends a new semester to the semester list.
func (s *SettingsService) AddSemester(ctx context.Context, actor *models.JWTClaims, req dto.AddSemesterRequest) (*models.Settings, error) {
	semester := strings.TrimSpace(req.Semester)
	if !models.ValidSemester(semester) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester must look like 1/2567")
	}
	current, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	for _, existing := range current.SemesterList {
		if existing == semester {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("semester %s already exists", semester))
		}
	}
	list := append([]string{semester}, current.SemesterList...)
	if err := s.put(ctx, actor, models.SettingSemesterList, list); err != nil {
		return nil, err
	}
	s.logger.Info("semester added", zap.String("semester", semester), zap.String("by", actorID(actor)))
	return s.Get(ctx)
}

func (s *SettingsService) put(ctx context.Context, actor *models.JWTClaims, key string, value interface{}) error {
	if actor == nil || !actor.Role.IsStaff() {
		return appErrors.Clone(appErrors.ErrForbidden, "only registry staff can change settings")
	}
	payload, err := json.Marshal(models.Setting{ID: key, Value: value})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode setting")
	}

	start := time.Now()
	err = s.records.store.UpsertOne(ctx, ResourceSettings, payload)
	s.records.metrics.ObserveStoreCall("upsert_one", ResourceSettings, err, time.Since(start))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}
	s.records.cache.Invalidate(ctx, repository.RecordCacheKey(ResourceSettings))
	return nil
}

func stringList(value interface{}) []string {
	items, ok := value.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if text, ok := item.(string); ok && text != "" {
			out = append(out, text)
		}
	}
	return out
}

func actorID(actor *models.JWTClaims) string {
	if actor == nil {
		return ""
	}
	return actor.UserID
}
