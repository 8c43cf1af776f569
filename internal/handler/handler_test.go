package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bbsmart-api/internal/dto"
	"github.com/noah-isme/bbsmart-api/internal/middleware"
	"github.com/noah-isme/bbsmart-api/internal/models"
	"github.com/noah-isme/bbsmart-api/internal/service"
	appErrors "github.com/noah-isme/bbsmart-api/pkg/errors"
)

var registrar = &models.JWTClaims{UserID: "registrar-1", Role: models.RoleRegistrar}

// newTestContext builds a gin context carrying the given claims.
func newTestContext(method, target string, body []byte, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

type importServiceMock struct {
	calls   []string
	lastReq dto.ImportRequest
	err     error
}

func (m *importServiceMock) Import(ctx context.Context, actor *models.JWTClaims, kind string, req dto.ImportRequest) (*dto.ImportResult, error) {
	m.calls = append(m.calls, "import:"+kind)
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.ImportResult{Kind: models.ImportGrade, UpdatedCount: 1, UpdatedIDs: []string{"6710001"}, Skipped: []dto.ImportSkip{{Index: 1, StudentID: "x", Reason: "student_not_found"}}}, nil
}

func (m *importServiceMock) Preview(ctx context.Context, actor *models.JWTClaims, kind string, req dto.ImportRequest) (*dto.ImportResult, error) {
	m.calls = append(m.calls, "preview:"+kind)
	return &dto.ImportResult{Kind: models.ImportGrade, DryRun: true}, nil
}

func TestImportHandler(t *testing.T) {
	mock := &importServiceMock{}
	h := NewImportHandler(mock)

	body := []byte(`{"records":[{"studentId":"6710001","enrolledCourse":{"subjectId":"M101","semester":"1/2567","grade":4}}],"redirect":true}`)
	c, w := newTestContext(http.MethodPost, "/imports/grade", body, registrar)
	c.Params = gin.Params{{Key: "kind", Value: "grade"}}
	h.Import(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.EqualValues(t, 1, env.Meta["updatedCount"])
	assert.EqualValues(t, 1, env.Meta["skippedCount"])
	assert.True(t, mock.lastReq.Redirect)
	assert.Len(t, mock.lastReq.Records, 1)

	c, w = newTestContext(http.MethodPost, "/imports/grade?dryRun=true", body, registrar)
	c.Params = gin.Params{{Key: "kind", Value: "grade"}}
	h.Import(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"import:grade", "preview:grade"}, mock.calls)
}

func TestImportHandlerErrors(t *testing.T) {
	mock := &importServiceMock{err: appErrors.Wrap(assert.AnError, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "record store write failed")}
	h := NewImportHandler(mock)

	c, w := newTestContext(http.MethodPost, "/imports/grade", []byte(`{"records":"nope"}`), registrar)
	h.Import(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, mock.calls)

	c, w = newTestContext(http.MethodPost, "/imports/grade", []byte(`{"records":[]}`), registrar)
	c.Params = gin.Params{{Key: "kind", Value: "grade"}}
	h.Import(c)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, appErrors.ErrUpstream.Code, decodeEnvelope(t, w).Error.Code)
}

type recordServiceMock struct {
	saved   []json.RawMessage
	deleted string
}

func (m *recordServiceMock) List(ctx context.Context, resource string) ([]json.RawMessage, error) {
	if resource != service.ResourceVideos {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown resource")
	}
	return []json.RawMessage{json.RawMessage(`{"id":"v1","title":"intro"}`)}, nil
}

func (m *recordServiceMock) Save(ctx context.Context, actor *models.JWTClaims, resource string, payload json.RawMessage) (json.RawMessage, error) {
	m.saved = append(m.saved, payload)
	return payload, nil
}

func (m *recordServiceMock) SaveBatch(ctx context.Context, actor *models.JWTClaims, resource string, payloads []json.RawMessage) ([]json.RawMessage, error) {
	m.saved = append(m.saved, payloads...)
	return payloads, nil
}

func (m *recordServiceMock) Delete(ctx context.Context, actor *models.JWTClaims, resource, id string) error {
	if id == "missing" {
		return appErrors.ErrNotFound
	}
	m.deleted = resource + "/" + id
	return nil
}

func TestRecordHandler(t *testing.T) {
	mock := &recordServiceMock{}
	h := NewRecordHandler(mock)

	c, w := newTestContext(http.MethodGet, "/records/videos", nil, registrar)
	c.Params = gin.Params{{Key: "resource", Value: "videos"}}
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.JSONEq(t, `[{"id":"v1","title":"intro"}]`, string(env.Data))
	assert.EqualValues(t, 1, env.Meta["count"])

	c, w = newTestContext(http.MethodGet, "/records/grades", nil, registrar)
	c.Params = gin.Params{{Key: "resource", Value: "grades"}}
	h.List(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, w = newTestContext(http.MethodPost, "/records/videos", []byte(`{"title":"new"}`), registrar)
	c.Params = gin.Params{{Key: "resource", Value: "videos"}}
	h.Create(c)
	assert.Equal(t, http.StatusCreated, w.Code)

	c, w = newTestContext(http.MethodPost, "/records/videos/batch", []byte(`{"id":"v2"}`), registrar)
	c.Params = gin.Params{{Key: "resource", Value: "videos"}}
	h.CreateBatch(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newTestContext(http.MethodPost, "/records/videos/batch", []byte(`[{"id":"v2"},{"id":"v3"}]`), registrar)
	c.Params = gin.Params{{Key: "resource", Value: "videos"}}
	h.CreateBatch(c)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, mock.saved, 3)

	c, w = newTestContext(http.MethodDelete, "/records/videos/v1", nil, registrar)
	c.Params = gin.Params{{Key: "resource", Value: "videos"}, {Key: "id", Value: "v1"}}
	h.Delete(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "videos/v1", mock.deleted)

	c, w = newTestContext(http.MethodDelete, "/records/videos/missing", nil, registrar)
	c.Params = gin.Params{{Key: "resource", Value: "videos"}, {Key: "id", Value: "missing"}}
	h.Delete(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type settingsServiceMock struct {
	settings models.Settings
}

func (m *settingsServiceMock) Get(ctx context.Context) (*models.Settings, error) {
	return &m.settings, nil
}

func (m *settingsServiceMock) Update(ctx context.Context, actor *models.JWTClaims, req dto.UpdateSettingRequest) (*models.Settings, error) {
	var value string
	if err := json.Unmarshal(req.Value, &value); err != nil {
		return nil, appErrors.ErrValidation
	}
	m.settings.SchoolName = value
	return &m.settings, nil
}

func (m *settingsServiceMock) AddSemester(ctx context.Context, actor *models.JWTClaims, req dto.AddSemesterRequest) (*models.Settings, error) {
	for _, s := range m.settings.SemesterList {
		if s == req.Semester {
			return nil, appErrors.ErrConflict
		}
	}
	m.settings.SemesterList = append([]string{req.Semester}, m.settings.SemesterList...)
	return &m.settings, nil
}

func TestSettingsHandler(t *testing.T) {
	mock := &settingsServiceMock{settings: models.Settings{CurrentSemester: "1/2568", SemesterList: []string{"1/2568"}}}
	h := NewSettingsHandler(mock)

	c, w := newTestContext(http.MethodGet, "/settings", nil, nil)
	h.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	var settings models.Settings
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &settings))
	assert.Equal(t, "1/2568", settings.CurrentSemester)

	c, w = newTestContext(http.MethodPut, "/settings", []byte(`{"key":"schoolName","value":"ศกร.ตำบลบางบัวทอง"}`), registrar)
	h.Update(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ศกร.ตำบลบางบัวทอง", mock.settings.SchoolName)

	c, w = newTestContext(http.MethodPost, "/settings/semesters", []byte(`{}`), registrar)
	h.AddSemester(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newTestContext(http.MethodPost, "/settings/semesters", []byte(`{"semester":"2/2568"}`), registrar)
	h.AddSemester(c)
	assert.Equal(t, http.StatusCreated, w.Code)

	c, w = newTestContext(http.MethodPost, "/settings/semesters", []byte(`{"semester":"2/2568"}`), registrar)
	h.AddSemester(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

type studentServiceMock struct{}

func (studentServiceMock) List(ctx context.Context, actor *models.JWTClaims) ([]models.Student, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return []models.Student{{ID: "6710001"}}, nil
}

func (studentServiceMock) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Student, error) {
	if id != "6710001" {
		return nil, appErrors.ErrNotFound
	}
	return &models.Student{ID: id}, nil
}

type transcriptServiceMock struct {
	lastFormat string
}

func (m *transcriptServiceMock) Build(ctx context.Context, actor *models.JWTClaims, studentID, semester string) (*models.Transcript, error) {
	return &models.Transcript{StudentID: studentID, Semester: semester, GPA: 3.5}, nil
}

func (m *transcriptServiceMock) Export(ctx context.Context, actor *models.JWTClaims, studentID, semester, format string) (*service.TranscriptFile, error) {
	m.lastFormat = format
	if format != service.FormatCSV {
		return nil, appErrors.ErrUnsupportedFormat
	}
	return &service.TranscriptFile{Filename: "transcript-" + studentID + ".csv", ContentType: "text/csv; charset=utf-8", Data: []byte("Semester\n")}, nil
}

func TestStudentHandler(t *testing.T) {
	transcripts := &transcriptServiceMock{}
	h := NewStudentHandler(studentServiceMock{}, transcripts)

	c, w := newTestContext(http.MethodGet, "/students", nil, nil)
	h.List(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newTestContext(http.MethodGet, "/students", nil, registrar)
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decodeEnvelope(t, w).Meta["count"])

	c, w = newTestContext(http.MethodGet, "/students/nobody", nil, registrar)
	c.Params = gin.Params{{Key: "id", Value: "nobody"}}
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, w = newTestContext(http.MethodGet, "/students/6710001/transcript?semester=1/2567", nil, registrar)
	c.Params = gin.Params{{Key: "id", Value: "6710001"}}
	h.Transcript(c)
	require.Equal(t, http.StatusOK, w.Code)
	var transcript models.Transcript
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &transcript))
	assert.Equal(t, "1/2567", transcript.Semester)

	c, w = newTestContext(http.MethodGet, "/students/6710001/transcript?format=CSV", nil, registrar)
	c.Params = gin.Params{{Key: "id", Value: "6710001"}}
	h.Transcript(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", transcripts.lastFormat)
	assert.Equal(t, `attachment; filename="transcript-6710001.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Semester\n", w.Body.String())

	c, w = newTestContext(http.MethodGet, "/students/6710001/transcript?format=xlsx", nil, registrar)
	c.Params = gin.Params{{Key: "id", Value: "6710001"}}
	h.Transcript(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsHandler(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.ObserveImport(models.ImportGrade, service.ImportOutcomeApplied, 3, 1, 0)
	h := NewMetricsHandler(metrics)

	c, w := newTestContext(http.MethodGet, "/metrics/summary", nil, nil)
	h.Summary(c)
	require.Equal(t, http.StatusOK, w.Code)
	var snap models.SystemMetrics
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &snap))
	assert.Equal(t, uint64(1), snap.ImportBatchesApplied)
	assert.Equal(t, uint64(3), snap.ImportRecordsApplied)

	c, w = newTestContext(http.MethodGet, "/metrics", nil, nil)
	h.Prometheus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "import_batches_total")

	c, w = newTestContext(http.MethodGet, "/health", nil, nil)
	h.Health(c)
	assert.Equal(t, http.StatusOK, w.Code)
}
