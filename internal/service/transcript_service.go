package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/bbsmart-api/internal/models"
	"github.com/noah-isme/bbsmart-api/internal/reconcile"
	appErrors "github.com/noah-isme/bbsmart-api/pkg/errors"
	"github.com/noah-isme/bbsmart-api/pkg/export"
)

// Transcript export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
)

var transcriptHeaders = []string{"Semester", "Code", "Subject", "Type", "Credit", "Grade"}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string, lines ...string) ([]byte, error)
}

// TranscriptFile is a rendered transcript ready to be downloaded.
type TranscriptFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// TranscriptService builds grade reports and graduation progress.
type TranscriptService struct {
	students *StudentService
	records  *RecordService
	criteria []models.GraduationCriteria
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
}

// NewTranscriptService constructs a TranscriptService. Nil renderers fall back
// to the default exporters and empty criteria to the curriculum defaults.
func NewTranscriptService(students *StudentService, records *RecordService, criteria []models.GraduationCriteria, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *TranscriptService {
	if len(criteria) == 0 {
		criteria = models.DefaultGraduationCriteria()
	}
	if csv == nil {
		csv = export.NewCSVExporter(true)
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptService{students: students, records: records, criteria: criteria, csv: csv, pdf: pdf, logger: logger}
}

// Build assembles the transcript of a student. A non-empty semester limits
// rows and GPA to that semester; graduation progress always covers every
// semester.
func (s *TranscriptService) Build(ctx context.Context, actor *models.JWTClaims, studentID, semester string) (*models.Transcript, error) {
	semester = strings.TrimSpace(semester)
	if semester != "" && !models.ValidSemester(semester) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester must look like 1/2567")
	}
	student, err := s.students.Get(ctx, actor, studentID)
	if err != nil {
		return nil, err
	}
	raws, err := s.records.fetch(ctx, ResourceSubjects)
	if err != nil {
		return nil, err
	}
	subjects, err := decodeRecords[models.Subject](ResourceSubjects, raws)
	if err != nil {
		return nil, err
	}
	catalog := models.NewSubjectCatalog(subjects)

	courses := make([]models.EnrolledCourse, 0, len(student.EnrolledCourses))
	rows := make([]models.TranscriptRow, 0, len(student.EnrolledCourses))
	for _, course := range student.EnrolledCourses {
		if semester != "" && course.Semester != semester {
			continue
		}
		courses = append(courses, course)
		row := models.TranscriptRow{
			Semester:  course.Semester,
			SubjectID: course.SubjectID,
			Grade:     course.Grade,
		}
		if subject, ok := catalog[course.SubjectID]; ok {
			row.SubjectCode = subject.Code
			row.SubjectName = subject.Name
			row.SubjectType = subject.Type
			row.Credit = subject.Credit
		} else {
			row.SubjectCode = course.SubjectID
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		ki, kj := semesterKey(rows[i].Semester), semesterKey(rows[j].Semester)
		if ki != kj {
			return ki < kj
		}
		return rows[i].SubjectCode < rows[j].SubjectCode
	})

	return &models.Transcript{
		StudentID:   student.ID,
		StudentName: student.FullName(),
		Semester:    semester,
		GPA:         reconcile.ComputeGPA(courses, catalog),
		Rows:        rows,
		Progress:    GraduationProgress(*student, catalog, s.criteria),
	}, nil
}

// Export renders the transcript as CSV or PDF.
func (s *TranscriptService) Export(ctx context.Context, actor *models.JWTClaims, studentID, semester, format string) (*TranscriptFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported format %q", format))
	}
	transcript, err := s.Build(ctx, actor, studentID, semester)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: transcriptHeaders}
	for _, row := range transcript.Rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Semester": row.Semester,
			"Code":     row.SubjectCode,
			"Subject":  row.SubjectName,
			"Type":     string(row.SubjectType),
			"Credit":   strconv.FormatFloat(row.Credit, 'f', -1, 64),
			"Grade":    row.Grade.String(),
		})
	}

	name := "transcript-" + transcript.StudentID
	if semester != "" {
		name += "-" + strings.ReplaceAll(semester, "/", "-")
	}

	var data []byte
	file := &TranscriptFile{}
	switch format {
	case FormatCSV:
		data, err = s.csv.Render(dataset)
		file.Filename, file.ContentType = name+".csv", "text/csv; charset=utf-8"
	case FormatPDF:
		lines := []string{
			fmt.Sprintf("Student: %s %s", transcript.StudentID, transcript.StudentName),
			fmt.Sprintf("GPA: %.2f", transcript.GPA),
			fmt.Sprintf("Credits: %s (level %s)", strconv.FormatFloat(transcript.Progress.TotalCredits, 'f', -1, 64), transcript.Progress.Level),
		}
		data, err = s.pdf.Render(dataset, "Transcript", lines...)
		file.Filename, file.ContentType = name+".pdf", "application/pdf"
	}
	if err != nil {
		s.logger.Error("render transcript", zap.String("student_id", studentID), zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render transcript")
	}
	file.Data = data
	return file, nil
}

// GraduationProgress sums earned credits and activity hours of a student and
// checks them against the criteria of the student's level. Only graded
// courses of known subjects earn credit.
func GraduationProgress(student models.Student, catalog models.SubjectCatalog, criteria []models.GraduationCriteria) models.GraduationProgress {
	level := student.Grade
	if !models.KnownLevel(level) {
		level = models.LevelFromID(student.ID)
	}
	progress := models.GraduationProgress{Level: level}

	for _, course := range student.EnrolledCourses {
		if !course.Grade.Graded() {
			continue
		}
		subject, ok := catalog[course.SubjectID]
		if !ok {
			continue
		}
		progress.TotalCredits += subject.Credit
		switch subject.Type {
		case models.SubjectCompulsory:
			progress.CompulsoryCredits += subject.Credit
		case models.SubjectElective:
			progress.ElectiveCredits += subject.Credit
		}
	}
	for _, activity := range student.Activities {
		progress.ActivityHours += activity.Hours
	}

	for i := range criteria {
		if criteria[i].Level != level {
			continue
		}
		c := criteria[i]
		progress.Criteria = &c
		progress.Eligible = progress.TotalCredits >= c.MinTotalCredits &&
			progress.CompulsoryCredits >= c.MinCompulsoryCredits &&
			progress.ElectiveCredits >= c.MinElectiveCredits &&
			progress.ActivityHours >= c.MinActivityHours
		break
	}
	return progress
}

// semesterKey orders "term/year" chronologically; malformed values sort last.
func semesterKey(semester string) int {
	term, year, ok := strings.Cut(semester, "/")
	if !ok {
		return 1 << 30
	}
	t, errT := strconv.Atoi(term)
	y, errY := strconv.Atoi(year)
	if errT != nil || errY != nil {
		return 1 << 30
	}
	return y*10 + t
}
