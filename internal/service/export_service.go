package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/models"
	"github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/export"
	"github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/storage"
)

type exportFinalGradeReader interface {
	ListAll(ctx context.Context, teacherID string) ([]models.FinalGrade, error)
}

type exportPracticeReader interface {
	List(ctx context.Context, filter models.PracticeFilter) ([]models.Practice, int, error)
}

type exportWeeklyLogReader interface {
	List(ctx context.Context, filter models.WeeklyLogFilter) ([]models.WeeklyLog, error)
}

type exportFileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds report datasets and persists rendered files.
type ExportService struct {
	finals    exportFinalGradeReader
	practices exportPracticeReader
	logs      exportWeeklyLogReader
	storage   exportFileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// NewExportService constructs an ExportService.
func NewExportService(finals exportFinalGradeReader, practices exportPracticeReader, logs exportWeeklyLogReader, store exportFileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		finals:    finals,
		practices: practices,
		logs:      logs,
		storage:   store,
		csv:       csv,
		pdf:       pdf,
		signer:    signer,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate builds the dataset according to the job definition and stores the
// rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/reportes/download/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s.%s", strings.ToLower(string(job.Type)), timestamp, job.Params.Format)
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeFinalGrades:
		return s.buildFinalGradeDataset(ctx, job.Params)
	case models.ReportTypeWeeklyLogs:
		return s.buildWeeklyLogDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) buildFinalGradeDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	grades, err := s.finals.ListAll(ctx, params.TeacherID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows := make([]map[string]string, 0, len(grades))
	for _, g := range grades {
		rows = append(rows, map[string]string{
			"Practica":            g.PracticeID,
			"Estudiante":          g.StudentID,
			"Docente":             derefString(g.TeacherID),
			"Promedio Bitacoras":  fmt.Sprintf("%.1f", g.WeeklyLogAverage),
			"Nota Informe":        fmt.Sprintf("%.1f", g.ReportGrade),
			"Nota Autoevaluacion": fmt.Sprintf("%.1f", g.SelfAssessmentGrade),
			"Nota Final":          fmt.Sprintf("%.1f", g.FinalScore),
			"Fecha Calculo":       g.CalculatedAt.UTC().Format(time.RFC3339),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Practica", "Estudiante", "Docente", "Promedio Bitacoras", "Nota Informe", "Nota Autoevaluacion", "Nota Final", "Fecha Calculo"},
		Rows:    rows,
	}
	return dataset, "Notas Finales", nil
}

func (s *ExportService) buildWeeklyLogDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	filter := models.PracticeFilter{TeacherID: params.TeacherID, PageSize: 500}
	practices, _, err := s.practices.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows := make([]map[string]string, 0, len(practices))
	for _, p := range practices {
		logs, err := s.logs.List(ctx, models.WeeklyLogFilter{PracticeID: p.ID})
		if err != nil {
			return export.Dataset{}, "", err
		}
		approved := 0
		for _, l := range logs {
			if l.Status == models.WeeklyLogStatusApproved {
				approved++
			}
		}
		rows = append(rows, map[string]string{
			"Practica":   p.ID,
			"Estudiante": p.StudentID,
			"Empresa":    p.Company,
			"Estado":     string(p.Status),
			"Bitacoras":  fmt.Sprintf("%d", len(logs)),
			"Aprobadas":  fmt.Sprintf("%d", approved),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Practica", "Estudiante", "Empresa", "Estado", "Bitacoras", "Aprobadas"},
		Rows:    rows,
	}
	return dataset, "Avance de Bitacoras", nil
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
