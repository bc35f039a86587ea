package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markbookdev/markbook-classic-sub000/internal/dto"
	"github.com/markbookdev/markbook-classic-sub000/internal/markset"
	"github.com/markbookdev/markbook-classic-sub000/internal/models"
	appErrors "github.com/markbookdev/markbook-classic-sub000/pkg/errors"
	"github.com/markbookdev/markbook-classic-sub000/pkg/export"
	"github.com/markbookdev/markbook-classic-sub000/pkg/storage"
)

type fileStorage interface {
	Save(relPath string, data []byte) (string, error)
	Open(relPath string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
	RankLimit int
}

// Download is an opened export ready to stream.
type Download struct {
	File     *os.File
	Filename string
	Format   models.ReportFormat
}

// ExportService renders mark set reports and hands out signed download links.
type ExportService struct {
	summaries markSetSummarizer
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService. Nil renderers use the pkg/export defaults.
func NewExportService(summaries markSetSummarizer, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, metrics *MetricsService, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
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
		summaries: summaries,
		storage:   store,
		csv:       csv,
		pdf:       pdf,
		signer:    signer,
		validator: validator.New(),
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// ExportMarkSet renders the scoped summary and its analytics, stores the file
// and returns a signed link to it.
func (s *ExportService) ExportMarkSet(ctx context.Context, classID, markSetID string, req dto.ExportRequest) (*dto.ExportResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}
	summary, err := s.summaries.MarkSetSummary(ctx, classID, markSetID, req.Filters)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	analytics := markset.BuildAnalytics(summary, markset.AnalyticsOptions{RankLimit: s.cfg.RankLimit})
	dataset := summaryDataset(summary, analytics)
	title := fmt.Sprintf("%s %s: %s", summary.Class.Name, summary.MarkSet.Code, summary.MarkSet.Description)

	var payload []byte
	switch req.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, strings.TrimSuffix(title, ": "))
	default:
		return nil, appErrors.BadParam("format", fmt.Sprintf("unsupported format %q", req.Format))
	}
	if err != nil {
		s.logger.Error("render export", zap.String("format", string(req.Format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.metrics.ObserveCompute("export", time.Since(start))

	ref := uuid.NewString()
	relPath, err := s.storage.Save(exportFilename(summary, ref, req.Format), payload)
	if err != nil {
		s.logger.Error("store export", zap.String("ref", ref), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expiresAt, err := s.signer.Generate(ref, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Info("mark set exported",
		zap.String("class_id", classID),
		zap.String("mark_set_id", markSetID),
		zap.String("format", string(req.Format)),
		zap.String("path", relPath),
		zap.Int("bytes", len(payload)),
	)
	return &dto.ExportResponse{
		URL:       fmt.Sprintf("%s/exports/%s", prefix, token),
		Token:     token,
		Format:    req.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// Open validates a download token and opens the referenced file.
func (s *ExportService) Open(token string) (*Download, error) {
	ref, err := s.signer.Parse(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrNotFound, "download link expired"), map[string]interface{}{"reason": "expired"})
		}
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "download not found")
	}
	file, err := s.storage.Open(ref.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "download not found")
	}
	filename := ref.Path
	if idx := strings.LastIndex(filename, "/"); idx >= 0 {
		filename = filename[idx+1:]
	}
	format := models.ReportFormatCSV
	if strings.HasSuffix(filename, ".pdf") {
		format = models.ReportFormatPDF
	}
	return &Download{File: file, Filename: filename, Format: format}, nil
}

// Cleanup removes stored exports older than ttl; ttl <= 0 uses the configured result TTL.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	deleted, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		return nil, err
	}
	if len(deleted) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(deleted)))
	}
	return deleted, nil
}

func exportFilename(summary *markset.Summary, ref string, format models.ReportFormat) string {
	stamp := time.Now().UTC().Format("20060102_150405")
	name := fmt.Sprintf("%s_%s_%s.%s", sanitizeFilename(summary.Class.Code), sanitizeFilename(summary.MarkSet.Code), stamp, format)
	return ref + "/" + name
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 64 {
		return result[:64]
	}
	return result
}

// summaryDataset lays out one row per student: identity, final mark, state
// counts, then a percent column per category.
func summaryDataset(summary *markset.Summary, analytics *markset.Analytics) export.Dataset {
	headers := []string{"Student", "Active", "Final Mark", "Scored", "Zero", "No Mark"}
	for _, c := range summary.Categories {
		headers = append(headers, c.Name)
	}

	byStudent := make(map[string]markset.StudentCategoryBreakdown, len(summary.PerStudentCategory))
	for _, row := range summary.PerStudentCategory {
		byStudent[row.StudentID] = row
	}

	rows := make([]map[string]string, 0, len(summary.PerStudent))
	for _, st := range summary.PerStudent {
		row := map[string]string{
			"Student":    st.DisplayName,
			"Active":     strconv.FormatBool(st.Active),
			"Final Mark": formatOptional(st.FinalMark),
			"Scored":     strconv.Itoa(st.ScoredCount),
			"Zero":       strconv.Itoa(st.ZeroCount),
			"No Mark":    strconv.Itoa(st.NoMarkCount),
		}
		for _, cm := range byStudent[st.StudentID].Categories {
			row[cm.Name] = formatOptional(cm.Percent)
		}
		rows = append(rows, row)
	}

	kpis := analytics.KPIs
	notes := []string{
		fmt.Sprintf("Students: %d, with final mark: %d, assessments: %d", kpis.StudentCount, kpis.FinalMarkCount, kpis.AssessmentCount),
		fmt.Sprintf("Class average: %s, median: %s", formatOptional(kpis.ClassAverage), formatOptional(kpis.ClassMedian)),
		fmt.Sprintf("Student scope: %s", summary.Filters.StudentScope),
	}
	return export.Dataset{Headers: headers, Rows: rows, Notes: notes}
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}
