package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/markbookdev/markbook-classic-sub000/internal/dto"
	"github.com/markbookdev/markbook-classic-sub000/internal/legacy"
	"github.com/markbookdev/markbook-classic-sub000/internal/models"
	appErrors "github.com/markbookdev/markbook-classic-sub000/pkg/errors"
	"github.com/markbookdev/markbook-classic-sub000/pkg/middleware/requestid"
)

type bundlePersister interface {
	PersistBundle(ctx context.Context, bundle *models.LegacyClassBundle) error
}

// ImportService decodes a legacy class folder and writes it in one transaction.
type ImportService struct {
	repo      bundlePersister
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	root      string
}

// NewImportService constructs an ImportService confined to root.
func NewImportService(repo bundlePersister, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, root string) *ImportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{repo: repo, validator: validate, metrics: metrics, logger: logger, root: root}
}

// ImportFolder decodes everything before writing anything. Missing optional
// companions become warnings; a missing class or mark file, or any malformed
// file, aborts the import without touching the store.
func (s *ImportService) ImportFolder(ctx context.Context, req dto.ImportRequest) (*models.ImportResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid import payload")
	}
	rel, dir, err := s.resolve(req.Folder)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	logger := s.logger.With(zap.String("class_folder", rel))
	if reqID := requestid.FromContext(ctx); reqID != "" {
		logger = logger.With(zap.String("request_id", reqID))
	}

	files, err := legacy.Discover(dir)
	if err != nil {
		return nil, s.fail(logger, start, err)
	}
	decodeStart := time.Now()
	folder, err := legacy.DecodeFolder(ctx, files)
	if err != nil {
		return nil, s.fail(logger, start, err)
	}
	s.metrics.ObserveDecode(time.Since(decodeStart))

	bundle := BuildBundle(folder, rel)
	if err := s.repo.PersistBundle(ctx, bundle); err != nil {
		s.metrics.ObserveImport(ImportOutcomeError, time.Since(start))
		logger.Error("persist legacy bundle", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store imported class")
	}

	result := importResult(bundle, folder)
	codes := make([]string, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		codes = append(codes, w.Code)
		logger.Warn("legacy import warning", zap.String("code", w.Code), zap.String("path", w.Path))
	}
	s.metrics.ObserveImport(ImportOutcomeSuccess, time.Since(start), codes...)
	logger.Info("legacy folder imported",
		zap.String("class_id", result.ClassID),
		zap.Int("students", result.StudentsImported),
		zap.Int("mark_sets", result.MarkSetsImported),
		zap.Int("scores", result.ScoresImported),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// resolve confines folder to the import root and returns it relative to the root and absolute.
func (s *ImportService) resolve(folder string) (string, string, error) {
	root, err := filepath.Abs(s.root)
	if err != nil {
		return "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid import root")
	}
	candidate := filepath.Clean(strings.TrimSpace(folder))
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(root, candidate)
	}
	rel, err := filepath.Rel(root, candidate)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", appErrors.BadParam("folder", "folder must be inside the legacy import root")
	}
	return filepath.ToSlash(rel), candidate, nil
}

func (s *ImportService) fail(logger *zap.Logger, start time.Time, err error) error {
	outcome := ImportOutcomeError
	var mapped error
	switch {
	case errors.Is(err, legacy.ErrNotFound):
		outcome = ImportOutcomeNotFound
		mapped = legacyError(appErrors.ErrLegacyNotFound, err)
	case errors.Is(err, legacy.ErrParseFailed):
		outcome = ImportOutcomeParse
		mapped = legacyError(appErrors.ErrLegacyParseFailed, err)
	default:
		mapped = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read legacy folder")
	}
	s.metrics.ObserveImport(outcome, time.Since(start))
	logger.Warn("legacy import failed",
		zap.String("kind", string(legacy.KindOf(err))),
		zap.String("path", legacy.PathOf(err)),
		zap.Error(err),
	)
	return mapped
}

func legacyError(template *appErrors.Error, err error) *appErrors.Error {
	wrapped := appErrors.Wrap(err, template.Code, template.Status, fmt.Sprintf("%s: %s", template.Message, err.Error()))
	details := map[string]interface{}{
		"kind": string(legacy.KindOf(err)),
		"path": legacy.PathOf(err),
	}
	var pe *legacy.ParseError
	if errors.As(err, &pe) && pe.Line > 0 {
		details["line"] = pe.Line
	}
	return appErrors.WithDetails(wrapped, details)
}

func importResult(bundle *models.LegacyClassBundle, folder *legacy.Folder) *models.ImportResult {
	result := &models.ImportResult{
		ClassID:              bundle.Class.ID,
		StudentsImported:     len(bundle.Students),
		MarkSetsImported:     len(bundle.MarkSets),
		AssessmentsImported:  bundle.AssessmentCount(),
		ScoresImported:       bundle.ScoreCount(),
		AttendanceImported:   folder.Attendance != nil,
		SeatingImported:      folder.Seating != nil,
		DeviceCodesImported:  folder.DeviceCodes != nil,
		LoanedItemsImported:  folder.LoanedItems != nil,
		CommentBanksImported: len(bundle.CommentBanks),
		Warnings:             make([]models.ImportWarning, 0, len(folder.Warnings)),
	}
	for _, ms := range bundle.MarkSets {
		result.CommentSetsImported += len(ms.CommentSets)
	}
	for _, w := range folder.Warnings {
		result.Warnings = append(result.Warnings, models.ImportWarning{Code: w.Code, Message: w.Message, Path: w.Path})
	}
	return result
}
