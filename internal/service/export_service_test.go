package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/markbookdev/markbook-classic-sub000/internal/dto"
	"github.com/markbookdev/markbook-classic-sub000/internal/markset"
	"github.com/markbookdev/markbook-classic-sub000/internal/models"
	appErrors "github.com/markbookdev/markbook-classic-sub000/pkg/errors"
	"github.com/markbookdev/markbook-classic-sub000/pkg/storage"
)

func newTestExportService(t *testing.T, signer *storage.SignedURLSigner) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	summaries := newTestSummaryService(&fakeSnapshotReader{snapshot: classSnapshot()})
	return NewExportService(summaries, store, signer, ExportConfig{APIPrefix: "/api/v1/"}, NewMetricsService(), zap.NewNop(), nil, nil)
}

func TestExportMarkSetCSV(t *testing.T) {
	svc := newTestExportService(t, storage.NewSignedURLSigner("secret", time.Hour))

	resp, err := svc.ExportMarkSet(context.Background(), "class-1", "ms-1", dto.ExportRequest{Format: models.ReportFormatCSV})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/exports/"+resp.Token, resp.URL)
	assert.Equal(t, models.ReportFormatCSV, resp.Format)

	download, err := svc.Open(resp.Token)
	require.NoError(t, err)
	defer download.File.Close() //nolint:errcheck
	assert.True(t, strings.HasPrefix(download.Filename, "MAT1_T1_"))
	assert.Equal(t, models.ReportFormatCSV, download.Format)

	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Student,Active,Final Mark,Scored,Zero,No Mark", lines[0])
	assert.Equal(t, "Student 1,true,80.0,1,0,0", lines[1])
	assert.Equal(t, "Student 4,true,,0,0,1", lines[4])
}

func TestExportMarkSetPDFWithScope(t *testing.T) {
	svc := newTestExportService(t, storage.NewSignedURLSigner("secret", time.Hour))

	resp, err := svc.ExportMarkSet(context.Background(), "class-1", "ms-1", dto.ExportRequest{
		Format:  models.ReportFormatPDF,
		Filters: markset.RawSummaryFilters{StudentScope: "active"},
	})
	require.NoError(t, err)

	download, err := svc.Open(resp.Token)
	require.NoError(t, err)
	defer download.File.Close() //nolint:errcheck
	assert.Equal(t, models.ReportFormatPDF, download.Format)
}

func TestExportMarkSetRejectsFormat(t *testing.T) {
	svc := newTestExportService(t, storage.NewSignedURLSigner("secret", time.Hour))

	_, err := svc.ExportMarkSet(context.Background(), "class-1", "ms-1", dto.ExportRequest{Format: "xlsx"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestExportOpenRejectsBadTokens(t *testing.T) {
	svc := newTestExportService(t, storage.NewSignedURLSigner("secret", time.Hour))
	resp, err := svc.ExportMarkSet(context.Background(), "class-1", "ms-1", dto.ExportRequest{Format: models.ReportFormatCSV})
	require.NoError(t, err)

	_, err = svc.Open(resp.Token + "0")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	other := newTestExportService(t, storage.NewSignedURLSigner("other", time.Hour))
	_, err = other.Open(resp.Token)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestExportCleanup(t *testing.T) {
	svc := newTestExportService(t, storage.NewSignedURLSigner("secret", time.Hour))
	_, err := svc.ExportMarkSet(context.Background(), "class-1", "ms-1", dto.ExportRequest{Format: models.ReportFormatCSV})
	require.NoError(t, err)

	deleted, err := svc.Cleanup(time.Hour)
	require.NoError(t, err)
	assert.Empty(t, deleted)

	deleted, err = svc.Cleanup(-time.Nanosecond)
	require.NoError(t, err)
	assert.Empty(t, deleted)
}
