package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/markbookdev/markbook-classic-sub000/internal/dto"
	"github.com/markbookdev/markbook-classic-sub000/internal/legacy"
	"github.com/markbookdev/markbook-classic-sub000/internal/models"
	appErrors "github.com/markbookdev/markbook-classic-sub000/pkg/errors"
)

type fakeBundlePersister struct {
	bundles []*models.LegacyClassBundle
	err     error
}

func (f *fakeBundlePersister) PersistBundle(_ context.Context, bundle *models.LegacyClassBundle) error {
	if f.err != nil {
		return f.err
	}
	f.bundles = append(f.bundles, bundle)
	return nil
}

func newTestImportService(repo bundlePersister, root string) *ImportService {
	return NewImportService(repo, nil, NewMetricsService(), zap.NewNop(), root)
}

func TestImportFolderPersistsBundle(t *testing.T) {
	root := t.TempDir()
	writeLegacyClass(t, root, "MAT1")
	repo := &fakeBundlePersister{}
	svc := newTestImportService(repo, root)

	result, err := svc.ImportFolder(context.Background(), dto.ImportRequest{Folder: "MAT1"})
	require.NoError(t, err)
	require.Len(t, repo.bundles, 1)

	bundle := repo.bundles[0]
	assert.Equal(t, "MAT1", bundle.Class.LegacyFolder)
	assert.Equal(t, bundle.Class.ID, result.ClassID)
	assert.Equal(t, 3, result.StudentsImported)
	assert.Equal(t, 1, result.MarkSetsImported)
	assert.Equal(t, 2, result.AssessmentsImported)
	assert.Equal(t, 5, result.ScoresImported)
	assert.Equal(t, 1, result.CommentSetsImported)
	assert.Equal(t, 1, result.CommentBanksImported)
	assert.True(t, result.AttendanceImported)
	assert.True(t, result.SeatingImported)
	assert.True(t, result.DeviceCodesImported)
	assert.True(t, result.LoanedItemsImported)
	assert.Empty(t, result.Warnings)
}

func TestImportFolderMissingAttendanceWarns(t *testing.T) {
	root := t.TempDir()
	dir := writeLegacyClass(t, root, "MAT1")
	require.NoError(t, os.Remove(filepath.Join(dir, "MAT1.ATN")))
	repo := &fakeBundlePersister{}
	svc := newTestImportService(repo, root)

	result, err := svc.ImportFolder(context.Background(), dto.ImportRequest{Folder: "MAT1"})
	require.NoError(t, err)
	assert.False(t, result.AttendanceImported)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, legacy.WarnMissingAttendance, result.Warnings[0].Code)
	assert.Equal(t, filepath.Join(dir, "MAT1.ATN"), result.Warnings[0].Path)
	assert.Empty(t, repo.bundles[0].AttendanceMonths)
}

func TestImportFolderCorruptCompanionWritesNothing(t *testing.T) {
	root := t.TempDir()
	dir := writeLegacyClass(t, root, "MAT1")
	writeLegacyFile(t, dir, "MAT1.ATN", "13")
	repo := &fakeBundlePersister{}
	svc := newTestImportService(repo, root)

	_, err := svc.ImportFolder(context.Background(), dto.ImportRequest{Folder: "MAT1"})
	require.Error(t, err)
	assert.Empty(t, repo.bundles)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrLegacyParseFailed.Code, appErr.Code)
	assert.Equal(t, filepath.Join(dir, "MAT1.ATN"), appErr.Details["path"])
	assert.Equal(t, string(legacy.KindAttendance), appErr.Details["kind"])
	assert.Equal(t, 1, appErr.Details["line"])
}

func TestImportFolderMissingMarkFile(t *testing.T) {
	root := t.TempDir()
	dir := writeLegacyClass(t, root, "MAT1")
	require.NoError(t, os.Remove(filepath.Join(dir, "MAT1.T1")))
	repo := &fakeBundlePersister{}
	svc := newTestImportService(repo, root)

	_, err := svc.ImportFolder(context.Background(), dto.ImportRequest{Folder: "MAT1"})
	require.Error(t, err)
	assert.Empty(t, repo.bundles)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrLegacyNotFound.Code, appErr.Code)
	assert.Equal(t, string(legacy.KindMarkFile), appErr.Details["kind"])
}

func TestImportFolderUnknownFolder(t *testing.T) {
	svc := newTestImportService(&fakeBundlePersister{}, t.TempDir())

	_, err := svc.ImportFolder(context.Background(), dto.ImportRequest{Folder: "NOPE"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrLegacyNotFound)
}

func TestImportFolderRejectsEscapes(t *testing.T) {
	root := t.TempDir()
	svc := newTestImportService(&fakeBundlePersister{}, root)

	for _, folder := range []string{"../outside", "..", ".", filepath.Dir(root)} {
		_, err := svc.ImportFolder(context.Background(), dto.ImportRequest{Folder: folder})
		require.Error(t, err, folder)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrBadParams.Code, appErr.Code, folder)
		assert.Equal(t, "folder", appErr.Details["field"], folder)
	}
}

func TestImportFolderValidatesRequest(t *testing.T) {
	svc := newTestImportService(&fakeBundlePersister{}, t.TempDir())

	_, err := svc.ImportFolder(context.Background(), dto.ImportRequest{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestImportFolderPersistFailure(t *testing.T) {
	root := t.TempDir()
	writeLegacyClass(t, root, "MAT1")
	svc := newTestImportService(&fakeBundlePersister{err: errors.New("tx aborted")}, root)

	_, err := svc.ImportFolder(context.Background(), dto.ImportRequest{Folder: "MAT1"})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
