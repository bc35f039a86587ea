package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markbookdev/markbook-classic-sub000/internal/dto"
	"github.com/markbookdev/markbook-classic-sub000/internal/models"
	appErrors "github.com/markbookdev/markbook-classic-sub000/pkg/errors"
)

type importServiceMock struct {
	req       dto.ImportRequest
	createdBy string
	result    *models.ImportResult
	job       *models.ImportJob
	err       error
}

func (m *importServiceMock) ImportFolder(_ context.Context, req dto.ImportRequest) (*models.ImportResult, error) {
	m.req = req
	return m.result, m.err
}

func (m *importServiceMock) Enqueue(_ context.Context, req dto.ImportRequest, createdBy string) (*models.ImportJob, error) {
	m.req, m.createdBy = req, createdBy
	return m.job, m.err
}

func (m *importServiceMock) Status(_ context.Context, id string) (*models.ImportJob, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.job, nil
}

func importRouter(mock *importServiceMock, withJobs bool) http.Handler {
	var jobs legacyImportJobs
	if withJobs {
		jobs = mock
	}
	h := NewImportHandler(mock, jobs, "/api/v1/")
	r := newTestRouter(&models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	r.POST("/legacy/imports", h.Import)
	r.POST("/legacy/imports/jobs", h.Enqueue)
	r.GET("/legacy/imports/jobs/:id", h.Status)
	return r
}

func TestImportHandlerImport(t *testing.T) {
	mock := &importServiceMock{result: &models.ImportResult{ClassID: "cls-1", StudentsImported: 3}}
	w, env := perform(t, importRouter(mock, true), http.MethodPost, "/legacy/imports", dto.ImportRequest{Folder: "MAT1"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MAT1", mock.req.Folder)
	var result models.ImportResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 3, result.StudentsImported)
}

func TestImportHandlerImportParseFailure(t *testing.T) {
	mock := &importServiceMock{err: appErrors.WithDetails(appErrors.ErrLegacyParseFailed, map[string]interface{}{"kind": "attendance"})}
	w, env := perform(t, importRouter(mock, true), http.MethodPost, "/legacy/imports", dto.ImportRequest{Folder: "MAT1"})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, appErrors.ErrLegacyParseFailed.Code, env.Error.Code)
	assert.Equal(t, "attendance", env.Error.Details["kind"])
}

func TestImportHandlerEnqueue(t *testing.T) {
	mock := &importServiceMock{job: &models.ImportJob{ID: "job-1", Status: models.ImportJobQueued}}
	w, env := perform(t, importRouter(mock, true), http.MethodPost, "/legacy/imports/jobs", dto.ImportRequest{Folder: "MAT1"})

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "admin-1", mock.createdBy)
	var resp dto.ImportJobResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "job-1", resp.ID)
	assert.Equal(t, models.ImportJobQueued, resp.Status)
	assert.Equal(t, "/api/v1/legacy/imports/jobs/job-1", resp.StatusURL)
}

func TestImportHandlerStatus(t *testing.T) {
	finished := time.Date(2024, 9, 10, 8, 0, 0, 0, time.UTC)
	mock := &importServiceMock{job: &models.ImportJob{
		ID:         "job-1",
		Folder:     "MAT1",
		Status:     models.ImportJobFinished,
		Attempts:   1,
		Result:     &models.ImportResult{ClassID: "cls-1"},
		FinishedAt: &finished,
	}}
	w, env := perform(t, importRouter(mock, true), http.MethodGet, "/legacy/imports/jobs/job-1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.ImportJobStatusResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, models.ImportJobFinished, resp.Status)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "cls-1", resp.Result.ClassID)
}

func TestImportHandlerJobsDisabled(t *testing.T) {
	mock := &importServiceMock{}
	w, env := perform(t, importRouter(mock, false), http.MethodPost, "/legacy/imports/jobs", dto.ImportRequest{Folder: "MAT1"})

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, appErrors.ErrFeatureDisabled.Code, env.Error.Code)
}

func TestImportHandlerInvalidPayload(t *testing.T) {
	mock := &importServiceMock{}
	w, _ := perform(t, importRouter(mock, true), http.MethodPost, "/legacy/imports", []string{"MAT1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, mock.req.Folder)
}
