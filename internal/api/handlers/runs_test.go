package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/twinion/internal/repository"
	"github.com/RMahshie/twinion/internal/storage"
	"github.com/RMahshie/twinion/pkg/models"
)

// MockRunRepository implements repository.RunRepository for testing
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) Create(ctx context.Context, run *models.Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Run), args.Error(1)
}

func (m *MockRunRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, progress int) error {
	args := m.Called(ctx, id, status, progress)
	return args.Error(0)
}

func (m *MockRunRepository) UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error {
	args := m.Called(ctx, id, errorMsg)
	return args.Error(0)
}

func (m *MockRunRepository) UpdateCounts(ctx context.Context, id uuid.UUID, hits, records int) error {
	args := m.Called(ctx, id, hits, records)
	return args.Error(0)
}

func (m *MockRunRepository) StoreHit(ctx context.Context, unit *models.HitUnit) error {
	args := m.Called(ctx, unit)
	return args.Error(0)
}

func (m *MockRunRepository) ListHits(ctx context.Context, runID uuid.UUID) ([]models.HitSummary, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.HitSummary), args.Error(1)
}

func (m *MockRunRepository) GetHit(ctx context.Context, runID uuid.UUID, hitNumber int) (*models.HitUnit, error) {
	args := m.Called(ctx, runID, hitNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HitUnit), args.Error(1)
}

// MockS3Service implements storage.S3Service for testing
type MockS3Service struct {
	mock.Mock
}

func (m *MockS3Service) GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error) {
	args := m.Called(ctx, key, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockS3Service) OpenFile(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockS3Service) UploadFile(ctx context.Context, key string, contentType string, data []byte) error {
	args := m.Called(ctx, key, contentType, data)
	return args.Error(0)
}

// MockProcessingService implements processing.ProcessingService for testing
type MockProcessingService struct {
	mock.Mock
}

func (m *MockProcessingService) ProcessRun(ctx context.Context, runID uuid.UUID) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}

var defaultSettings = models.RunSettings{
	TimeHalfWindow:     20,
	MassDelta:          6.0201,
	SmoothingHalfWidth: 1,
	MaxHits:            1000,
}

func newHandler(repo *MockRunRepository, s3 *MockS3Service, proc *MockProcessingService) *RunHandler {
	return NewRunHandler(repo, s3, proc, defaultSettings, zerolog.Nop())
}

// statusOf extracts the HTTP status carried by a huma error
func statusOf(t *testing.T, err error) int {
	t.Helper()

	var se huma.StatusError
	require.True(t, errors.As(err, &se), "expected huma status error, got %v", err)
	return se.GetStatus()
}

func ptr[T any](v T) *T { return &v }

func TestCreateRun(t *testing.T) {
	tests := []struct {
		name         string
		input        models.CreateRunRequest
		mockSetup    func(*MockRunRepository, *MockS3Service)
		wantStatus   int
		wantSettings models.RunSettings
	}{
		{
			name: "defaults",
			mockSetup: func(mockRepo *MockRunRepository, mockS3 *MockS3Service) {
				mockS3.On("GenerateUploadURL", mock.Anything, mock.Anything, storage.ContentTypeMzML).Return("https://example.com/dataset", nil)
				mockS3.On("GenerateUploadURL", mock.Anything, mock.Anything, storage.ContentTypeCSV).Return("https://example.com/hits", nil)
				mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Run")).Return(nil)
			},
			wantSettings: defaultSettings,
		},
		{
			name: "overrides",
			input: func() models.CreateRunRequest {
				var req models.CreateRunRequest
				req.Body.TimeHalfWindow = ptr(5.0)
				req.Body.MassDelta = ptr(4.0)
				req.Body.SmoothingHalfWidth = ptr(2)
				req.Body.MaxHits = ptr(10)
				return req
			}(),
			mockSetup: func(mockRepo *MockRunRepository, mockS3 *MockS3Service) {
				mockS3.On("GenerateUploadURL", mock.Anything, mock.Anything, mock.Anything).Return("https://example.com/upload", nil)
				mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Run")).Return(nil)
			},
			wantSettings: models.RunSettings{TimeHalfWindow: 5, MassDelta: 4, SmoothingHalfWidth: 2, MaxHits: 10},
		},
		{
			name: "invalid hit cap",
			input: func() models.CreateRunRequest {
				var req models.CreateRunRequest
				req.Body.MaxHits = ptr(0)
				return req
			}(),
			mockSetup:  func(mockRepo *MockRunRepository, mockS3 *MockS3Service) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "invalid content type",
			mockSetup: func(mockRepo *MockRunRepository, mockS3 *MockS3Service) {
				mockS3.On("GenerateUploadURL", mock.Anything, mock.Anything, storage.ContentTypeMzML).
					Return("", fmt.Errorf("invalid content type: application/xml"))
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "storage unavailable",
			mockSetup: func(mockRepo *MockRunRepository, mockS3 *MockS3Service) {
				mockS3.On("GenerateUploadURL", mock.Anything, mock.Anything, mock.Anything).Return("", assert.AnError)
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "database failure",
			mockSetup: func(mockRepo *MockRunRepository, mockS3 *MockS3Service) {
				mockS3.On("GenerateUploadURL", mock.Anything, mock.Anything, mock.Anything).Return("https://example.com/upload", nil)
				mockRepo.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockRunRepository{}
			mockS3 := &MockS3Service{}
			tt.mockSetup(mockRepo, mockS3)

			handler := newHandler(mockRepo, mockS3, &MockProcessingService{})
			resp, err := handler.CreateRun(context.Background(), &tt.input)

			if tt.wantStatus != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantStatus, statusOf(t, err))
			} else {
				require.NoError(t, err)
				_, err := uuid.Parse(resp.Body.ID)
				assert.NoError(t, err)
				assert.Equal(t, models.StatusPending, resp.Body.Status)
				assert.Equal(t, tt.wantSettings, resp.Body.Settings)
				assert.Equal(t, "runs/"+resp.Body.ID+"/dataset.mzML", resp.Body.DatasetKey)
				assert.Equal(t, "runs/"+resp.Body.ID+"/hits.csv", resp.Body.HitsKey)
				assert.NotEmpty(t, resp.Body.DatasetUploadURL)
				assert.NotEmpty(t, resp.Body.HitsUploadURL)
				assert.Equal(t, 900, resp.Body.ExpiresIn) // 15 minutes in seconds
			}

			mockRepo.AssertExpectations(t)
			mockS3.AssertExpectations(t)
		})
	}
}

func TestGetRunStatus(t *testing.T) {
	id := uuid.New()
	failure := "Failed to load dataset"

	tests := []struct {
		name        string
		id          string
		run         *models.Run
		repoErr     error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "processing",
			id:          id.String(),
			run:         &models.Run{ID: id.String(), Status: models.StatusProcessing, Progress: 60, HitCount: 3},
			wantMessage: "Extracting ion chromatograms...",
		},
		{
			name:        "failed run reports its error",
			id:          id.String(),
			run:         &models.Run{ID: id.String(), Status: models.StatusFailed, ErrorMsg: &failure},
			wantMessage: failure,
		},
		{
			name:       "invalid id",
			id:         "not-a-uuid",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown run",
			id:         id.String(),
			repoErr:    fmt.Errorf("run %s: %w", id, repository.ErrNotFound),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "database failure",
			id:         id.String(),
			repoErr:    assert.AnError,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockRunRepository{}
			if tt.run != nil || tt.repoErr != nil {
				mockRepo.On("GetByID", mock.Anything, id).Return(tt.run, tt.repoErr)
			}

			handler := newHandler(mockRepo, &MockS3Service{}, &MockProcessingService{})
			resp, err := handler.GetRunStatus(context.Background(), &models.RunIDRequest{ID: tt.id})

			if tt.wantStatus != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantStatus, statusOf(t, err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.run.Status, resp.Body.Status)
			assert.Equal(t, tt.run.Progress, resp.Body.Progress)
			assert.Equal(t, tt.run.HitCount, resp.Body.HitCount)
			assert.Equal(t, tt.wantMessage, resp.Body.Message)
		})
	}
}

func TestStartProcessing(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	mockRepo := &MockRunRepository{}
	mockProc := &MockProcessingService{}
	mockRepo.On("GetByID", ctx, id).Return(&models.Run{ID: id.String(), Status: models.StatusPending}, nil)

	done := make(chan struct{})
	mockProc.On("ProcessRun", mock.Anything, id).Run(func(mock.Arguments) { close(done) }).Return(nil)

	handler := newHandler(mockRepo, &MockS3Service{}, mockProc)
	resp, err := handler.StartProcessing(ctx, &models.RunIDRequest{ID: id.String()})
	require.NoError(t, err)
	assert.Equal(t, "Processing started successfully", resp.Body.Message)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("processing was not started")
	}
	mockProc.AssertExpectations(t)
}

func TestStartProcessing_RecordsFailure(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	mockRepo := &MockRunRepository{}
	mockProc := &MockProcessingService{}
	mockRepo.On("GetByID", ctx, id).Return(&models.Run{ID: id.String(), Status: models.StatusFailed}, nil)
	mockProc.On("ProcessRun", mock.Anything, id).Return(errors.New("extraction failed: line 3"))

	done := make(chan struct{})
	mockRepo.On("UpdateError", mock.Anything, id, "Processing failed: extraction failed: line 3").
		Run(func(mock.Arguments) { close(done) }).Return(nil)

	handler := newHandler(mockRepo, &MockS3Service{}, mockProc)
	_, err := handler.StartProcessing(ctx, &models.RunIDRequest{ID: id.String()})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("failure was not recorded")
	}
	mockRepo.AssertExpectations(t)
}

func TestStartProcessing_AlreadyProcessing(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	mockRepo := &MockRunRepository{}
	mockProc := &MockProcessingService{}
	mockRepo.On("GetByID", ctx, id).Return(&models.Run{ID: id.String(), Status: models.StatusProcessing}, nil)

	handler := newHandler(mockRepo, &MockS3Service{}, mockProc)
	_, err := handler.StartProcessing(ctx, &models.RunIDRequest{ID: id.String()})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, statusOf(t, err))
	mockProc.AssertNotCalled(t, "ProcessRun", mock.Anything, mock.Anything)
}

func TestListHits(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	mockRepo := &MockRunRepository{}
	mockRepo.On("GetByID", ctx, id).Return(&models.Run{ID: id.String(), Status: models.StatusCompleted}, nil)
	mockRepo.On("ListHits", ctx, id).Return([]models.HitSummary{
		{HitNumber: 1, RecordCount: 2},
		{HitNumber: 2, RecordCount: 0},
	}, nil)

	handler := newHandler(mockRepo, &MockS3Service{}, &MockProcessingService{})
	resp, err := handler.ListHits(ctx, &models.RunIDRequest{ID: id.String()})
	require.NoError(t, err)
	assert.Equal(t, id.String(), resp.Body.RunID)
	require.Len(t, resp.Body.Hits, 2)
	assert.Equal(t, 0, resp.Body.Hits[1].RecordCount)
}

func TestListHits_UnknownRun(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	mockRepo := &MockRunRepository{}
	mockRepo.On("GetByID", ctx, id).Return(nil, repository.ErrNotFound)

	handler := newHandler(mockRepo, &MockS3Service{}, &MockProcessingService{})
	_, err := handler.ListHits(ctx, &models.RunIDRequest{ID: id.String()})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
	mockRepo.AssertNotCalled(t, "ListHits", mock.Anything, mock.Anything)
}

func TestGetHit(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	records := []models.ExtractionRecord{
		{Time: 100, MassLow: 500, IntensityLow: 750, LowFound: true, MassHigh: 503, IntensityHigh: 1075, HighFound: true},
	}

	tests := []struct {
		name       string
		id         string
		hit        int
		unit       *models.HitUnit
		repoErr    error
		wantStatus int
	}{
		{
			name: "stored unit",
			id:   id.String(),
			hit:  1,
			unit: &models.HitUnit{RunID: id.String(), HitNumber: 1, Records: records},
		},
		{
			name:       "invalid id",
			id:         "xyz",
			hit:        1,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing unit",
			id:         id.String(),
			hit:        7,
			repoErr:    fmt.Errorf("run %s hit 7: %w", id, repository.ErrNotFound),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "database failure",
			id:         id.String(),
			hit:        2,
			repoErr:    assert.AnError,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockRunRepository{}
			if tt.unit != nil || tt.repoErr != nil {
				mockRepo.On("GetHit", ctx, id, tt.hit).Return(tt.unit, tt.repoErr)
			}

			handler := newHandler(mockRepo, &MockS3Service{}, &MockProcessingService{})
			resp, err := handler.GetHit(ctx, &models.GetHitRequest{ID: tt.id, Hit: tt.hit})

			if tt.wantStatus != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantStatus, statusOf(t, err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hit, resp.Body.HitNumber)
			assert.Equal(t, records, resp.Body.Records)
		})
	}
}

func TestStatusMessage(t *testing.T) {
	assert.Equal(t, "Waiting for dataset and hit list upload...", statusMessage(models.StatusPending, 0))
	assert.Equal(t, "Starting extraction...", statusMessage(models.StatusProcessing, 10))
	assert.Equal(t, "Loading dataset...", statusMessage(models.StatusProcessing, 20))
	assert.Equal(t, "Reading hit list...", statusMessage(models.StatusProcessing, 50))
	assert.Equal(t, "Extraction complete!", statusMessage(models.StatusCompleted, 100))
	assert.Equal(t, "Unknown status", statusMessage("archived", 0))
}
