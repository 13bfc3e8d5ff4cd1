package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/gacha-sim/internal/stats"
)

type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) Get(ctx context.Context) (stats.Counters, error) {
	args := m.Called(ctx)
	return args.Get(0).(stats.Counters), args.Error(1)
}

func (m *MockStatsService) Record(ctx context.Context, ev stats.Event) (stats.Counters, error) {
	args := m.Called(ctx, ev)
	return args.Get(0).(stats.Counters), args.Error(1)
}

func (m *MockStatsService) AdjustVisitors(ctx context.Context, delta int64) (stats.Counters, error) {
	args := m.Called(ctx, delta)
	return args.Get(0).(stats.Counters), args.Error(1)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHandleGetStats(t *testing.T) {
	tests := []struct {
		name       string
		setupMock  func(*MockStatsService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "Success",
			setupMock: func(m *MockStatsService) {
				m.On("Get", mock.Anything).Return(stats.Counters{Visitors: 3, TotalSpent: 49.5}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"visitors":3,"totalSpent":49.5}`,
		},
		{
			name: "Store failure",
			setupMock: func(m *MockStatsService) {
				m.On("Get", mock.Anything).Return(stats.Counters{}, errors.New("db down"))
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Failed to fetch stats"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockStatsService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
			rec := httptest.NewRecorder()
			HandleGetStats(svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			svc.AssertExpectations(t)
		})
	}
}

func TestHandleRecordStats(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMock  func(*MockStatsService)
		wantStatus int
		wantError  string
	}{
		{
			name: "Visitor",
			body: `{"type":"visitor"}`,
			setupMock: func(m *MockStatsService) {
				m.On("Record", mock.Anything, stats.Event{Type: stats.EventVisitor}).
					Return(stats.Counters{Visitors: 1}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "Spent",
			body: `{"type":"spent","amount":34.5}`,
			setupMock: func(m *MockStatsService) {
				m.On("Record", mock.Anything, stats.Event{Type: stats.EventSpent, Amount: 34.5}).
					Return(stats.Counters{TotalSpent: 34.5}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "Spent zero amount",
			body: `{"type":"spent","amount":0}`,
			setupMock: func(m *MockStatsService) {
				m.On("Record", mock.Anything, stats.Event{Type: stats.EventSpent}).
					Return(stats.Counters{}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "Malformed JSON",
			body:       `{"type":`,
			setupMock:  func(m *MockStatsService) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request body",
		},
		{
			name:       "Missing type",
			body:       `{}`,
			setupMock:  func(m *MockStatsService) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "type is required",
		},
		{
			name:       "Unknown type",
			body:       `{"type":"refund","amount":1}`,
			setupMock:  func(m *MockStatsService) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "type must be one of: visitor spent",
		},
		{
			name:       "Spent without amount",
			body:       `{"type":"spent"}`,
			setupMock:  func(m *MockStatsService) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "amount is required",
		},
		{
			name:       "Amount not a number",
			body:       `{"type":"spent","amount":"ten"}`,
			setupMock:  func(m *MockStatsService) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request body",
		},
		{
			name: "Store failure",
			body: `{"type":"visitor"}`,
			setupMock: func(m *MockStatsService) {
				m.On("Record", mock.Anything, mock.Anything).Return(stats.Counters{}, errors.New("db down"))
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "Failed to update stats",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockStatsService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/stats", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			HandleRecordStats(svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError != "" {
				var resp ErrorResponse
				decodeBody(t, rec, &resp)
				assert.Equal(t, tt.wantError, resp.Error)
			} else {
				var c stats.Counters
				decodeBody(t, rec, &c)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestHandleHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleHealthz().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestFormatValidationErrorNonValidation(t *testing.T) {
	assert.Equal(t, "Invalid request format", FormatValidationError(errors.New("x")))
}
