package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_schedule "github.com/haevelyn/schedule/internal/mocks/schedule"
	"github.com/haevelyn/schedule/internal/schedule"
)

func newTestRouter(t *testing.T, setupMock func(m *mock_schedule.MockStore)) http.Handler {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := mock_schedule.NewMockStore(ctrl)
	setupMock(store)

	handler, err := NewScheduleHandler(store)
	require.NoError(t, err)
	return NewRouter(handler, []string{"http://localhost:3000"})
}

func strPtr(s string) *string {
	return &s
}

func TestScheduleHandler_List(t *testing.T) {
	stored := map[string]schedule.Record{
		"2025-03-10": {Events: []schedule.Event{{Text: "A", Important: true}}, Version: 1},
	}
	storedJSON := `{"2025-03-10":{"events":[{"text":"A","isImportant":true}],"memo":"","is_break_day":false,"break_day_image_id":null,"morning_time":"","afternoon_time":"","version":1}}`

	tests := []struct {
		name       string
		target     string
		setupMock  func(m *mock_schedule.MockStore)
		wantStatus int
		wantBody   string
	}{
		{
			name:   "month filter",
			target: "/schedules?year=2025&month=3",
			setupMock: func(m *mock_schedule.MockStore) {
				m.EXPECT().
					FindByMonth(gomock.Any(), schedule.YearMonth{Year: 2025, Month: time.March}).
					Return(stored, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   storedJSON,
		},
		{
			name:   "no filter returns everything",
			target: "/schedules",
			setupMock: func(m *mock_schedule.MockStore) {
				m.EXPECT().FindAll(gomock.Any()).Return(stored, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   storedJSON,
		},
		{
			name:   "all endpoint",
			target: "/schedules/all",
			setupMock: func(m *mock_schedule.MockStore) {
				m.EXPECT().FindAll(gomock.Any()).Return(map[string]schedule.Record{}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{}`,
		},
		{
			name:       "year without month",
			target:     "/schedules?year=2025",
			setupMock:  func(m *mock_schedule.MockStore) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "month out of range",
			target:     "/schedules?year=2025&month=13",
			setupMock:  func(m *mock_schedule.MockStore) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "non-numeric year",
			target:     "/schedules?year=abc&month=1",
			setupMock:  func(m *mock_schedule.MockStore) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "storage failure",
			target: "/schedules?year=2025&month=3",
			setupMock: func(m *mock_schedule.MockStore) {
				m.EXPECT().FindByMonth(gomock.Any(), gomock.Any()).
					Return(nil, &schedule.StorageError{Op: "select", Err: errors.New("connection refused")})
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Failed to fetch schedules"}`,
		},
		{
			name:   "storage failure on all",
			target: "/schedules/all",
			setupMock: func(m *mock_schedule.MockStore) {
				m.EXPECT().FindAll(gomock.Any()).Return(nil, context.DeadlineExceeded)
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Failed to fetch schedules"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, tt.setupMock)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestScheduleHandler_Save(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMock  func(m *mock_schedule.MockStore)
		wantStatus int
		wantBody   string
	}{
		{
			name: "first write",
			body: `{"date":"2025-03-10","events":[{"text":"A","isImportant":false}],"memo":"","isBreakDay":false,"version":0}`,
			setupMock: func(m *mock_schedule.MockStore) {
				m.EXPECT().
					Put(gomock.Any(), "2025-03-10", schedule.Record{Events: []schedule.Event{{Text: "A"}}}, int64(0)).
					Return(schedule.PutResult{Record: &schedule.Record{Events: []schedule.Event{{Text: "A"}}, Version: 1}}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"message":"Schedule saved successfully","schedule":{"events":[{"text":"A","isImportant":false}],"memo":"","is_break_day":false,"break_day_image_id":null,"morning_time":"","afternoon_time":"","version":1}}`,
		},
		{
			name: "break day with image",
			body: `{"date":"2025-03-11","events":[],"memo":"","isBreakDay":true,"version":2,"breakDayImageId":"img-3","morningTime":"","afternoonTime":""}`,
			setupMock: func(m *mock_schedule.MockStore) {
				want := schedule.Record{Events: []schedule.Event{}, IsBreakDay: true, BreakDayImageID: strPtr("img-3")}
				m.EXPECT().
					Put(gomock.Any(), "2025-03-11", want, int64(2)).
					DoAndReturn(func(_ context.Context, _ string, candidate schedule.Record, expected int64) (schedule.PutResult, error) {
						candidate.Version = expected + 1
						return schedule.PutResult{Record: &candidate}, nil
					})
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"message":"Schedule saved successfully","schedule":{"events":[],"memo":"","is_break_day":true,"break_day_image_id":"img-3","morning_time":"","afternoon_time":"","version":3}}`,
		},
		{
			name: "deletion returns null schedule",
			body: `{"date":"2025-03-10","events":[],"memo":"","isBreakDay":false,"version":4}`,
			setupMock: func(m *mock_schedule.MockStore) {
				m.EXPECT().Put(gomock.Any(), "2025-03-10", gomock.Any(), int64(4)).Return(schedule.PutResult{}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"message":"Schedule saved successfully","schedule":null}`,
		},
		{
			name: "stale version",
			body: `{"date":"2025-03-10","events":[{"text":"B","isImportant":false}],"version":0}`,
			setupMock: func(m *mock_schedule.MockStore) {
				m.EXPECT().Put(gomock.Any(), "2025-03-10", gomock.Any(), int64(0)).
					Return(schedule.PutResult{}, &schedule.ConflictError{Date: "2025-03-10", ExpectedVersion: 0, StoredVersion: 1})
			},
			wantStatus: http.StatusConflict,
			wantBody:   `{"error":"schedule for 2025-03-10 was modified elsewhere, please refresh (expected version 0, stored version 1)"}`,
		},
		{
			name: "storage failure",
			body: `{"date":"2025-03-10","events":[{"text":"B","isImportant":false}],"version":1}`,
			setupMock: func(m *mock_schedule.MockStore) {
				m.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(schedule.PutResult{}, &schedule.StorageError{Op: "exec", Err: errors.New("disk full")})
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Failed to save schedule"}`,
		},
		{
			name: "store rejects blank event",
			body: `{"date":"2025-03-10","events":[{"text":"  ","isImportant":false}],"version":1}`,
			setupMock: func(m *mock_schedule.MockStore) {
				m.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(schedule.PutResult{}, &schedule.ValidationError{Field: "events[0].text", Message: "event text must not be empty"})
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"events[0].text: event text must not be empty"}`,
		},
		{
			name:       "missing date",
			body:       `{"events":[],"version":0}`,
			setupMock:  func(m *mock_schedule.MockStore) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed date",
			body:       `{"date":"2025-3-10","version":0}`,
			setupMock:  func(m *mock_schedule.MockStore) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty event text",
			body:       `{"date":"2025-03-10","events":[{"text":""}],"version":0}`,
			setupMock:  func(m *mock_schedule.MockStore) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative version",
			body:       `{"date":"2025-03-10","version":-1}`,
			setupMock:  func(m *mock_schedule.MockStore) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "overlong morning time",
			body:       `{"date":"2025-03-10","memo":"m","morningTime":"` + strings.Repeat("7", 65) + `","version":0}`,
			setupMock:  func(m *mock_schedule.MockStore) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"morningTime must be a maximum of 64 characters in length"}`,
		},
		{
			name:       "overlong break day image id",
			body:       `{"date":"2025-03-10","isBreakDay":true,"breakDayImageId":"` + strings.Repeat("i", 65) + `","version":0}`,
			setupMock:  func(m *mock_schedule.MockStore) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "body over the size limit",
			body:       `{"date":"2025-03-10","memo":"` + strings.Repeat("a", maxRequestBytes) + `","version":0}`,
			setupMock:  func(m *mock_schedule.MockStore) {},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantBody:   `{"error":"Request body too large"}`,
		},
		{
			name:       "invalid json",
			body:       `{"date":`,
			setupMock:  func(m *mock_schedule.MockStore) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid request body"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, tt.setupMock)

			req := httptest.NewRequest(http.MethodPost, "/schedules", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		origin     string
		wantOrigin string
		wantStatus int
	}{
		{
			name:       "preflight from allowed origin",
			method:     http.MethodOptions,
			origin:     "http://localhost:3000",
			wantOrigin: "http://localhost:3000",
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "preflight from unknown origin",
			method:     http.MethodOptions,
			origin:     "http://evil.example.com",
			wantOrigin: "",
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "simple request from allowed origin",
			method:     http.MethodGet,
			origin:     "http://localhost:3000",
			wantOrigin: "http://localhost:3000",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, func(m *mock_schedule.MockStore) {
				m.EXPECT().FindAll(gomock.Any()).Return(map[string]schedule.Record{}, nil).AnyTimes()
			})

			req := httptest.NewRequest(tt.method, "/schedules/all", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
		})
	}
}
