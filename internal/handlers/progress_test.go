package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/jwebster45206/room-engine/internal/storage"
	"github.com/jwebster45206/room-engine/pkg/progress"
)

func TestProgressHandler_Create(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	rm := testRoom()
	mockStorage.AddRoom(rm)
	handler := NewProgressHandler(mockStorage, &recordingNotifier{}, testLogger())

	teamID := uuid.New()
	reqBody := fmt.Sprintf(`{"team_id":"%s","room_id":"%s"}`, teamID, rm.ID)
	req := httptest.NewRequest(http.MethodPost, "/v1/progress", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d. Response body: %s", rr.Code, rr.Body.String())
	}

	var p progress.Progress
	if err := json.NewDecoder(rr.Body).Decode(&p); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if p.Status() != progress.StatusRunning {
		t.Errorf("Status = %s, want %s", p.Status(), progress.StatusRunning)
	}
	if p.CurrentStageIndex != 1 {
		t.Errorf("CurrentStageIndex = %d, want 1", p.CurrentStageIndex)
	}
	if p.RunStartedAt == nil {
		t.Error("RunStartedAt should be set on create")
	}
}

func TestProgressHandler_CreateConflict(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	rm := testRoom()
	p := startedRun(mockStorage, rm)
	handler := NewProgressHandler(mockStorage, &recordingNotifier{}, testLogger())

	reqBody := fmt.Sprintf(`{"team_id":"%s","room_id":"%s"}`, p.TeamID, rm.ID)
	req := httptest.NewRequest(http.MethodPost, "/v1/progress", strings.NewReader(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for duplicate run, got %d", rr.Code)
	}
}

func TestProgressHandler_CreateUnknownRoom(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	handler := NewProgressHandler(mockStorage, &recordingNotifier{}, testLogger())

	reqBody := fmt.Sprintf(`{"team_id":"%s","room_id":"%s"}`, uuid.New(), uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/v1/progress", strings.NewReader(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown room, got %d", rr.Code)
	}
}

func TestProgressHandler_Read(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	rm := testRoom()
	p := startedRun(mockStorage, rm)
	handler := NewProgressHandler(mockStorage, &recordingNotifier{}, testLogger())

	url := fmt.Sprintf("/v1/progress/%s/%s", p.TeamID, rm.ID)
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Response body: %s", rr.Code, rr.Body.String())
	}

	var got progress.Progress
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got.TeamID != p.TeamID || got.RoomID != rm.ID {
		t.Errorf("Got progress for team %s room %s", got.TeamID, got.RoomID)
	}
}

func TestProgressHandler_ReadNotFound(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	handler := NewProgressHandler(mockStorage, &recordingNotifier{}, testLogger())

	url := fmt.Sprintf("/v1/progress/%s/%s", uuid.New(), uuid.New())
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
}

func TestProgressHandler_Delete(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	rm := testRoom()
	p := startedRun(mockStorage, rm)
	notifier := &recordingNotifier{}
	handler := NewProgressHandler(mockStorage, notifier, testLogger())

	url := fmt.Sprintf("/v1/progress/%s/%s", p.TeamID, rm.ID)
	req := httptest.NewRequest(http.MethodDelete, url, nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", rr.Code)
	}

	stored, err := mockStorage.LoadProgress(t.Context(), p.TeamID, rm.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if stored != nil {
		t.Error("Progress should be gone after delete")
	}
}

func TestProgressHandler_BadPaths(t *testing.T) {
	handler := NewProgressHandler(storage.NewMockStorage(), &recordingNotifier{}, testLogger())

	tests := []struct {
		name   string
		method string
		url    string
		want   int
	}{
		{"get without ids", http.MethodGet, "/v1/progress", http.StatusBadRequest},
		{"get with one id", http.MethodGet, "/v1/progress/" + uuid.NewString(), http.StatusBadRequest},
		{"get with junk ids", http.MethodGet, "/v1/progress/abc/def", http.StatusBadRequest},
		{"patch not allowed", http.MethodPatch, "/v1/progress", http.StatusMethodNotAllowed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.url, nil)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Errorf("Expected status %d, got %d", tc.want, rr.Code)
			}
		})
	}
}
