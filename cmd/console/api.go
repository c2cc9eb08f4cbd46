package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jwebster45206/room-engine/internal/events"
	"github.com/jwebster45206/room-engine/internal/handlers"
	"github.com/jwebster45206/room-engine/pkg/progress"
	"github.com/jwebster45206/room-engine/pkg/room"
)

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// listRooms returns room names sorted for display plus a name-to-ID map.
func listRooms(client *http.Client, baseURL string) ([]string, map[string]uuid.UUID, error) {
	resp, err := client.Get(baseURL + "/v1/rooms")
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	// The API keys by room ID; the console displays by name.
	var byID map[string]string
	if err := json.Unmarshal(body, &byID); err != nil {
		return nil, nil, err
	}

	roomMap := make(map[string]uuid.UUID, len(byID))
	var names []string
	for id, name := range byID {
		parsed, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		display := name
		if _, dup := roomMap[display]; dup {
			display = fmt.Sprintf("%s (%s)", name, id[:8])
		}
		names = append(names, display)
		roomMap[display] = parsed
	}
	sort.Strings(names)
	return names, roomMap, nil
}

func getRoom(client *http.Client, baseURL string, roomID uuid.UUID) (*room.Room, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/rooms/%s", baseURL, roomID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to get room: %s", errorResp.Error)
	}

	var rm room.Room
	if err := json.Unmarshal(body, &rm); err != nil {
		return nil, fmt.Errorf("failed to parse room response: %w", err)
	}
	return &rm, nil
}

func getProgress(client *http.Client, baseURL string, teamID, roomID uuid.UUID) (*progress.Progress, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/progress/%s/%s", baseURL, teamID, roomID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to get progress: %s", errorResp.Error)
	}

	var p progress.Progress
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("failed to parse progress response: %w", err)
	}
	return &p, nil
}

// createProgress starts a run. When the team already has one, the API
// answers 409 and the existing run is loaded instead, so rejoining a
// session from a second terminal just works.
func createProgress(client *http.Client, baseURL string, teamID, roomID uuid.UUID) (*progress.Progress, bool, error) {
	req := handlers.CreateProgressRequest{
		TeamID: teamID,
		RoomID: roomID,
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		baseURL+"/v1/progress",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusConflict {
		p, err := getProgress(client, baseURL, teamID, roomID)
		if err != nil {
			return nil, false, err
		}
		return p, true, nil
	}

	if resp.StatusCode != http.StatusCreated {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, false, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, false, fmt.Errorf("failed to start run: %s", errorResp.Error)
	}

	var p progress.Progress
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, false, fmt.Errorf("failed to parse progress response: %w", err)
	}
	return &p, false, nil
}

func postAction(client *http.Client, baseURL string, roomID uuid.UUID, req handlers.ActionRequest) (*handlers.ActionResponse, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		fmt.Sprintf("%s/v1/rooms/%s/action", baseURL, roomID),
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("%s", errorResp.Error)
	}

	var actionResp handlers.ActionResponse
	if err := json.Unmarshal(body, &actionResp); err != nil {
		return nil, fmt.Errorf("failed to parse action response: %w", err)
	}
	return &actionResp, nil
}

// listenToEvents connects to the websocket endpoint and streams session
// events to a channel until the context is cancelled. Teammates' actions
// arrive here, so every connected console stays in sync.
func listenToEvents(ctx context.Context, baseURL string, teamID, roomID uuid.UUID, eventChan chan<- events.Event) error {
	wsURL := "ws" + strings.TrimPrefix(baseURL, "http")
	u := fmt.Sprintf("%s/v1/ws?team_id=%s&room_id=%s",
		wsURL, url.QueryEscape(teamID.String()), url.QueryEscape(roomID.String()))

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to event stream: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("event stream closed: %w", err)
		}

		var event events.Event
		if err := json.Unmarshal(data, &event); err != nil {
			continue
		}

		select {
		case eventChan <- event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
