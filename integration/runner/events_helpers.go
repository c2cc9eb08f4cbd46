package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jwebster45206/room-engine/internal/events"
	"github.com/jwebster45206/room-engine/pkg/progress"
)

const (
	// PollInterval is how often the collector is re-checked for a
	// pending event expectation
	PollInterval = 100 * time.Millisecond
	// EventTimeout is max time to wait for a websocket event to arrive
	EventTimeout = 10 * time.Second
)

// GetProgress retrieves the team's current progress
func GetProgress(ctx context.Context, client *http.Client, baseURL string, teamID, roomID uuid.UUID) (*progress.Progress, error) {
	url := fmt.Sprintf("%s/v1/progress/%s/%s", baseURL, teamID, roomID)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create progress request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send progress request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("progress endpoint returned %d", resp.StatusCode)
	}

	var p progress.Progress
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode progress: %w", err)
	}

	return &p, nil
}

// EventCollector attaches to the session's websocket channel and records
// every event it receives, so steps can assert that broadcasts actually
// went out.
type EventCollector struct {
	conn *websocket.Conn

	mu       sync.Mutex
	received []events.Event
	consumed map[string]int
	closed   bool
}

// NewEventCollector dials the websocket endpoint and starts collecting
func NewEventCollector(ctx context.Context, baseURL string, teamID, roomID uuid.UUID) (*EventCollector, error) {
	wsURL := "ws" + strings.TrimPrefix(baseURL, "http")
	url := fmt.Sprintf("%s/v1/ws?team_id=%s&room_id=%s", wsURL, teamID, roomID)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial websocket: %w", err)
	}

	c := &EventCollector{
		conn:     conn,
		consumed: make(map[string]int),
	}
	go c.readLoop()
	return c, nil
}

func (c *EventCollector) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.closed = true
			c.mu.Unlock()
			return
		}

		var event events.Event
		if err := json.Unmarshal(data, &event); err != nil {
			continue
		}

		c.mu.Lock()
		c.received = append(c.received, event)
		c.mu.Unlock()
	}
}

// WaitFor blocks until an unconsumed event of the given type has been
// received, or the timeout elapses. Each call consumes one occurrence,
// so a step expecting two session.updated events must see two arrive.
func (c *EventCollector) WaitFor(eventType string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		c.mu.Lock()
		count := 0
		for _, event := range c.received {
			if string(event.Type) == eventType {
				count++
			}
		}
		if count > c.consumed[eventType] {
			c.consumed[eventType]++
			c.mu.Unlock()
			return nil
		}
		closed := c.closed
		c.mu.Unlock()

		if closed {
			return fmt.Errorf("websocket closed before %q event arrived", eventType)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for %q event (waited %v)", eventType, timeout)
		}
		time.Sleep(PollInterval)
	}
}

// Close tears down the websocket connection
func (c *EventCollector) Close() {
	_ = c.conn.Close()
}
