package runner

import (
	"time"

	"github.com/google/uuid"
)

// Special action values that trigger non-action steps
const (
	ResetProgressAction = "RESET_PROGRESS"
)

// TestSuite defines a complete integration test scenario
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name   string     `json:"name"`
	RoomID string     `json:"room_id,omitempty"` // Used for regular tests
	Steps  []TestStep `json:"steps,omitempty"`   // Used for regular tests
	Cases  []string   `json:"cases,omitempty"`   // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep defines a single test interaction and its expected outcomes
// Use action: "RESET_PROGRESS" to delete the run and start a fresh one
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	Action       string       `json:"action"`
	HotspotID    string       `json:"hotspot_id,omitempty"`
	ItemKey      string       `json:"item_key,omitempty"`
	Expectations Expectations `json:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	// Progress properties - aligned with pkg/progress/progress.go
	Inventory         []string `json:"inventory,omitempty"`           // Full inventory contents (order independent)
	CurrentStageIndex *int     `json:"current_stage_index,omitempty"` // Stage the team should be on
	SolvedStages      []int    `json:"solved_stages,omitempty"`       // Stages recorded as solved
	Status            *string  `json:"status,omitempty"`              // Run lifecycle state
	Completed         *bool    `json:"completed,omitempty"`           // Completed flag on the action response

	// Failure steps: the action is expected to be rejected
	ErrorContains *string `json:"error_contains,omitempty"`

	// Activity feed entries returned for this action
	ActivityContains []string `json:"activity_contains,omitempty"`

	// Websocket events that must arrive for this step
	EventTypes []string `json:"event_types,omitempty"`
}

// IsFailureStep reports whether the step expects the API to reject it.
func (e Expectations) IsFailureStep() bool {
	return e.ErrorContains != nil
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName     string
	StepName     string
	Success      bool
	Error        error
	Duration     time.Duration
	ResponseText string
	IsReset      bool // True if this was a RESET_PROGRESS step (should not count toward pass/fail metrics)
}

// TestJob represents a test suite to be executed by a worker
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	TeamID   uuid.UUID // Team generated for this test run
	RoomID   uuid.UUID // Room the run played through
}
