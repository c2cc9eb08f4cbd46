package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/room-engine/internal/handlers"
	"github.com/jwebster45206/room-engine/pkg/action"
	"github.com/jwebster45206/room-engine/pkg/progress"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running room-engine API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
	RoomOverride      string // If set, overrides the room for all test cases
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 60 * time.Second},
		Timeout:           30 * time.Second,
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	// If this is not a sequence, return it as-is
	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	// This is a sequence - load all referenced cases
	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		// Resolve path relative to casesDir
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite executes a complete test suite
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	// Every run plays as a fresh team so cases never collide
	teamID := uuid.New()
	result.TeamID = teamID

	roomRef := suite.RoomID
	if r.RoomOverride != "" {
		roomRef = r.RoomOverride
	}
	roomID, err := uuid.Parse(roomRef)
	if err != nil {
		result.Error = fmt.Errorf("suite has no usable room_id (%q): %w", roomRef, err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.RoomID = roomID

	if err := r.createProgress(ctx, teamID, roomID); err != nil {
		result.Error = fmt.Errorf("failed to start run: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}

	// Attach a websocket collector so event expectations can be checked.
	// A failed attach only matters for steps that assert on events.
	collector, collectorErr := NewEventCollector(ctx, r.BaseURL, teamID, roomID)
	if collector != nil {
		defer collector.Close()
	}

	// Execute each test step
	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.runStep(ctx, teamID, roomID, step, collector, collectorErr)
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			// Break only if error handling mode is "exit"
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			// Continue to next step if mode is "continue"
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// runStep executes a single test step and checks expectations
func (r *Runner) runStep(ctx context.Context, teamID, roomID uuid.UUID, step TestStep, collector *EventCollector, collectorErr error) TestResult {
	start := time.Now()
	result := TestResult{
		StepName: step.Name,
	}

	// Check if this is a reset step
	if step.Action == ResetProgressAction {
		if err := r.deleteProgress(ctx, teamID, roomID); err != nil {
			result.Error = fmt.Errorf("failed to delete progress: %w", err)
			result.Duration = time.Since(start)
			return result
		}
		if err := r.createProgress(ctx, teamID, roomID); err != nil {
			result.Error = fmt.Errorf("failed to restart run: %w", err)
			result.Duration = time.Since(start)
			return result
		}

		post, err := r.getProgress(ctx, teamID, roomID)
		if err != nil {
			result.Error = fmt.Errorf("failed to get progress after reset: %w", err)
			result.Duration = time.Since(start)
			return result
		}
		if err := r.checkExpectations(step.Expectations, post, nil, collector, collectorErr); err != nil {
			result.Error = fmt.Errorf("reset expectation failed: %w", err)
			result.Duration = time.Since(start)
			return result
		}

		result.Success = true
		result.IsReset = true
		result.ResponseText = "[PROGRESS RESET]"
		result.Duration = time.Since(start)
		return result
	}

	actionResp, apiErr, err := r.postAction(ctx, teamID, roomID, step)
	if err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}

	// Failure steps expect the API to reject the action
	if step.Expectations.IsFailureStep() {
		if apiErr == "" {
			result.Error = fmt.Errorf("expected action to fail with %q, but it succeeded", *step.Expectations.ErrorContains)
			result.Duration = time.Since(start)
			return result
		}
		if !strings.Contains(strings.ToLower(apiErr), strings.ToLower(*step.Expectations.ErrorContains)) {
			result.Error = fmt.Errorf("expected error to contain %q, got %q", *step.Expectations.ErrorContains, apiErr)
			result.Duration = time.Since(start)
			return result
		}
		result.ResponseText = apiErr
	} else {
		if apiErr != "" {
			result.Error = fmt.Errorf("action rejected: %s", apiErr)
			result.Duration = time.Since(start)
			return result
		}
		result.ResponseText = activityText(actionResp)
	}

	post, err := r.getProgress(ctx, teamID, roomID)
	if err != nil {
		result.Error = fmt.Errorf("failed to get progress after action: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	if err := r.checkExpectations(step.Expectations, post, actionResp, collector, collectorErr); err != nil {
		result.Error = fmt.Errorf("expectation failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

func activityText(resp *handlers.ActionResponse) string {
	if resp == nil {
		return ""
	}
	titles := make([]string, 0, len(resp.Activity))
	for _, entry := range resp.Activity {
		titles = append(titles, entry.Title)
	}
	return strings.Join(titles, "\n")
}

// createProgress starts a run for the team
func (r *Runner) createProgress(ctx context.Context, teamID, roomID uuid.UUID) error {
	reqBody, err := json.Marshal(handlers.CreateProgressRequest{
		TeamID: teamID,
		RoomID: roomID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal create request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.BaseURL+"/v1/progress", bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create POST request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to create progress: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("create progress returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func (r *Runner) deleteProgress(ctx context.Context, teamID, roomID uuid.UUID) error {
	url := fmt.Sprintf("%s/v1/progress/%s/%s", r.BaseURL, teamID, roomID)
	req, err := http.NewRequestWithContext(ctx, "DELETE", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create DELETE request: %w", err)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete progress: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete progress returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func (r *Runner) getProgress(ctx context.Context, teamID, roomID uuid.UUID) (*progress.Progress, error) {
	return GetProgress(ctx, r.Client, r.BaseURL, teamID, roomID)
}

// postAction fires the step's action. A rejected action is not an error
// here; the ErrorResponse message comes back as apiErr so failure steps
// can assert on it.
func (r *Runner) postAction(ctx context.Context, teamID, roomID uuid.UUID, step TestStep) (*handlers.ActionResponse, string, error) {
	actionReq := handlers.ActionRequest{
		Request: action.Request{
			Action:    step.Action,
			HotspotID: step.HotspotID,
			ItemKey:   step.ItemKey,
			Actor:     "integration",
		},
		TeamID: teamID,
	}

	reqBody, err := json.Marshal(actionReq)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal action request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/rooms/%s/action", r.BaseURL, roomID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create POST request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to post action: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read action response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
			return nil, "", fmt.Errorf("action endpoint returned %d: %s", resp.StatusCode, string(body))
		}
		return nil, errorResp.Error, nil
	}

	var actionResp handlers.ActionResponse
	if err := json.Unmarshal(body, &actionResp); err != nil {
		return nil, "", fmt.Errorf("failed to parse action response: %w", err)
	}
	return &actionResp, "", nil
}

// checkExpectations validates the test expectations against the updated
// progress and action response
func (r *Runner) checkExpectations(exp Expectations, post *progress.Progress, actionResp *handlers.ActionResponse, collector *EventCollector, collectorErr error) error {
	// Full inventory check (order independent)
	if len(exp.Inventory) > 0 {
		expected := make(map[string]bool)
		for _, item := range exp.Inventory {
			expected[item] = true
		}

		actual := make(map[string]bool)
		for _, item := range post.Inventory.Values() {
			actual[item] = true
		}

		// Check for missing items
		for expectedItem := range expected {
			if !actual[expectedItem] {
				return fmt.Errorf("expected inventory to contain '%s', but it's missing. Actual inventory: %v", expectedItem, post.Inventory.Values())
			}
		}

		// Check for extra items
		for actualItem := range actual {
			if !expected[actualItem] {
				return fmt.Errorf("inventory contains unexpected item '%s'. Expected inventory: %v, Actual: %v", actualItem, exp.Inventory, post.Inventory.Values())
			}
		}
	}

	if exp.CurrentStageIndex != nil {
		if post.CurrentStageIndex != *exp.CurrentStageIndex {
			return fmt.Errorf("expected current_stage_index to be %d, got %d", *exp.CurrentStageIndex, post.CurrentStageIndex)
		}
	}

	if len(exp.SolvedStages) > 0 {
		solved := make(map[int]bool)
		for _, stage := range post.SolvedStages {
			solved[stage] = true
		}
		for _, stage := range exp.SolvedStages {
			if !solved[stage] {
				return fmt.Errorf("expected stage %d to be solved, solved stages: %v", stage, post.SolvedStages)
			}
		}
	}

	if exp.Status != nil {
		if string(post.Status()) != *exp.Status {
			return fmt.Errorf("expected status %s, got %s", *exp.Status, post.Status())
		}
	}

	if exp.Completed != nil {
		if actionResp == nil {
			return fmt.Errorf("completed expectation requires an action response")
		}
		if actionResp.Completed != *exp.Completed {
			return fmt.Errorf("expected completed to be %t, got %t", *exp.Completed, actionResp.Completed)
		}
	}

	// Activity titles check
	if len(exp.ActivityContains) > 0 {
		if actionResp == nil {
			return fmt.Errorf("activity expectation requires an action response")
		}
		joined := strings.ToLower(activityText(actionResp))
		for _, expectedText := range exp.ActivityContains {
			if !strings.Contains(joined, strings.ToLower(expectedText)) {
				return fmt.Errorf("expected activity to contain '%s', but it didn't. Activity: %s", expectedText, activityText(actionResp))
			}
		}
	}

	// Websocket event checks
	if len(exp.EventTypes) > 0 {
		if collector == nil {
			return fmt.Errorf("event expectation but websocket attach failed: %w", collectorErr)
		}
		for _, eventType := range exp.EventTypes {
			if err := collector.WaitFor(eventType, EventTimeout); err != nil {
				return err
			}
		}
	}

	return nil
}
