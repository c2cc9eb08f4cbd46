//go:build integration
// +build integration

package integration

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jwebster45206/room-engine/integration/runner"
)

var (
	caseFlag = flag.String("case", "", "Comma-separated case names from integration/cases/ to run")
	errFlag  = flag.String("err", "continue", "Error handling: 'continue' (run all steps) or 'exit' (stop on first failure)")
	runsFlag = flag.Int("runs", 1, "Times to repeat each suite (useful for shaking out CAS races)")
	roomFlag = flag.String("room", "", "Override room ID for all test cases")
)

func TestMain(m *testing.M) {
	fmt.Printf("Running Room Engine Integration Tests\n")
	fmt.Printf("   API Base URL: %s\n", apiBaseURL())
	os.Exit(m.Run())
}

func apiBaseURL() string {
	if url := os.Getenv("API_BASE_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func newTestRunner(mode runner.ErrorHandlingMode) *runner.Runner {
	r := runner.NewRunner(apiBaseURL())
	r.Timeout = time.Duration(getIntEnv("TEST_TIMEOUT_SECONDS", 30)) * time.Second
	r.ErrorHandlingMode = mode
	r.RoomOverride = *roomFlag
	r.Logger = func(format string, args ...interface{}) {
		fmt.Printf(format+"\n", args...)
	}
	return r
}

// runJob executes one suite against the live API, logs its step
// results, and reports whether the suite passed.
func runJob(ctx context.Context, t *testing.T, r *runner.Runner, job runner.TestJob) bool {
	result, err := r.RunSuite(ctx, job.Suite)
	if err != nil && result.Error == nil {
		result.Error = err
	}
	t.Logf("Team ID: %s", result.TeamID)

	for _, step := range result.Results {
		switch {
		case step.IsReset:
			t.Logf("   ↻ %s (%v)", step.StepName, step.Duration)
		case step.Success:
			t.Logf("   ✓ %s (%v)", step.StepName, step.Duration)
		default:
			t.Errorf("   ✗ %s: %v", step.StepName, step.Error)
		}
	}

	if result.Error != nil {
		t.Errorf("Suite %q failed: %v", job.Name, result.Error)
		return false
	}
	t.Logf("Suite %q passed in %v", job.Name, result.Duration)
	return true
}

// TestIntegrationSuites runs every case file under cases/ once.
func TestIntegrationSuites(t *testing.T) {
	r := newTestRunner(runner.ErrorHandlingContinue)
	if r.RoomOverride != "" {
		t.Logf("Room override enabled: %s", r.RoomOverride)
	}

	files, err := discoverTestFiles("cases")
	if err != nil {
		t.Fatalf("Failed to discover test files: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("No test files found in cases directory")
	}

	var jobs []runner.TestJob
	for _, file := range files {
		expanded, err := runner.LoadTestSuiteWithExpansion(file, "cases")
		if err != nil {
			t.Errorf("Failed to load test suite %s: %v", file, err)
			continue
		}
		jobs = append(jobs, expanded...)
	}
	if len(jobs) == 0 {
		t.Fatal("No valid test suites loaded")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	failed := 0
	for i, job := range jobs {
		t.Logf("[%d/%d] %s (%d steps)", i+1, len(jobs), job.Name, len(job.Suite.Steps))
		if !runJob(ctx, t, r, job) {
			failed++
		}
	}

	t.Logf("Suites: %d passed, %d failed", len(jobs)-failed, failed)
	if failed > 0 {
		t.Fatal("Integration tests failed")
	}
}

// TestSingleSuite runs the suites named by -case, -runs times each.
// Repeat runs always continue through failures so a suite that both
// passed and failed across runs gets flagged as flaky.
func TestSingleSuite(t *testing.T) {
	flag.Parse()
	if *caseFlag == "" {
		t.Skip("Skipping single suite test (use -case flag to run)")
	}
	if *errFlag != "exit" && *errFlag != "continue" {
		t.Fatalf("Invalid -err flag value: %s (must be 'exit' or 'continue')", *errFlag)
	}
	runs := *runsFlag
	if runs < 1 {
		t.Fatalf("Number of runs must be >= 1, got: %d", runs)
	}

	var files []string
	for _, name := range strings.Split(*caseFlag, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !strings.HasSuffix(name, ".json") {
			name += ".json"
		}
		files = append(files, "cases/"+name)
	}
	if len(files) == 0 {
		t.Fatalf("No valid test cases found in -case flag: %s", *caseFlag)
	}

	mode := runner.ErrorHandlingMode(*errFlag)
	if runs > 1 {
		mode = runner.ErrorHandlingContinue
	}
	r := newTestRunner(mode)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	type tally struct{ passes, failures int }
	tallies := make(map[string]*tally)
	var order []string

	for run := 1; run <= runs; run++ {
		if runs > 1 {
			t.Logf("=== RUN %d/%d ===", run, runs)
		}
		for _, file := range files {
			jobs, err := runner.LoadTestSuiteWithExpansion(file, "cases")
			if err != nil {
				t.Fatalf("Failed to load test suite %s: %v", file, err)
			}
			for _, job := range jobs {
				tl := tallies[job.Name]
				if tl == nil {
					tl = &tally{}
					tallies[job.Name] = tl
					order = append(order, job.Name)
				}
				if runJob(ctx, t, r, job) {
					tl.passes++
				} else {
					tl.failures++
					if runs == 1 && *errFlag == "exit" {
						t.Fatal("Test suite(s) had errors")
					}
				}
			}
		}
	}

	failures := 0
	if runs > 1 {
		t.Logf("Results over %d runs:", runs)
	}
	for _, name := range order {
		tl := tallies[name]
		failures += tl.failures
		if runs > 1 {
			line := fmt.Sprintf("   %s: %d/%d passed", name, tl.passes, tl.passes+tl.failures)
			if tl.passes > 0 && tl.failures > 0 {
				line += " (FLAKY)"
			}
			t.Log(line)
		}
	}
	if failures > 0 {
		t.Fatal("Test suite(s) had errors")
	}
}

func discoverTestFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".json") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func getIntEnv(name string, defaultValue int) int {
	str := os.Getenv(name)
	if str == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultValue
	}
	return val
}
