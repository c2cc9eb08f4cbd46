package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/room-engine/pkg/room"
)

var snakeCaseFilename = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <room.json> [room.json ...]\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		if err := validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}

	fmt.Println("Room files are valid!")
}

func validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return fmt.Errorf("room file must have .json extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, ".json")
	if !isValidRoomFilename(nameWithoutExt) {
		return fmt.Errorf("room filename '%s' must be the room UUID or lowercase snake_case (e.g., cellar_of_whispers.json, not Cellar.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	var rm room.Room
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&rm); err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}

	if errs := room.Validate(&rm); len(errs) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, room.FormatErrors(errs))
	}

	return nil
}

// isValidRoomFilename accepts the room's UUID (the runtime naming) or a
// snake_case slug (hand-authored fixtures).
func isValidRoomFilename(name string) bool {
	if _, err := uuid.Parse(name); err == nil {
		return true
	}
	return snakeCaseFilename.MatchString(name)
}
