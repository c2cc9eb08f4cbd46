package progress

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a team's run through a room.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusRunning    Status = "running"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var (
	// ErrNotStarted is returned when an action arrives before the run starts.
	ErrNotStarted = errors.New("run has not started")
	// ErrRunEnded is returned when an action arrives after a terminal state.
	ErrRunEnded = errors.New("run has already ended")
)

// Progress is the persisted per-team-per-room mutable state: inventory,
// scene overrides, and stage tracking. One aggregate exists per
// (team, room) pair; it is created on first start and never deleted by
// the engine (archival is an external concern).
type Progress struct {
	TeamID uuid.UUID `json:"team_id"`
	RoomID uuid.UUID `json:"room_id"`

	Inventory  StringSet  `json:"inventory"`
	SceneState SceneState `json:"scene_state"`

	// CurrentStageIndex is 1-based and non-decreasing except via explicit
	// authored stage jumps.
	CurrentStageIndex int    `json:"current_stage_index"`
	SolvedStages      IntSet `json:"solved_stages"`

	RunStartedAt *time.Time `json:"run_started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	FailedAt     *time.Time `json:"failed_at,omitempty"`

	// Revision is compared-and-swapped on write to detect concurrent
	// read-modify-write races between team members.
	Revision int64 `json:"revision"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a fresh progress aggregate for a team and room.
// The run is not started until Start is called.
func New(teamID, roomID uuid.UUID) *Progress {
	now := time.Now().UTC()
	return &Progress{
		TeamID:            teamID,
		RoomID:            roomID,
		Inventory:         StringSet{},
		SceneState:        NewSceneState(),
		CurrentStageIndex: 1,
		SolvedStages:      IntSet{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Status derives the lifecycle state from the timestamps.
func (p *Progress) Status() Status {
	switch {
	case p.CompletedAt != nil:
		return StatusCompleted
	case p.FailedAt != nil:
		return StatusFailed
	case p.RunStartedAt != nil:
		return StatusRunning
	default:
		return StatusNotStarted
	}
}

// CanMutate is the gate every player action passes before touching state.
func (p *Progress) CanMutate() error {
	if p.RunStartedAt == nil {
		return ErrNotStarted
	}
	if p.CompletedAt != nil || p.FailedAt != nil {
		return ErrRunEnded
	}
	return nil
}

// Start marks the run as started. Starting an already-started run is a no-op.
func (p *Progress) Start(now time.Time) {
	if p.RunStartedAt != nil {
		return
	}
	t := now.UTC()
	p.RunStartedAt = &t
}

// Complete marks the run completed. The timestamp is write-once.
func (p *Progress) Complete(now time.Time) {
	if p.CompletedAt != nil {
		return
	}
	t := now.UTC()
	p.CompletedAt = &t
}

// Fail marks the run failed. The timestamp is write-once.
func (p *Progress) Fail(now time.Time) {
	if p.FailedAt != nil {
		return
	}
	t := now.UTC()
	p.FailedAt = &t
}

// Normalize fills nil collections after a defensive parse so callers can
// mutate without nil checks.
func (p *Progress) Normalize() {
	if p.Inventory == nil {
		p.Inventory = StringSet{}
	}
	if p.SolvedStages == nil {
		p.SolvedStages = IntSet{}
	}
	p.SceneState = p.SceneState.normalized()
	if p.CurrentStageIndex < 1 {
		p.CurrentStageIndex = 1
	}
}

// Clone returns a deep copy, used to stage mutations so a failed action
// leaves the stored aggregate untouched.
func (p *Progress) Clone() *Progress {
	cp := *p
	cp.Inventory = p.Inventory.Clone()
	cp.SceneState = p.SceneState.Clone()
	cp.SolvedStages = append(IntSet{}, p.SolvedStages...)
	return &cp
}
