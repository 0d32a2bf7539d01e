package activity

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/aranzadi/pictotea/core"
)

// Activity is a therapeutic exercise: an ordered pictogram solution sequence
// the patient must reproduce a target number of times.
type Activity struct {
	ID                       int       `json:"id"`
	Name                     string    `json:"name"`
	Description              string    `json:"description"`
	SatisfactoryPointsTarget int       `json:"satisfactory_points_target"`
	SolutionSequence         []int     `json:"solution_sequence"`
	PhaseID                  int       `json:"phase_id"`
	IsActive                 bool      `json:"is_active"`
	CreatedAt                time.Time `json:"created_at"` // UTC
	UpdatedAt                time.Time `json:"updated_at"` // UTC
}

const sequenceSeparator = "-"

// EncodeSequence renders a pictogram sequence in its persisted form ("3-7-2").
func EncodeSequence(seq []int) string {
	parts := make([]string, 0, len(seq))
	for _, id := range seq {
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, sequenceSeparator)
}

// ParseSequence parses the persisted delimited form back into pictogram IDs.
func ParseSequence(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, sequenceSeparator)
	seq := make([]int, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing solution sequence %q", s)
		}
		seq = append(seq, id)
	}
	return seq, nil
}

// AssignmentState is the explicit lifecycle of a (patient, activity) pairing.
// A single row serves all three phases; the state is derived from its flags so
// transitions stay in one place instead of callers juggling two booleans.
type AssignmentState int

const (
	StateUnassigned AssignmentState = iota
	StateActive
	StateCompleted
)

func (s AssignmentState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	default:
		return "unassigned"
	}
}

// Assignment links a patient to an activity and carries its attempt/completion
// state. Rows are never deleted; Active flips on unassign/reassign and
// IsCompleted flips to true exactly once.
type Assignment struct {
	ID                   int       `json:"id"`
	PatientID            int       `json:"patient_id"`
	ActivityID           int       `json:"activity_id"`
	Active               bool      `json:"active"`
	IsCompleted          bool      `json:"is_completed"`
	SatisfactoryAttempts int       `json:"satisfactory_attempts"`
	CreatedAt            time.Time `json:"created_at"` // UTC
	UpdatedAt            time.Time `json:"updated_at"` // UTC
}

func (a Assignment) State() AssignmentState {
	switch {
	case a.IsCompleted:
		return StateCompleted
	case a.Active:
		return StateActive
	default:
		return StateUnassigned
	}
}

// NewActivity contains information needed to create a new Activity.
type NewActivity struct {
	Name                     string `json:"name" validate:"required"`
	Description              string `json:"description" validate:"required"`
	SatisfactoryPointsTarget int    `json:"satisfactory_points_target" validate:"required,gt=0"`
	SolutionSequence         []int  `json:"solution_sequence" validate:"required,min=1,max=30,unique,dive,gt=0"`
	PhaseID                  int    `json:"phase_id" validate:"required,gt=0"`
}

func (na *NewActivity) Validate(svc *Service) error {
	na.Name = core.CleanString(na.Name)
	na.Description = core.CleanString(na.Description)

	if err := core.Validate.Struct(na); err != nil {
		return err
	}
	return svc.checkUniqueness(na.Name, na.Description, na.SolutionSequence)
}

// AnswerAttempt is a patient's attempted pictogram sequence. The shape rules
// (non-empty, positive, duplicate-free, at most 30 items) are enforced here,
// before the matcher ever runs; pictogram existence is the catalog's concern.
type AnswerAttempt struct {
	Pictograms []int `json:"pictograms" validate:"required,min=1,max=30,unique,dive,gt=0"`
}

func (aa *AnswerAttempt) Validate() error {
	return core.Validate.Struct(aa)
}
