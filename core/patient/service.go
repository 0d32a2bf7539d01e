package patient

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/aranzadi/pictotea/core"
	"github.com/aranzadi/pictotea/core/user"
)

var (
	// errors
	ErrNotFound             = errors.New("patient not found")
	ErrHealthRecordNotFound = errors.New("health record not found")
	ErrPhaseNotFound        = errors.New("phase not found")
	ErrBadPhaseTarget       = errors.New("phase has a zero activities target")
)

type (
	Repository interface {
		GetPatientByID(ctx context.Context, id int) (Patient, error)
		GetHealthRecordByPatientID(ctx context.Context, patientID int) (HealthRecord, error)
		QueryAllPhases(ctx context.Context) ([]Phase, error)
		GetPhaseByID(ctx context.Context, id int) (Phase, error)
	}

	// AssignmentRepository is the slice of the activity storage the progress
	// calculation needs: how many of the patient's live assignments are
	// completed within a given phase.
	AssignmentRepository interface {
		CountPhaseCompletions(ctx context.Context, patientID, phaseID int) (int, error)
	}

	Service struct {
		repo           Repository
		assignmentRepo AssignmentRepository
		log            core.Logger
	}
)

func NewService(repo Repository, assignmentRepo AssignmentRepository, log core.Logger) *Service {
	return &Service{repo: repo, assignmentRepo: assignmentRepo, log: log}
}

func (svc *Service) GetByID(ctx context.Context, id int) (Patient, error) {
	return svc.repo.GetPatientByID(ctx, id)
}

// ResolveScoped fetches a patient and enforces therapist scoping: a therapist
// may only reach their own assigned patients; admins bypass the check. Patients
// outside the requester's scope are reported as not found, not forbidden.
func (svc *Service) ResolveScoped(ctx context.Context, ac user.AccessContext, patientID int) (Patient, error) {
	pat, err := svc.repo.GetPatientByID(ctx, patientID)
	if err != nil {
		return Patient{}, err
	}
	if !pat.IsActive {
		return Patient{}, ErrNotFound
	}
	if ac.IsTherapist() && !ac.IsAdmin() && !pat.AssignedToTherapist(ac.UserID) {
		return Patient{}, ErrNotFound
	}
	return pat, nil
}

var hundred = decimal.NewFromInt(100)

// Progress derives the patient's treatment-level and phase-level percentages.
// generalProgress is the patient's position within the ordered phase list;
// phaseProgress is the share of the current phase's activities target covered
// by completed, still-live assignments in that phase. Both round to 2 places.
func (svc *Service) Progress(ctx context.Context, ac user.AccessContext, patientID int) (Progress, error) {
	pat, err := svc.ResolveScoped(ctx, ac, patientID)
	if err != nil {
		return Progress{}, err
	}

	rec, err := svc.repo.GetHealthRecordByPatientID(ctx, pat.ID)
	if err != nil {
		return Progress{}, err
	}

	phases, err := svc.repo.QueryAllPhases(ctx)
	if err != nil {
		return Progress{}, err
	}

	idx := -1
	var current Phase
	for i, ph := range phases {
		if ph.ID == rec.CurrentPhaseID {
			idx = i
			current = ph
			break
		}
	}
	if idx < 0 {
		return Progress{}, ErrPhaseNotFound
	}
	if current.ScoreActivitiesTarget == 0 {
		// broken seed data; fail loudly rather than divide by zero
		svc.log.Error("phase has scoreActivitiesTarget=0", map[string]interface{}{"phase": current.ID})
		return Progress{}, ErrBadPhaseTarget
	}

	completed, err := svc.assignmentRepo.CountPhaseCompletions(ctx, pat.ID, current.ID)
	if err != nil {
		return Progress{}, err
	}

	general := decimal.NewFromInt(int64(idx + 1)).
		Div(decimal.NewFromInt(int64(len(phases)))).
		Mul(hundred).
		Round(2)
	phase := decimal.NewFromInt(int64(completed)).
		Div(decimal.NewFromInt(int64(current.ScoreActivitiesTarget))).
		Mul(hundred).
		Round(2)

	return Progress{GeneralProgress: general, PhaseProgress: phase}, nil
}
