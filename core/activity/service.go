package activity

import (
	"context"
	"errors"
	"time"

	"github.com/aranzadi/pictotea/core"
	"github.com/aranzadi/pictotea/core/patient"
	"github.com/aranzadi/pictotea/core/user"
)

var (
	// errors
	ErrNotFound           = errors.New("activity not found")
	ErrAssignmentNotFound = errors.New("assignment not found")

	ErrNameExists        = errors.New("an active activity with this name already exists")
	ErrDescriptionExists = errors.New("an active activity with this description already exists")
	ErrSequenceExists    = errors.New("an active activity with this solution sequence already exists")

	ErrAlreadyAssigned    = errors.New("activity is already assigned to this patient")
	ErrReassignAvailable  = errors.New("activity was previously unassigned; it can be reassigned")
	ErrAlreadyCompleted   = errors.New("activity has already been completed by this patient")
	ErrActivityInProgress = errors.New("patient already has an activity in progress")
	ErrNotAssigned        = errors.New("activity is not currently assigned to this patient")
	ErrNotUnassigned      = errors.New("activity has no unassigned link for this patient")
	ErrIncorrectAnswer    = errors.New("incorrect answer")
)

type (
	Repository interface {
		CreateActivity(ctx context.Context, act Activity, exec ...core.DBExecutor) (Activity, error)
		GetActivityByID(ctx context.Context, id int, exec ...core.DBExecutor) (Activity, error)
		// CheckActivityUniqueness reports ErrNameExists, ErrDescriptionExists or
		// ErrSequenceExists when another *active* activity collides; soft-deleted
		// activities do not count.
		CheckActivityUniqueness(ctx context.Context, name, description string, seq []int, excluded ...Activity) error
		DeactivateActivity(ctx context.Context, id int, exec ...core.DBExecutor) error

		GetAssignment(ctx context.Context, activityID, patientID int, exec ...core.DBExecutor) (Assignment, error)
		// GetActiveAssignment returns the patient's single active, incomplete
		// assignment across all activities, or ErrAssignmentNotFound.
		GetActiveAssignment(ctx context.Context, patientID int, exec ...core.DBExecutor) (Assignment, error)
		CreateAssignment(ctx context.Context, asg Assignment, exec ...core.DBExecutor) (Assignment, error)
		UpdateAssignment(ctx context.Context, asg Assignment, exec ...core.DBExecutor) (Assignment, error)
		// DeactivateAssignmentsByActivity force-unassigns every active,
		// incomplete link of the activity; completed links are left untouched.
		DeactivateAssignmentsByActivity(ctx context.Context, activityID int, exec ...core.DBExecutor) error
		CountPhaseCompletions(ctx context.Context, patientID, phaseID int) (int, error)
	}

	PatientRepository interface {
		GetPatientByID(ctx context.Context, id int) (patient.Patient, error)
	}

	Service struct {
		db          core.DB
		repo        Repository
		patientRepo PatientRepository
		log         core.Logger
	}
)

func NewService(db core.DB, repo Repository, patientRepo PatientRepository, log core.Logger) *Service {
	return &Service{db: db, repo: repo, patientRepo: patientRepo, log: log}
}

func (svc *Service) checkUniqueness(name, description string, seq []int, excl ...Activity) error {
	if err := svc.repo.CheckActivityUniqueness(context.Background(), name, description, seq, excl...); err != nil {
		var field string
		switch err {
		case ErrNameExists:
			field = "name"
		case ErrDescriptionExists:
			field = "description"
		case ErrSequenceExists:
			field = "solution_sequence"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

// getActive fetches an activity and hides soft-deleted ones.
func (svc *Service) getActive(ctx context.Context, id int, exec ...core.DBExecutor) (Activity, error) {
	act, err := svc.repo.GetActivityByID(ctx, id, exec...)
	if err != nil {
		return Activity{}, err
	}
	if !act.IsActive {
		return Activity{}, ErrNotFound
	}
	return act, nil
}

// getActivePatient fetches a patient, hiding deactivated ones and, for
// non-admin therapists, patients outside their assignment set.
func (svc *Service) getActivePatient(ctx context.Context, ac user.AccessContext, id int) (patient.Patient, error) {
	pat, err := svc.patientRepo.GetPatientByID(ctx, id)
	if err != nil {
		return patient.Patient{}, err
	}
	if !pat.IsActive {
		return patient.Patient{}, patient.ErrNotFound
	}
	if ac.IsTherapist() && !ac.IsAdmin() && !pat.AssignedToTherapist(ac.UserID) {
		return patient.Patient{}, patient.ErrNotFound
	}
	return pat, nil
}

func (svc *Service) Create(ctx context.Context, ac user.AccessContext, na NewActivity) (Activity, error) {
	now := time.Now().UTC()
	act := Activity{
		Name:                     na.Name,
		Description:              na.Description,
		SatisfactoryPointsTarget: na.SatisfactoryPointsTarget,
		SolutionSequence:         na.SolutionSequence,
		PhaseID:                  na.PhaseID,
		IsActive:                 true,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	return svc.repo.CreateActivity(ctx, act)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Activity, error) {
	return svc.getActive(ctx, id)
}

// Delete soft-deletes an activity and force-unassigns all its active,
// incomplete patient links in the same transaction.
func (svc *Service) Delete(ctx context.Context, ac user.AccessContext, id int) error {
	if _, err := svc.getActive(ctx, id); err != nil {
		return err
	}
	return core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		if err := svc.repo.DeactivateActivity(ctx, id, tx); err != nil {
			return err
		}
		return svc.repo.DeactivateAssignmentsByActivity(ctx, id, tx)
	})
}

// Assign creates the live link between a patient and an activity. A pair that
// was unassigned earlier is reported as a reassignable conflict so the caller
// can redirect to Reassign instead of duplicating the row.
func (svc *Service) Assign(ctx context.Context, ac user.AccessContext, activityID, patientID int) (Assignment, error) {
	if _, err := svc.getActive(ctx, activityID); err != nil {
		return Assignment{}, err
	}
	pat, err := svc.getActivePatient(ctx, ac, patientID)
	if err != nil {
		return Assignment{}, err
	}

	var asg Assignment
	err = core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		row, err := svc.repo.GetAssignment(ctx, activityID, pat.ID, tx)
		switch err {
		case nil:
			switch row.State() {
			case StateCompleted:
				return core.NewConflictError(ErrAlreadyCompleted)
			case StateActive:
				return core.NewConflictError(ErrAlreadyAssigned)
			default:
				return core.NewReassignableConflictError(ErrReassignAvailable)
			}
		case ErrAssignmentNotFound:
			// pair never linked; proceed
		default:
			return err
		}

		// single-track therapy: one live activity per patient at a time
		if _, err = svc.repo.GetActiveAssignment(ctx, pat.ID, tx); err == nil {
			return core.NewConflictError(ErrActivityInProgress)
		} else if err != ErrAssignmentNotFound {
			return err
		}

		now := time.Now().UTC()
		asg, err = svc.repo.CreateAssignment(ctx, Assignment{
			PatientID:  pat.ID,
			ActivityID: activityID,
			Active:     true,
			CreatedAt:  now,
			UpdatedAt:  now,
		}, tx)
		return err
	})
	return asg, err
}

// Unassign retires the live link without touching its progress: attempts and
// completion survive for a later Reassign.
func (svc *Service) Unassign(ctx context.Context, ac user.AccessContext, activityID, patientID int) (Assignment, error) {
	if _, err := svc.getActive(ctx, activityID); err != nil {
		return Assignment{}, err
	}
	pat, err := svc.getActivePatient(ctx, ac, patientID)
	if err != nil {
		return Assignment{}, err
	}

	var asg Assignment
	err = core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		row, err := svc.repo.GetAssignment(ctx, activityID, pat.ID, tx)
		if err != nil {
			if err == ErrAssignmentNotFound {
				return core.NewConflictError(ErrNotAssigned)
			}
			return err
		}
		switch row.State() {
		case StateCompleted:
			// completed rows are immutable
			return core.NewConflictError(ErrAlreadyCompleted)
		case StateUnassigned:
			return core.NewConflictError(ErrNotAssigned)
		}

		row.Active = false
		row.UpdatedAt = time.Now().UTC()
		asg, err = svc.repo.UpdateAssignment(ctx, row, tx)
		return err
	})
	return asg, err
}

// Reassign reactivates a previously unassigned pair. With restore the attempt
// counter restarts from zero; without it the patient resumes where they left.
func (svc *Service) Reassign(ctx context.Context, ac user.AccessContext, activityID, patientID int, restore bool) (Assignment, error) {
	if _, err := svc.getActive(ctx, activityID); err != nil {
		return Assignment{}, err
	}
	pat, err := svc.getActivePatient(ctx, ac, patientID)
	if err != nil {
		return Assignment{}, err
	}

	var asg Assignment
	err = core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		row, err := svc.repo.GetAssignment(ctx, activityID, pat.ID, tx)
		if err != nil {
			if err == ErrAssignmentNotFound {
				return core.NewConflictError(ErrNotUnassigned)
			}
			return err
		}
		switch row.State() {
		case StateCompleted:
			return core.NewConflictError(ErrAlreadyCompleted)
		case StateActive:
			return core.NewConflictError(ErrAlreadyAssigned)
		}

		if _, err = svc.repo.GetActiveAssignment(ctx, pat.ID, tx); err == nil {
			return core.NewConflictError(ErrActivityInProgress)
		} else if err != ErrAssignmentNotFound {
			return err
		}

		row.Active = true
		if restore {
			row.SatisfactoryAttempts = 0
		}
		row.UpdatedAt = time.Now().UTC()
		asg, err = svc.repo.UpdateAssignment(ctx, row, tx)
		return err
	})
	return asg, err
}

// SubmitAnswer verifies an attempt against the activity's solution sequence.
// A mismatch is a plain conflict and leaves the counter untouched; a match
// increments it and, on the attempt that reaches the activity's target, flips
// the row to completed in the same update. Retries are not deduplicated here:
// a caller that re-sends a matched answer will count it again.
func (svc *Service) SubmitAnswer(ctx context.Context, ac user.AccessContext, activityID, patientID int, attempt AnswerAttempt) (Assignment, error) {
	if err := attempt.Validate(); err != nil {
		return Assignment{}, err
	}

	act, err := svc.getActive(ctx, activityID)
	if err != nil {
		return Assignment{}, err
	}
	pat, err := svc.getActivePatient(ctx, ac, patientID)
	if err != nil {
		return Assignment{}, err
	}

	var asg Assignment
	err = core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		row, err := svc.repo.GetAssignment(ctx, activityID, pat.ID, tx)
		if err != nil {
			if err == ErrAssignmentNotFound {
				return core.NewConflictError(ErrNotAssigned)
			}
			return err
		}
		switch row.State() {
		case StateCompleted:
			return core.NewConflictError(ErrAlreadyCompleted)
		case StateUnassigned:
			return core.NewConflictError(ErrNotAssigned)
		}

		if !Matches(attempt.Pictograms, act.SolutionSequence) {
			return core.NewConflictError(ErrIncorrectAnswer)
		}

		row.SatisfactoryAttempts++
		if row.SatisfactoryAttempts >= act.SatisfactoryPointsTarget {
			row.IsCompleted = true
		}
		row.UpdatedAt = time.Now().UTC()
		asg, err = svc.repo.UpdateAssignment(ctx, row, tx)
		return err
	})
	return asg, err
}
