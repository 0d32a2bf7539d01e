package dummydb

import (
	"context"
	"time"

	"github.com/aranzadi/pictotea/core"
	"github.com/aranzadi/pictotea/core/activity"
)

type activityRepository struct {
	db *DB
}

var (
	_ activity.Repository        = (*activityRepository)(nil) // interface compliance check
	_ activity.PatientRepository = (*patientRepository)(nil)  // interface compliance check
)

func NewActivityRepository(db *DB) *activityRepository {
	return &activityRepository{db: db}
}

func (repo *activityRepository) CreateActivity(ctx context.Context, act activity.Activity, exec ...core.DBExecutor) (activity.Activity, error) {
	defer repo.db.lock(exec)()

	act.ID = repo.db.nextPK("activity")
	repo.db.activities[act.ID] = &act
	return act, nil
}

func (repo *activityRepository) GetActivityByID(ctx context.Context, id int, exec ...core.DBExecutor) (activity.Activity, error) {
	defer repo.db.rlock(exec)()

	if act, ok := repo.db.activities[id]; ok {
		return *act, nil
	}
	return activity.Activity{}, activity.ErrNotFound
}

func (repo *activityRepository) CheckActivityUniqueness(ctx context.Context, name, description string, seq []int, excluded ...activity.Activity) error {
	defer repo.db.rlock(nil)()

	isExcluded := func(act *activity.Activity) bool {
		for _, ex := range excluded {
			if ex.ID == act.ID {
				return true
			}
		}
		return false
	}
	encoded := activity.EncodeSequence(seq)
	for _, act := range repo.db.activities {
		if !act.IsActive || isExcluded(act) {
			continue
		}
		switch {
		case act.Name == name:
			return activity.ErrNameExists
		case act.Description == description:
			return activity.ErrDescriptionExists
		case activity.EncodeSequence(act.SolutionSequence) == encoded:
			return activity.ErrSequenceExists
		}
	}
	return nil
}

func (repo *activityRepository) DeactivateActivity(ctx context.Context, id int, exec ...core.DBExecutor) error {
	defer repo.db.lock(exec)()

	act, ok := repo.db.activities[id]
	if !ok {
		return activity.ErrNotFound
	}
	act.IsActive = false
	act.UpdatedAt = time.Now().UTC()
	return nil
}

func (repo *activityRepository) GetAssignment(ctx context.Context, activityID, patientID int, exec ...core.DBExecutor) (activity.Assignment, error) {
	defer repo.db.rlock(exec)()

	for _, asg := range repo.db.assignments {
		if asg.ActivityID == activityID && asg.PatientID == patientID {
			return *asg, nil
		}
	}
	return activity.Assignment{}, activity.ErrAssignmentNotFound
}

func (repo *activityRepository) GetActiveAssignment(ctx context.Context, patientID int, exec ...core.DBExecutor) (activity.Assignment, error) {
	defer repo.db.rlock(exec)()

	for _, asg := range repo.db.assignments {
		if asg.PatientID == patientID && asg.Active && !asg.IsCompleted {
			return *asg, nil
		}
	}
	return activity.Assignment{}, activity.ErrAssignmentNotFound
}

func (repo *activityRepository) CreateAssignment(ctx context.Context, asg activity.Assignment, exec ...core.DBExecutor) (activity.Assignment, error) {
	defer repo.db.lock(exec)()

	asg.ID = repo.db.nextPK("patient_activity")
	repo.db.assignments[asg.ID] = &asg
	return asg, nil
}

func (repo *activityRepository) UpdateAssignment(ctx context.Context, asg activity.Assignment, exec ...core.DBExecutor) (activity.Assignment, error) {
	defer repo.db.lock(exec)()

	if _, ok := repo.db.assignments[asg.ID]; !ok {
		return activity.Assignment{}, activity.ErrAssignmentNotFound
	}
	repo.db.assignments[asg.ID] = &asg
	return asg, nil
}

func (repo *activityRepository) DeactivateAssignmentsByActivity(ctx context.Context, activityID int, exec ...core.DBExecutor) error {
	defer repo.db.lock(exec)()

	now := time.Now().UTC()
	for _, asg := range repo.db.assignments {
		if asg.ActivityID == activityID && asg.Active && !asg.IsCompleted {
			asg.Active = false
			asg.UpdatedAt = now
		}
	}
	return nil
}

func (repo *activityRepository) CountPhaseCompletions(ctx context.Context, patientID, phaseID int) (int, error) {
	defer repo.db.rlock(nil)()

	var count int
	for _, asg := range repo.db.assignments {
		if asg.PatientID != patientID || !asg.Active || !asg.IsCompleted {
			continue
		}
		if act, ok := repo.db.activities[asg.ActivityID]; ok && act.PhaseID == phaseID {
			count++
		}
	}
	return count, nil
}
