package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/aranzadi/pictotea/core"
	"github.com/aranzadi/pictotea/core/achievement"
	"github.com/aranzadi/pictotea/core/activity"
	"github.com/aranzadi/pictotea/core/patient"
	"github.com/aranzadi/pictotea/core/user"
)

// Creation surfaces of the store repositories. The service-side Repository
// interfaces stay read-mostly; fixtures go through these.
type (
	PatientCreatorRepository interface {
		CreatePatient(ctx context.Context, pat patient.Patient, exec ...core.DBExecutor) (patient.Patient, error)
		CreateHealthRecord(ctx context.Context, rec patient.HealthRecord, exec ...core.DBExecutor) (patient.HealthRecord, error)
		CreatePhase(ctx context.Context, ph patient.Phase, exec ...core.DBExecutor) (patient.Phase, error)
	}
	AchievementCreatorRepository interface {
		CreateAchievement(ctx context.Context, ach achievement.Achievement, exec ...core.DBExecutor) (achievement.Achievement, error)
	}
	AssignmentCreatorRepository interface {
		CreateAssignment(ctx context.Context, asg activity.Assignment, exec ...core.DBExecutor) (activity.Assignment, error)
	}
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr := user.User{
		Name:       name,
		Username:   uname,
		Email:      email,
		Roles:      roles,
		IsVerified: isActive,
		IsActive:   isActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreatePatient(
	t *testing.T,
	repo PatientCreatorRepository,
	userID int,
	therapistIDs []int,
	isActive bool,
) patient.Patient {
	t.Helper()

	now := time.Now().UTC()
	pat, err := repo.CreatePatient(context.Background(), patient.Patient{
		UserID:       userID,
		TherapistIDs: therapistIDs,
		IsActive:     isActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreatePatient() failed: %v", err)
	}
	return pat
}

func CreateHealthRecord(
	t *testing.T,
	repo PatientCreatorRepository,
	patientID, phaseID int,
) patient.HealthRecord {
	t.Helper()

	now := time.Now().UTC()
	rec, err := repo.CreateHealthRecord(context.Background(), patient.HealthRecord{
		PatientID:      patientID,
		CurrentPhaseID: phaseID,
		TEADegreeID:    1,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		t.Fatalf("CreateHealthRecord() failed: %v", err)
	}
	return rec
}

// SeedPhases loads the six phase fixtures.
func SeedPhases(t *testing.T, repo PatientCreatorRepository) []patient.Phase {
	t.Helper()

	phases := make([]patient.Phase, 0, len(patient.PhaseFixtures))
	for _, ph := range patient.PhaseFixtures {
		created, err := repo.CreatePhase(context.Background(), ph)
		if err != nil {
			t.Fatalf("SeedPhases() failed: %v", err)
		}
		phases = append(phases, created)
	}
	return phases
}

func CreateActivity(
	t *testing.T,
	repo activity.Repository,
	name, description string,
	seq []int,
	phaseID, target int,
	isActive bool,
) activity.Activity {
	t.Helper()

	now := time.Now().UTC()
	act, err := repo.CreateActivity(context.Background(), activity.Activity{
		Name:                     name,
		Description:              description,
		SatisfactoryPointsTarget: target,
		SolutionSequence:         seq,
		PhaseID:                  phaseID,
		IsActive:                 isActive,
		CreatedAt:                now,
		UpdatedAt:                now,
	})
	if err != nil {
		t.Fatalf("CreateActivity() failed: %v", err)
	}
	return act
}

func CreateAssignment(
	t *testing.T,
	repo AssignmentCreatorRepository,
	activityID, patientID, attempts int,
	active, completed bool,
) activity.Assignment {
	t.Helper()

	now := time.Now().UTC()
	asg, err := repo.CreateAssignment(context.Background(), activity.Assignment{
		ActivityID:           activityID,
		PatientID:            patientID,
		Active:               active,
		IsCompleted:          completed,
		SatisfactoryAttempts: attempts,
		CreatedAt:            now,
		UpdatedAt:            now,
	})
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return asg
}

func CreateAchievement(
	t *testing.T,
	repo AchievementCreatorRepository,
	id int,
	name string,
	isActive bool,
) achievement.Achievement {
	t.Helper()

	now := time.Now().UTC()
	ach, err := repo.CreateAchievement(context.Background(), achievement.Achievement{
		ID:        id,
		Name:      name,
		ImageURL:  "/static/achievements/test.png",
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateAchievement() failed: %v", err)
	}
	return ach
}
