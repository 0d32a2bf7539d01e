package activity_test

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/aranzadi/pictotea/core"
	"github.com/aranzadi/pictotea/core/activity"
	"github.com/aranzadi/pictotea/core/patient"
	"github.com/aranzadi/pictotea/core/user"
	logsvc "github.com/aranzadi/pictotea/services/logger"
	dummydb "github.com/aranzadi/pictotea/storage/database/dummy"
	testutil "github.com/aranzadi/pictotea/tests"
)

func setup(t *testing.T) (*activity.Service, activity.Repository, testutil.PatientCreatorRepository, *dummydb.DB) {
	t.Helper()
	core.InitValidators()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	actRepo := dummydb.NewActivityRepository(db)
	patRepo := dummydb.NewPatientRepository(db)
	logger := logsvc.NewConsoleLogger(log.New(io.Discard, "", 0))
	svc := activity.NewService(db, actRepo, patRepo, logger)
	return svc, actRepo, patRepo, db
}

func therapistContext(id int) user.AccessContext {
	return user.AccessContext{UserID: id, Roles: []string{user.RoleTherapist}}
}

func assertConflict(t *testing.T, err, want error) *core.ConflictError {
	t.Helper()
	var cErr *core.ConflictError
	if !errors.As(err, &cErr) {
		t.Fatalf("error = %v, want a conflict wrapping %v", err, want)
	}
	if cErr.Err != want {
		t.Fatalf("conflict error = %v, want %v", cErr.Err, want)
	}
	return cErr
}

func TestService_Create_uniqueness(t *testing.T) {
	svc, _, _, _ := setup(t)
	ctx := context.Background()
	ac := therapistContext(1)

	na := activity.NewActivity{
		Name:                     "Desayuno",
		Description:              "Pedir el desayuno con pictogramas",
		SatisfactoryPointsTarget: 2,
		SolutionSequence:         []int{3, 7, 2},
		PhaseID:                  1,
	}
	if err := na.Validate(svc); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	act, err := svc.Create(ctx, ac, na)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if !act.IsActive {
		t.Error("Create() returned an inactive activity")
	}

	dupes := []struct {
		name    string
		mutate  func(*activity.NewActivity)
		wantErr error
	}{
		{name: "duplicate name", mutate: func(d *activity.NewActivity) {
			d.Description = "Otra descripción"
			d.SolutionSequence = []int{1, 2}
		}, wantErr: activity.ErrNameExists},
		{name: "duplicate description", mutate: func(d *activity.NewActivity) {
			d.Name = "Otra"
			d.SolutionSequence = []int{1, 2}
		}, wantErr: activity.ErrDescriptionExists},
		{name: "duplicate sequence", mutate: func(d *activity.NewActivity) {
			d.Name = "Otra"
			d.Description = "Otra descripción"
		}, wantErr: activity.ErrSequenceExists},
	}
	for _, tt := range dupes {
		t.Run(tt.name, func(t *testing.T) {
			dup := na
			tt.mutate(&dup)
			err := dup.Validate(svc)
			var vErr *core.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Validate() error = %v, want a validation error", err)
			}
			if vErr.Err != tt.wantErr {
				t.Errorf("Validate() error = %v, want %v", vErr.Err, tt.wantErr)
			}
		})
	}

	// soft-deleted activities do not block reuse
	if err := svc.Delete(ctx, ac, act.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if err := na.Validate(svc); err != nil {
		t.Errorf("Validate() after delete failed: %v", err)
	}
}

func TestService_Assign(t *testing.T) {
	svc, actRepo, patRepo, _ := setup(t)
	ctx := context.Background()

	ther := therapistContext(10)
	pat := testutil.CreatePatient(t, patRepo, 100, []int{10}, true)
	act := testutil.CreateActivity(t, actRepo, "Desayuno", "Pedir el desayuno", []int{3, 7, 2}, 1, 2, true)
	other := testutil.CreateActivity(t, actRepo, "Merienda", "Pedir la merienda", []int{5, 1}, 1, 2, true)

	asg, err := svc.Assign(ctx, ther, act.ID, pat.ID)
	if err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}
	if asg.State() != activity.StateActive {
		t.Errorf("Assign() state = %v, want %v", asg.State(), activity.StateActive)
	}
	if asg.SatisfactoryAttempts != 0 {
		t.Errorf("Assign() attempts = %d, want 0", asg.SatisfactoryAttempts)
	}

	t.Run("already assigned", func(t *testing.T) {
		_, err := svc.Assign(ctx, ther, act.ID, pat.ID)
		cErr := assertConflict(t, err, activity.ErrAlreadyAssigned)
		if cErr.Reassignable {
			t.Error("already-assigned conflict must not carry the reassignable hint")
		}
	})

	t.Run("one live activity per patient", func(t *testing.T) {
		_, err := svc.Assign(ctx, ther, other.ID, pat.ID)
		assertConflict(t, err, activity.ErrActivityInProgress)
	})

	t.Run("unassigned pair is reassignable", func(t *testing.T) {
		if _, err := svc.Unassign(ctx, ther, act.ID, pat.ID); err != nil {
			t.Fatalf("Unassign() failed: %v", err)
		}
		_, err := svc.Assign(ctx, ther, act.ID, pat.ID)
		cErr := assertConflict(t, err, activity.ErrReassignAvailable)
		if !cErr.Reassignable {
			t.Error("conflict must carry the reassignable hint")
		}
	})

	t.Run("missing activity", func(t *testing.T) {
		if _, err := svc.Assign(ctx, ther, 999, pat.ID); err != activity.ErrNotFound {
			t.Errorf("Assign() error = %v, want %v", err, activity.ErrNotFound)
		}
	})

	t.Run("missing patient", func(t *testing.T) {
		if _, err := svc.Assign(ctx, ther, other.ID, 999); err != patient.ErrNotFound {
			t.Errorf("Assign() error = %v, want %v", err, patient.ErrNotFound)
		}
	})

	t.Run("patient outside therapist scope", func(t *testing.T) {
		outsider := therapistContext(66)
		if _, err := svc.Assign(ctx, outsider, other.ID, pat.ID); err != patient.ErrNotFound {
			t.Errorf("Assign() error = %v, want %v", err, patient.ErrNotFound)
		}
	})
}

func TestService_Unassign(t *testing.T) {
	svc, actRepo, patRepo, _ := setup(t)
	ctx := context.Background()

	ther := therapistContext(10)
	pat := testutil.CreatePatient(t, patRepo, 100, []int{10}, true)
	act := testutil.CreateActivity(t, actRepo, "Desayuno", "Pedir el desayuno", []int{3, 7, 2}, 1, 2, true)

	t.Run("never assigned", func(t *testing.T) {
		_, err := svc.Unassign(ctx, ther, act.ID, pat.ID)
		assertConflict(t, err, activity.ErrNotAssigned)
	})

	if _, err := svc.Assign(ctx, ther, act.ID, pat.ID); err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}
	if _, err := svc.SubmitAnswer(ctx, ther, act.ID, pat.ID, activity.AnswerAttempt{Pictograms: []int{3, 7, 2}}); err != nil {
		t.Fatalf("SubmitAnswer() failed: %v", err)
	}

	asg, err := svc.Unassign(ctx, ther, act.ID, pat.ID)
	if err != nil {
		t.Fatalf("Unassign() failed: %v", err)
	}
	if asg.State() != activity.StateUnassigned {
		t.Errorf("Unassign() state = %v, want %v", asg.State(), activity.StateUnassigned)
	}
	if asg.SatisfactoryAttempts != 1 {
		t.Errorf("Unassign() attempts = %d, want 1 (progress must survive)", asg.SatisfactoryAttempts)
	}

	t.Run("already unassigned", func(t *testing.T) {
		_, err := svc.Unassign(ctx, ther, act.ID, pat.ID)
		assertConflict(t, err, activity.ErrNotAssigned)
	})

	t.Run("completed rows are immutable", func(t *testing.T) {
		if _, err := svc.Reassign(ctx, ther, act.ID, pat.ID, false); err != nil {
			t.Fatalf("Reassign() failed: %v", err)
		}
		// second satisfactory answer reaches the target of 2
		if _, err := svc.SubmitAnswer(ctx, ther, act.ID, pat.ID, activity.AnswerAttempt{Pictograms: []int{3, 7, 2}}); err != nil {
			t.Fatalf("SubmitAnswer() failed: %v", err)
		}
		_, err := svc.Unassign(ctx, ther, act.ID, pat.ID)
		assertConflict(t, err, activity.ErrAlreadyCompleted)
	})
}

func TestService_Reassign(t *testing.T) {
	svc, actRepo, patRepo, _ := setup(t)
	ctx := context.Background()

	ther := therapistContext(10)
	pat := testutil.CreatePatient(t, patRepo, 100, []int{10}, true)
	act := testutil.CreateActivity(t, actRepo, "Desayuno", "Pedir el desayuno", []int{3, 7, 2}, 1, 3, true)
	other := testutil.CreateActivity(t, actRepo, "Merienda", "Pedir la merienda", []int{5, 1}, 1, 2, true)

	t.Run("no unassigned link", func(t *testing.T) {
		_, err := svc.Reassign(ctx, ther, act.ID, pat.ID, false)
		assertConflict(t, err, activity.ErrNotUnassigned)
	})

	if _, err := svc.Assign(ctx, ther, act.ID, pat.ID); err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}

	t.Run("still active", func(t *testing.T) {
		_, err := svc.Reassign(ctx, ther, act.ID, pat.ID, false)
		assertConflict(t, err, activity.ErrAlreadyAssigned)
	})

	if _, err := svc.SubmitAnswer(ctx, ther, act.ID, pat.ID, activity.AnswerAttempt{Pictograms: []int{3, 7, 2}}); err != nil {
		t.Fatalf("SubmitAnswer() failed: %v", err)
	}
	if _, err := svc.Unassign(ctx, ther, act.ID, pat.ID); err != nil {
		t.Fatalf("Unassign() failed: %v", err)
	}

	t.Run("blocked by another live activity", func(t *testing.T) {
		if _, err := svc.Assign(ctx, ther, other.ID, pat.ID); err != nil {
			t.Fatalf("Assign() failed: %v", err)
		}
		_, err := svc.Reassign(ctx, ther, act.ID, pat.ID, false)
		assertConflict(t, err, activity.ErrActivityInProgress)
		if _, err := svc.Unassign(ctx, ther, other.ID, pat.ID); err != nil {
			t.Fatalf("Unassign() failed: %v", err)
		}
	})

	t.Run("resume keeps attempts", func(t *testing.T) {
		asg, err := svc.Reassign(ctx, ther, act.ID, pat.ID, false)
		if err != nil {
			t.Fatalf("Reassign() failed: %v", err)
		}
		if asg.State() != activity.StateActive {
			t.Errorf("Reassign() state = %v, want %v", asg.State(), activity.StateActive)
		}
		if asg.SatisfactoryAttempts != 1 {
			t.Errorf("Reassign() attempts = %d, want 1", asg.SatisfactoryAttempts)
		}
	})

	t.Run("restore resets attempts", func(t *testing.T) {
		if _, err := svc.Unassign(ctx, ther, act.ID, pat.ID); err != nil {
			t.Fatalf("Unassign() failed: %v", err)
		}
		asg, err := svc.Reassign(ctx, ther, act.ID, pat.ID, true)
		if err != nil {
			t.Fatalf("Reassign() failed: %v", err)
		}
		if asg.SatisfactoryAttempts != 0 {
			t.Errorf("Reassign(restore) attempts = %d, want 0", asg.SatisfactoryAttempts)
		}
	})
}

func TestService_SubmitAnswer(t *testing.T) {
	svc, actRepo, patRepo, _ := setup(t)
	ctx := context.Background()

	ther := therapistContext(10)
	pat := testutil.CreatePatient(t, patRepo, 100, []int{10}, true)
	act := testutil.CreateActivity(t, actRepo, "Desayuno", "Pedir el desayuno", []int{3, 7, 2}, 1, 2, true)

	t.Run("not assigned", func(t *testing.T) {
		_, err := svc.SubmitAnswer(ctx, ther, act.ID, pat.ID, activity.AnswerAttempt{Pictograms: []int{3, 7, 2}})
		assertConflict(t, err, activity.ErrNotAssigned)
	})

	if _, err := svc.Assign(ctx, ther, act.ID, pat.ID); err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}

	t.Run("invalid shape", func(t *testing.T) {
		shapes := map[string][]int{
			"empty":        nil,
			"duplicate":    {3, 7, 7},
			"non-positive": {3, -7, 2},
		}
		for name, pictograms := range shapes {
			if _, err := svc.SubmitAnswer(ctx, ther, act.ID, pat.ID, activity.AnswerAttempt{Pictograms: pictograms}); err == nil {
				t.Errorf("SubmitAnswer(%s attempt) expected a validation error", name)
			}
		}
	})

	t.Run("mismatch leaves the counter untouched", func(t *testing.T) {
		_, err := svc.SubmitAnswer(ctx, ther, act.ID, pat.ID, activity.AnswerAttempt{Pictograms: []int{7, 3, 2}})
		assertConflict(t, err, activity.ErrIncorrectAnswer)

		asg, err := actRepo.GetAssignment(ctx, act.ID, pat.ID)
		if err != nil {
			t.Fatalf("GetAssignment() failed: %v", err)
		}
		if asg.SatisfactoryAttempts != 0 {
			t.Errorf("attempts = %d, want 0", asg.SatisfactoryAttempts)
		}
	})

	t.Run("match increments", func(t *testing.T) {
		asg, err := svc.SubmitAnswer(ctx, ther, act.ID, pat.ID, activity.AnswerAttempt{Pictograms: []int{3, 7, 2}})
		if err != nil {
			t.Fatalf("SubmitAnswer() failed: %v", err)
		}
		if asg.SatisfactoryAttempts != 1 {
			t.Errorf("attempts = %d, want 1", asg.SatisfactoryAttempts)
		}
		if asg.IsCompleted {
			t.Error("assignment completed before reaching the target")
		}
	})

	t.Run("longer attempt with matching prefix counts", func(t *testing.T) {
		asg, err := svc.SubmitAnswer(ctx, ther, act.ID, pat.ID, activity.AnswerAttempt{Pictograms: []int{3, 7, 2, 9}})
		if err != nil {
			t.Fatalf("SubmitAnswer() failed: %v", err)
		}
		if asg.SatisfactoryAttempts != 2 {
			t.Errorf("attempts = %d, want 2", asg.SatisfactoryAttempts)
		}
		if !asg.IsCompleted {
			t.Error("assignment must complete on the attempt that reaches the target")
		}
	})

	t.Run("completed pair rejects further answers", func(t *testing.T) {
		_, err := svc.SubmitAnswer(ctx, ther, act.ID, pat.ID, activity.AnswerAttempt{Pictograms: []int{3, 7, 2}})
		assertConflict(t, err, activity.ErrAlreadyCompleted)
	})
}

func TestService_Delete_cascades(t *testing.T) {
	svc, actRepo, patRepo, _ := setup(t)
	ctx := context.Background()

	ther := therapistContext(10)
	pat := testutil.CreatePatient(t, patRepo, 100, []int{10}, true)
	act := testutil.CreateActivity(t, actRepo, "Desayuno", "Pedir el desayuno", []int{3, 7, 2}, 1, 2, true)

	if _, err := svc.Assign(ctx, ther, act.ID, pat.ID); err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}
	if err := svc.Delete(ctx, ther, act.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	if _, err := svc.GetByID(ctx, act.ID); err != activity.ErrNotFound {
		t.Errorf("GetByID() error = %v, want %v", err, activity.ErrNotFound)
	}

	asg, err := actRepo.GetAssignment(ctx, act.ID, pat.ID)
	if err != nil {
		t.Fatalf("GetAssignment() failed: %v", err)
	}
	if asg.State() != activity.StateUnassigned {
		t.Errorf("cascade state = %v, want %v", asg.State(), activity.StateUnassigned)
	}

	t.Run("double delete", func(t *testing.T) {
		if err := svc.Delete(ctx, ther, act.ID); err != activity.ErrNotFound {
			t.Errorf("Delete() error = %v, want %v", err, activity.ErrNotFound)
		}
	})
}
