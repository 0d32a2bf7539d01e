package achievement

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
	ErrNotFound       = errors.New("achievement not found")
	ErrGrantNotFound  = errors.New("achievement grant not found")
	ErrAlreadyGranted = errors.New("patient already has this achievement")
)

type (
	Repository interface {
		CreateAchievement(ctx context.Context, ach Achievement, exec ...core.DBExecutor) (Achievement, error)
		GetAchievementByID(ctx context.Context, id int, exec ...core.DBExecutor) (Achievement, error)
		GetGrant(ctx context.Context, achievementID, healthRecordID int, exec ...core.DBExecutor) (Grant, error)
		CreateGrant(ctx context.Context, grant Grant, exec ...core.DBExecutor) (Grant, error)
		QueryGrantsByHealthRecord(ctx context.Context, healthRecordID int) ([]Grant, error)
	}

	PatientRepository interface {
		GetPatientByID(ctx context.Context, id int) (patient.Patient, error)
		GetHealthRecordByPatientID(ctx context.Context, patientID int) (patient.HealthRecord, error)
	}

	UserRepository interface {
		GetUserByID(ctx context.Context, id int) (user.User, error)
	}

	Service struct {
		db          core.DB
		repo        Repository
		patientRepo PatientRepository
		userRepo    UserRepository
		log         core.Logger
	}
)

func NewService(db core.DB, repo Repository, patientRepo PatientRepository, userRepo UserRepository, log core.Logger) *Service {
	return &Service{db: db, repo: repo, patientRepo: patientRepo, userRepo: userRepo, log: log}
}

// Grant awards a non-reserved achievement to a patient's health record.
// Therapists only reach their own assigned patients; admins bypass scoping.
// Patients outside scope, unverified accounts, missing health records and
// reserved or inactive achievements all surface as not-found; a repeated
// grant for the same pair is a conflict.
func (svc *Service) Grant(ctx context.Context, ac user.AccessContext, patientID, achievementID int) (Grant, error) {
	pat, err := svc.patientRepo.GetPatientByID(ctx, patientID)
	if err != nil {
		return Grant{}, err
	}
	if !pat.IsActive {
		return Grant{}, patient.ErrNotFound
	}
	if ac.IsTherapist() && !ac.IsAdmin() && !pat.AssignedToTherapist(ac.UserID) {
		return Grant{}, patient.ErrNotFound
	}

	usr, err := svc.userRepo.GetUserByID(ctx, pat.UserID)
	if err != nil {
		return Grant{}, err
	}
	if !usr.IsActive || !usr.IsVerified {
		return Grant{}, user.ErrNotFound
	}

	rec, err := svc.patientRepo.GetHealthRecordByPatientID(ctx, pat.ID)
	if err != nil {
		return Grant{}, err
	}

	if IsReserved(achievementID) {
		return Grant{}, ErrNotFound
	}
	ach, err := svc.repo.GetAchievementByID(ctx, achievementID)
	if err != nil {
		return Grant{}, err
	}
	if !ach.IsActive {
		return Grant{}, ErrNotFound
	}

	var grant Grant
	err = core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		if _, err := svc.repo.GetGrant(ctx, ach.ID, rec.ID, tx); err == nil {
			return core.NewConflictError(ErrAlreadyGranted)
		} else if err != ErrGrantNotFound {
			return err
		}

		var cErr error
		grant, cErr = svc.repo.CreateGrant(ctx, Grant{
			AchievementID:  ach.ID,
			HealthRecordID: rec.ID,
			CreatedAt:      time.Now().UTC(),
		}, tx)
		return cErr
	})
	return grant, err
}

// QueryByPatient lists the achievements granted to a patient's health record.
func (svc *Service) QueryByPatient(ctx context.Context, ac user.AccessContext, patientID int) ([]Grant, error) {
	pat, err := svc.patientRepo.GetPatientByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if ac.IsTherapist() && !ac.IsAdmin() && !pat.AssignedToTherapist(ac.UserID) {
		return nil, patient.ErrNotFound
	}
	rec, err := svc.patientRepo.GetHealthRecordByPatientID(ctx, pat.ID)
	if err != nil {
		return nil, err
	}
	return svc.repo.QueryGrantsByHealthRecord(ctx, rec.ID)
}

// Ungrant intentionally performs no state change. The outer layer invokes an
// achievement unassignment path, but the underlying logic has never removed
// grants; the call is accepted and ignored.
func (svc *Service) Ungrant(ctx context.Context, ac user.AccessContext, patientID, achievementID int) error {
	return nil
}
