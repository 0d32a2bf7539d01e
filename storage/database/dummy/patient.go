package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/aranzadi/pictotea/core"
	"github.com/aranzadi/pictotea/core/patient"
)

type patientRepository struct {
	db *DB
}

var _ patient.Repository = (*patientRepository)(nil) // interface compliance check

func NewPatientRepository(db *DB) *patientRepository {
	return &patientRepository{db: db}
}

func (repo *patientRepository) GetPatientByID(ctx context.Context, id int) (patient.Patient, error) {
	defer repo.db.rlock(nil)()

	if pat, ok := repo.db.patients[id]; ok {
		return *pat, nil
	}
	return patient.Patient{}, patient.ErrNotFound
}

func (repo *patientRepository) GetHealthRecordByPatientID(ctx context.Context, patientID int) (patient.HealthRecord, error) {
	defer repo.db.rlock(nil)()

	for _, rec := range repo.db.healthRecords {
		if rec.PatientID == patientID {
			return *rec, nil
		}
	}
	return patient.HealthRecord{}, patient.ErrHealthRecordNotFound
}

func (repo *patientRepository) QueryAllPhases(ctx context.Context) ([]patient.Phase, error) {
	defer repo.db.rlock(nil)()

	phases := make([]patient.Phase, 0, len(repo.db.phases))
	for _, ph := range repo.db.phases {
		phases = append(phases, *ph)
	}
	sort.Slice(phases, func(i, j int) bool { return phases[i].ID < phases[j].ID })
	return phases, nil
}

func (repo *patientRepository) GetPhaseByID(ctx context.Context, id int) (patient.Phase, error) {
	defer repo.db.rlock(nil)()

	if ph, ok := repo.db.phases[id]; ok {
		return *ph, nil
	}
	return patient.Phase{}, patient.ErrPhaseNotFound
}

func (repo *patientRepository) CreatePatient(ctx context.Context, pat patient.Patient, exec ...core.DBExecutor) (patient.Patient, error) {
	defer repo.db.lock(exec)()

	now := time.Now().UTC()
	pat.ID = repo.db.nextPK("patient")
	pat.CreatedAt = now
	pat.UpdatedAt = now
	repo.db.patients[pat.ID] = &pat
	return pat, nil
}

func (repo *patientRepository) CreateHealthRecord(ctx context.Context, rec patient.HealthRecord, exec ...core.DBExecutor) (patient.HealthRecord, error) {
	defer repo.db.lock(exec)()

	now := time.Now().UTC()
	rec.ID = repo.db.nextPK("health_record")
	rec.CreatedAt = now
	rec.UpdatedAt = now
	repo.db.healthRecords[rec.ID] = &rec
	return rec, nil
}

func (repo *patientRepository) CreatePhase(ctx context.Context, ph patient.Phase, exec ...core.DBExecutor) (patient.Phase, error) {
	defer repo.db.lock(exec)()

	if ph.ID == 0 {
		ph.ID = repo.db.nextPK("phase")
	}
	repo.db.phases[ph.ID] = &ph
	return ph, nil
}
