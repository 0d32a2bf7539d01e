package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/aranzadi/pictotea/core"
	"github.com/aranzadi/pictotea/core/patient"
	"github.com/aranzadi/pictotea/storage/database"
)

type patientRow struct {
	ID        int       `db:"id"`
	UserID    int       `db:"user_id"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type healthRecordRow struct {
	ID             int       `db:"id"`
	PatientID      int       `db:"patient_id"`
	CurrentPhaseID int       `db:"current_phase_id"`
	TEADegreeID    int       `db:"tea_degree_id"`
	Observations   string    `db:"observations"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

type phaseRow struct {
	ID                    int    `db:"id"`
	Name                  string `db:"name"`
	Description           string `db:"description"`
	ScoreActivitiesTarget int    `db:"score_activities_target"`
}

type patientRepository struct {
	db *database.DB
}

var _ patient.Repository = (*patientRepository)(nil) // interface compliance check

func NewPatientRepository(db *database.DB) *patientRepository {
	return &patientRepository{db: db}
}

func (repo patientRepository) GetPatientByID(ctx context.Context, id int) (patient.Patient, error) {
	var row patientRow
	if err := sqlx.GetContext(ctx, repo.db, &row, `SELECT * FROM patient WHERE id = $1`, id); err != nil {
		return patient.Patient{}, trapNoRowsErr(err, patient.ErrNotFound, "finding patient by ID")
	}

	var therapistIDs pq.Int64Array
	err := sqlx.GetContext(ctx, repo.db, &therapistIDs,
		`SELECT COALESCE(ARRAY_AGG(therapist_id), '{}') FROM patient_therapist WHERE patient_id = $1`, id)
	if err != nil {
		return patient.Patient{}, errors.Wrap(err, "finding patient therapists")
	}
	ids := make([]int, 0, len(therapistIDs))
	for _, tid := range therapistIDs {
		ids = append(ids, int(tid))
	}

	return patient.Patient{
		ID:           row.ID,
		UserID:       row.UserID,
		TherapistIDs: ids,
		IsActive:     row.IsActive,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}

func (repo patientRepository) GetHealthRecordByPatientID(ctx context.Context, patientID int) (patient.HealthRecord, error) {
	var row healthRecordRow
	err := sqlx.GetContext(ctx, repo.db, &row, `SELECT * FROM health_record WHERE patient_id = $1`, patientID)
	if err != nil {
		return patient.HealthRecord{}, trapNoRowsErr(err, patient.ErrHealthRecordNotFound, "finding health record")
	}
	return patient.HealthRecord(row), nil
}

func (repo patientRepository) QueryAllPhases(ctx context.Context) ([]patient.Phase, error) {
	var rows []phaseRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, `SELECT * FROM phase ORDER BY id ASC`); err != nil {
		return nil, errors.Wrap(err, "querying phases")
	}
	phases := make([]patient.Phase, 0, len(rows))
	for _, row := range rows {
		phases = append(phases, patient.Phase(row))
	}
	return phases, nil
}

func (repo patientRepository) GetPhaseByID(ctx context.Context, id int) (patient.Phase, error) {
	var row phaseRow
	if err := sqlx.GetContext(ctx, repo.db, &row, `SELECT * FROM phase WHERE id = $1`, id); err != nil {
		return patient.Phase{}, trapNoRowsErr(err, patient.ErrPhaseNotFound, "finding phase by ID")
	}
	return patient.Phase(row), nil
}

// CreatePatient is used by seeding and provisioning flows; patient CRUD has no
// service of its own.
func (repo patientRepository) CreatePatient(ctx context.Context, pat patient.Patient, exec ...core.DBExecutor) (patient.Patient, error) {
	ex := getExec(repo.db, exec)

	var row patientRow
	now := time.Now().UTC()
	err := sqlx.GetContext(ctx, ex, &row,
		`INSERT INTO patient (user_id, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4) RETURNING *`,
		pat.UserID, pat.IsActive, now, now)
	if err != nil {
		return patient.Patient{}, errors.Wrap(err, "inserting patient")
	}
	for _, tid := range pat.TherapistIDs {
		if _, err = ex.ExecContext(ctx,
			`INSERT INTO patient_therapist (patient_id, therapist_id) VALUES ($1, $2)`, row.ID, tid); err != nil {
			return patient.Patient{}, errors.Wrap(err, "inserting patient therapist")
		}
	}

	pat.ID = row.ID
	pat.CreatedAt = row.CreatedAt
	pat.UpdatedAt = row.UpdatedAt
	return pat, nil
}

func (repo patientRepository) CreateHealthRecord(ctx context.Context, rec patient.HealthRecord, exec ...core.DBExecutor) (patient.HealthRecord, error) {
	var row healthRecordRow
	now := time.Now().UTC()
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row,
		`INSERT INTO health_record (patient_id, current_phase_id, tea_degree_id, observations, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING *`,
		rec.PatientID, rec.CurrentPhaseID, rec.TEADegreeID, rec.Observations, now, now)
	if err != nil {
		return patient.HealthRecord{}, errors.Wrap(err, "inserting health record")
	}
	return patient.HealthRecord(row), nil
}

func (repo patientRepository) CreatePhase(ctx context.Context, ph patient.Phase, exec ...core.DBExecutor) (patient.Phase, error) {
	var row phaseRow
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row,
		`INSERT INTO phase (id, name, description, score_activities_target)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET name = $2, description = $3, score_activities_target = $4
		 RETURNING *`,
		ph.ID, ph.Name, ph.Description, ph.ScoreActivitiesTarget)
	if err != nil {
		return patient.Phase{}, errors.Wrap(err, "inserting phase")
	}
	return patient.Phase(row), nil
}
