package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/aranzadi/pictotea/core"
	"github.com/aranzadi/pictotea/core/activity"
	"github.com/aranzadi/pictotea/storage/database"
)

type activityRow struct {
	ID                       int       `db:"id"`
	Name                     string    `db:"name"`
	Description              string    `db:"description"`
	SatisfactoryPointsTarget int       `db:"satisfactory_points_target"`
	SolutionSequence         string    `db:"solution_sequence"`
	PhaseID                  int       `db:"phase_id"`
	IsActive                 bool      `db:"is_active"`
	CreatedAt                time.Time `db:"created_at"`
	UpdatedAt                time.Time `db:"updated_at"`
}

func (r activityRow) model() (activity.Activity, error) {
	seq, err := activity.ParseSequence(r.SolutionSequence)
	if err != nil {
		return activity.Activity{}, err
	}
	return activity.Activity{
		ID:                       r.ID,
		Name:                     r.Name,
		Description:              r.Description,
		SatisfactoryPointsTarget: r.SatisfactoryPointsTarget,
		SolutionSequence:         seq,
		PhaseID:                  r.PhaseID,
		IsActive:                 r.IsActive,
		CreatedAt:                r.CreatedAt,
		UpdatedAt:                r.UpdatedAt,
	}, nil
}

type assignmentRow struct {
	ID                   int       `db:"id"`
	PatientID            int       `db:"patient_id"`
	ActivityID           int       `db:"activity_id"`
	Active               bool      `db:"active"`
	IsCompleted          bool      `db:"is_completed"`
	SatisfactoryAttempts int       `db:"satisfactory_attempts"`
	CreatedAt            time.Time `db:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"`
}

type activityRepository struct {
	db *database.DB
}

var (
	_ activity.Repository        = (*activityRepository)(nil) // interface compliance check
	_ activity.PatientRepository = (*patientRepository)(nil)  // interface compliance check
)

func NewActivityRepository(db *database.DB) *activityRepository {
	return &activityRepository{db: db}
}

func (repo activityRepository) CreateActivity(ctx context.Context, act activity.Activity, exec ...core.DBExecutor) (activity.Activity, error) {
	var row activityRow
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row,
		`INSERT INTO activity (name, description, satisfactory_points_target, solution_sequence, phase_id, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING *`,
		act.Name, act.Description, act.SatisfactoryPointsTarget,
		activity.EncodeSequence(act.SolutionSequence), act.PhaseID, act.IsActive,
		act.CreatedAt.UTC(), act.UpdatedAt.UTC(),
	)
	if err != nil {
		return activity.Activity{}, errors.Wrap(err, "inserting activity")
	}
	return row.model()
}

func (repo activityRepository) GetActivityByID(ctx context.Context, id int, exec ...core.DBExecutor) (activity.Activity, error) {
	var row activityRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, `SELECT * FROM activity WHERE id = $1`, id); err != nil {
		return activity.Activity{}, trapNoRowsErr(err, activity.ErrNotFound, "finding activity by ID")
	}
	return row.model()
}

func (repo activityRepository) CheckActivityUniqueness(ctx context.Context, name, description string, seq []int, excluded ...activity.Activity) error {
	checks := []struct {
		column string
		value  string
		err    error
	}{
		{"name", name, activity.ErrNameExists},
		{"description", description, activity.ErrDescriptionExists},
		{"solution_sequence", activity.EncodeSequence(seq), activity.ErrSequenceExists},
	}

	exclIDs := make([]int, 0, len(excluded))
	for _, act := range excluded {
		exclIDs = append(exclIDs, act.ID)
	}

	for _, check := range checks {
		query := `SELECT EXISTS (SELECT 1 FROM activity WHERE is_active AND ` + check.column + ` = ?`
		args := []interface{}{check.value}
		if len(exclIDs) > 0 {
			q, inArgs, err := sqlx.In(` AND id NOT IN (?)`, exclIDs)
			if err != nil {
				return errors.Wrap(err, "checking activity uniqueness")
			}
			query += q
			args = append(args, inArgs...)
		}
		query += `)`

		var exists bool
		if err := sqlx.GetContext(ctx, repo.db, &exists, repo.db.Rebind(query), args...); err != nil {
			return errors.Wrap(err, "checking activity uniqueness")
		}
		if exists {
			return check.err
		}
	}
	return nil
}

func (repo activityRepository) DeactivateActivity(ctx context.Context, id int, exec ...core.DBExecutor) error {
	_, err := getExec(repo.db, exec).ExecContext(ctx,
		`UPDATE activity SET is_active = FALSE, updated_at = $1 WHERE id = $2`, time.Now().UTC(), id)
	return errors.Wrap(err, "deactivating activity")
}

func (repo activityRepository) GetAssignment(ctx context.Context, activityID, patientID int, exec ...core.DBExecutor) (activity.Assignment, error) {
	var row assignmentRow
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row,
		`SELECT * FROM patient_activity WHERE activity_id = $1 AND patient_id = $2`, activityID, patientID)
	if err != nil {
		return activity.Assignment{}, trapNoRowsErr(err, activity.ErrAssignmentNotFound, "finding assignment")
	}
	return activity.Assignment(row), nil
}

func (repo activityRepository) GetActiveAssignment(ctx context.Context, patientID int, exec ...core.DBExecutor) (activity.Assignment, error) {
	var row assignmentRow
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row,
		`SELECT * FROM patient_activity WHERE patient_id = $1 AND active AND NOT is_completed`, patientID)
	if err != nil {
		return activity.Assignment{}, trapNoRowsErr(err, activity.ErrAssignmentNotFound, "finding active assignment")
	}
	return activity.Assignment(row), nil
}

func (repo activityRepository) CreateAssignment(ctx context.Context, asg activity.Assignment, exec ...core.DBExecutor) (activity.Assignment, error) {
	var row assignmentRow
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row,
		`INSERT INTO patient_activity (patient_id, activity_id, active, is_completed, satisfactory_attempts, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING *`,
		asg.PatientID, asg.ActivityID, asg.Active, asg.IsCompleted, asg.SatisfactoryAttempts,
		asg.CreatedAt.UTC(), asg.UpdatedAt.UTC(),
	)
	if err != nil {
		return activity.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return activity.Assignment(row), nil
}

func (repo activityRepository) UpdateAssignment(ctx context.Context, asg activity.Assignment, exec ...core.DBExecutor) (activity.Assignment, error) {
	var row assignmentRow
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row,
		`UPDATE patient_activity
		 SET active = $1, is_completed = $2, satisfactory_attempts = $3, updated_at = $4
		 WHERE id = $5
		 RETURNING *`,
		asg.Active, asg.IsCompleted, asg.SatisfactoryAttempts, asg.UpdatedAt.UTC(), asg.ID,
	)
	if err != nil {
		return activity.Assignment{}, trapNoRowsErr(err, activity.ErrAssignmentNotFound, "updating assignment")
	}
	return activity.Assignment(row), nil
}

func (repo activityRepository) DeactivateAssignmentsByActivity(ctx context.Context, activityID int, exec ...core.DBExecutor) error {
	_, err := getExec(repo.db, exec).ExecContext(ctx,
		`UPDATE patient_activity SET active = FALSE, updated_at = $1
		 WHERE activity_id = $2 AND active AND NOT is_completed`,
		time.Now().UTC(), activityID)
	return errors.Wrap(err, "deactivating assignments")
}

func (repo activityRepository) CountPhaseCompletions(ctx context.Context, patientID, phaseID int) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, repo.db, &count,
		`SELECT COUNT(*) FROM patient_activity pa
		 JOIN activity a ON a.id = pa.activity_id
		 WHERE pa.patient_id = $1 AND pa.active AND pa.is_completed AND a.phase_id = $2`,
		patientID, phaseID)
	return count, errors.Wrap(err, "counting phase completions")
}
