package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/aranzadi/pictotea/core"
	"github.com/aranzadi/pictotea/core/achievement"
	"github.com/aranzadi/pictotea/storage/database"
)

type achievementRow struct {
	ID        int       `db:"id"`
	Name      string    `db:"name"`
	ImageURL  string    `db:"image_url"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type grantRow struct {
	ID             int       `db:"id"`
	AchievementID  int       `db:"achievement_id"`
	HealthRecordID int       `db:"health_record_id"`
	CreatedAt      time.Time `db:"created_at"`
}

type achievementRepository struct {
	db *database.DB
}

var (
	_ achievement.Repository        = (*achievementRepository)(nil) // interface compliance check
	_ achievement.PatientRepository = (*patientRepository)(nil)     // interface compliance check
	_ achievement.UserRepository    = (*userRepository)(nil)        // interface compliance check
)

func NewAchievementRepository(db *database.DB) *achievementRepository {
	return &achievementRepository{db: db}
}

// CreateAchievement inserts a badge; fixtures carry their reserved IDs, manual
// creations let the sequence pick one.
func (repo achievementRepository) CreateAchievement(ctx context.Context, ach achievement.Achievement, exec ...core.DBExecutor) (achievement.Achievement, error) {
	ex := getExec(repo.db, exec)
	now := time.Now().UTC()

	var row achievementRow
	var err error
	if ach.ID != 0 {
		err = sqlx.GetContext(ctx, ex, &row,
			`INSERT INTO achievement (id, name, image_url, is_active, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO UPDATE SET name = $2, image_url = $3, is_active = $4, updated_at = $6
			 RETURNING *`,
			ach.ID, ach.Name, ach.ImageURL, ach.IsActive, now, now)
	} else {
		err = sqlx.GetContext(ctx, ex, &row,
			`INSERT INTO achievement (name, image_url, is_active, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING *`,
			ach.Name, ach.ImageURL, ach.IsActive, now, now)
	}
	if err != nil {
		return achievement.Achievement{}, errors.Wrap(err, "inserting achievement")
	}
	return achievement.Achievement(row), nil
}

func (repo achievementRepository) GetAchievementByID(ctx context.Context, id int, exec ...core.DBExecutor) (achievement.Achievement, error) {
	var row achievementRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, `SELECT * FROM achievement WHERE id = $1`, id); err != nil {
		return achievement.Achievement{}, trapNoRowsErr(err, achievement.ErrNotFound, "finding achievement by ID")
	}
	return achievement.Achievement(row), nil
}

func (repo achievementRepository) GetGrant(ctx context.Context, achievementID, healthRecordID int, exec ...core.DBExecutor) (achievement.Grant, error) {
	var row grantRow
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row,
		`SELECT * FROM achievement_health_record WHERE achievement_id = $1 AND health_record_id = $2`,
		achievementID, healthRecordID)
	if err != nil {
		return achievement.Grant{}, trapNoRowsErr(err, achievement.ErrGrantNotFound, "finding achievement grant")
	}
	return achievement.Grant(row), nil
}

func (repo achievementRepository) CreateGrant(ctx context.Context, grant achievement.Grant, exec ...core.DBExecutor) (achievement.Grant, error) {
	var row grantRow
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row,
		`INSERT INTO achievement_health_record (achievement_id, health_record_id, created_at)
		 VALUES ($1, $2, $3)
		 RETURNING *`,
		grant.AchievementID, grant.HealthRecordID, grant.CreatedAt.UTC())
	if err != nil {
		return achievement.Grant{}, errors.Wrap(err, "inserting achievement grant")
	}
	return achievement.Grant(row), nil
}

func (repo achievementRepository) QueryGrantsByHealthRecord(ctx context.Context, healthRecordID int) ([]achievement.Grant, error) {
	var rows []grantRow
	err := sqlx.SelectContext(ctx, repo.db, &rows,
		`SELECT * FROM achievement_health_record WHERE health_record_id = $1 ORDER BY created_at ASC`, healthRecordID)
	if err != nil {
		return nil, errors.Wrap(err, "querying achievement grants")
	}
	grants := make([]achievement.Grant, 0, len(rows))
	for _, row := range rows {
		grants = append(grants, achievement.Grant(row))
	}
	return grants, nil
}
