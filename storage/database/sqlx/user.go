package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/aranzadi/pictotea/core"
	"github.com/aranzadi/pictotea/core/user"
	"github.com/aranzadi/pictotea/storage/database"
)

type userRow struct {
	ID           int            `db:"id"`
	Name         string         `db:"name"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	IsVerified   bool           `db:"is_verified"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

func (r userRow) model() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email,
		IsVerified:   r.IsVerified,
		IsActive:     r.IsActive,
		Roles:        r.Roles,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
}

type userRepository struct {
	db *database.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *database.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	query := `SELECT username, email FROM "user" WHERE (username = $1 OR email = $2)`
	args := []interface{}{username, email}
	if len(excludedUsers) > 0 {
		ids := make(pq.Int64Array, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, int64(u.ID))
		}
		query += ` AND NOT (id = ANY($3))`
		args = append(args, ids)
	}

	var rows []userRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, query, args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, row := range rows {
		if row.Username == username {
			return user.ErrUsernameExists
		}
	}
	if len(rows) > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row,
		`INSERT INTO "user" (name, username, email, is_verified, is_active, roles, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING *`,
		usr.Name, usr.Username, usr.Email, usr.IsVerified, usr.IsActive,
		pq.StringArray(usr.Roles), usr.PasswordHash, usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(),
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return row.model(), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	var row userRow
	if err := sqlx.GetContext(ctx, repo.db, &row, `SELECT * FROM "user" WHERE id = $1`, id); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by ID")
	}
	return row.model(), nil
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, repo.db, &row,
		`SELECT * FROM "user" WHERE username = $1 OR email = $1`, username)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by username or email")
	}
	return row.model(), nil
}

func (repo userRepository) SetLastLogin(ctx context.Context, usr user.User) (user.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, repo.db, &row,
		`UPDATE "user" SET last_login = $1 WHERE id = $2 RETURNING *`,
		null.TimeFrom(usr.LastLogin.UTC()), usr.ID)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "setting lastLogin")
	}
	return row.model(), nil
}
