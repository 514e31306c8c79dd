package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/platebook/platebook-go/internal/model"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateUsername = errors.New("username already exists")
)

// UserRepository handles user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByIDAndEmail(ctx context.Context, id int64, email string) (*model.User, error)
	EmailInUse(ctx context.Context, email string, excludeID int64) (bool, error)
	UpdateProfile(ctx context.Context, id int64, changes model.ProfileChanges) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Delete(ctx context.Context, id int64) error
}

// PostgresUserRepository is the PostgreSQL-backed UserRepository.
type PostgresUserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a PostgreSQL-backed UserRepository.
func NewUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const userColumns = `id, username, name, email, password_hash, role, COALESCE(avatar_url, ''), created_at, updated_at`

func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.Name, &user.Email, &user.PasswordHash,
		&user.Role, &user.AvatarURL, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Create inserts a new user and fills in the generated ID and timestamps.
func (r *PostgresUserRepository) Create(ctx context.Context, user *model.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO users (username, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Name, user.Email, user.PasswordHash, user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err, "users_email_key"):
			return ErrDuplicateEmail
		case isUniqueViolation(err, "users_username_key"):
			return ErrDuplicateUsername
		}
		return err
	}
	return nil
}

// GetByID retrieves a user by their ID.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by their email address.
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// GetByIDAndEmail retrieves a user whose ID and email both match. The
// refresh flow uses it so a token minted before an email change cannot
// be redeemed.
func (r *PostgresUserRepository) GetByIDAndEmail(ctx context.Context, id int64, email string) (*model.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND email = $2`
	return scanUser(r.db.QueryRowContext(ctx, query, id, email))
}

// EmailInUse reports whether another user already has the given email.
func (r *PostgresUserRepository) EmailInUse(ctx context.Context, email string, excludeID int64) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var count int
	query := `SELECT COUNT(*) FROM users WHERE email = $1 AND id != $2`
	if err := r.db.QueryRowContext(ctx, query, email, excludeID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateProfile applies the non-empty changes to a user row and returns
// the updated row. Concurrent updates resolve last-write-wins.
func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, id int64, changes model.ProfileChanges) (*model.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query, args := buildProfileUpdate(id, changes)
	return scanUser(r.db.QueryRowContext(ctx, query, args...))
}

// List retrieves all users, newest first.
func (r *PostgresUserRepository) List(ctx context.Context) ([]model.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID, &u.Username, &u.Name, &u.Email, &u.PasswordHash,
			&u.Role, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Delete removes a user row. Recipes owned by the user cascade.
func (r *PostgresUserRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// buildProfileUpdate assembles the dynamic UPDATE for a profile change,
// binding only the fields that are set. updated_at always advances.
func buildProfileUpdate(id int64, changes model.ProfileChanges) (string, []any) {
	query := `UPDATE users SET `
	var args []any

	appendSet := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		query += column + ` = $` + strconv.Itoa(len(args)) + `, `
	}

	appendSet("name", changes.Name)
	appendSet("email", changes.Email)
	appendSet("avatar_url", changes.AvatarURL)
	appendSet("password_hash", changes.PasswordHash)

	args = append(args, id)
	query += `updated_at = NOW() WHERE id = $` + strconv.Itoa(len(args)) +
		` RETURNING ` + userColumns
	return query, args
}

// isUniqueViolation reports whether err is a PostgreSQL unique violation
// (SQLSTATE 23505) on the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
	}
	return false
}
