package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ZLoganZ/SocialNetwork-Server/internal/domain"
)

var _ UserRepository = (*PostgresUserRepo)(nil)

// PostgresUserRepo implements UserRepository on a pgx pool.
type PostgresUserRepo struct {
	db *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{db: pool}
}

const userColumns = `id, email, first_name, last_name, password_hash, session_token, avatar_url, email_verified, role, created_at, updated_at`

func (r *PostgresUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row, "get user by email")
}

func (r *PostgresUserRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row, "get user by id")
}

const insertUserSQL = `INSERT INTO users (id, email, first_name, last_name, password_hash, session_token, avatar_url, email_verified, role)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + userColumns

func (r *PostgresUserRepo) Insert(ctx context.Context, user domain.User) (domain.User, error) {
	row := r.db.QueryRow(ctx, insertUserSQL,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.SessionToken,
		user.AvatarURL,
		user.EmailVerified,
		user.Role,
	)
	inserted, err := scanUser(row, "insert user")
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.User{}, domain.E(domain.KindConflict, "Email already exists!")
		}
		return domain.User{}, err
	}
	return inserted, nil
}

func (r *PostgresUserRepo) UpdateSessionToken(ctx context.Context, userID int64, token string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET session_token = $2, updated_at = now() WHERE id = $1`, userID, token)
	if err != nil {
		return fmt.Errorf("update session token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.E(domain.KindNotFound, "User does not exist!")
	}
	return nil
}

func (r *PostgresUserRepo) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $2, session_token = '', updated_at = now() WHERE id = $1`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.E(domain.KindNotFound, "User does not exist!")
	}
	return nil
}

func scanUser(row pgx.Row, op string) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.PasswordHash,
		&u.SessionToken,
		&u.AvatarURL,
		&u.EmailVerified,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.E(domain.KindNotFound, "User does not exist!")
		}
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
