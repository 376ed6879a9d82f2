package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/go-blog-api/app/db"
	"github.com/FACorreiaa/go-blog-api/internal/types"
)

var _ types.UserRepository = (*PostgresUserRepo)(nil)

const userColumns = `id, email, username, password_hash, role,
       refresh_token, refresh_token_expires_at, is_active, created_at, updated_at`

// PostgresUserRepo persists users. It runs against the pool by default; the
// unit of work rebinds it to an open transaction through WithTx.
type PostgresUserRepo struct {
	logger *slog.Logger
	db     database.Querier
}

func NewPostgresUserRepo(db database.Querier, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		db:     db,
	}
}

// WithTx returns a copy of the repository whose queries run on tx.
func (r *PostgresUserRepo) WithTx(tx pgx.Tx) types.UserRepository {
	return &PostgresUserRepo{
		logger: r.logger,
		db:     tx,
	}
}

func (r *PostgresUserRepo) scanUser(row pgx.Row) (*types.User, error) {
	var u types.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&u.Role,
		&u.RefreshToken,
		&u.RefreshTokenExpiresAt,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}
	return &u, nil
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*types.User, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "FindByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns)
	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*types.User, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "FindByEmail", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM users WHERE LOWER(email) = LOWER($1)", userColumns)
	return r.scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *PostgresUserRepo) FindByUsername(ctx context.Context, username string) (*types.User, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "FindByUsername", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM users WHERE username = $1", userColumns)
	return r.scanUser(r.db.QueryRow(ctx, query, username))
}

func (r *PostgresUserRepo) FindByRefreshToken(ctx context.Context, refreshToken string) (*types.User, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "FindByRefreshToken", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM users WHERE refresh_token = $1", userColumns)
	return r.scanUser(r.db.QueryRow(ctx, query, refreshToken))
}

func (r *PostgresUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "EmailExists", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	var exists bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))", email).Scan(&exists)
	if err != nil {
		span.SetStatus(codes.Error, "query failed")
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

func (r *PostgresUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "UsernameExists", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	var exists bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)", username).Scan(&exists)
	if err != nil {
		span.SetStatus(codes.Error, "query failed")
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}
	return exists, nil
}

// FindActiveUsersPaginated lists active users newest first. The count and the
// page are read in sequence; listing is not transactional.
func (r *PostgresUserRepo) FindActiveUsersPaginated(ctx context.Context, page, pageSize int) (types.PaginatedResult[types.User], error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "FindActiveUsersPaginated", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "users"),
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
	))
	defer span.End()

	var zero types.PaginatedResult[types.User]

	var total int64
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users WHERE is_active = TRUE").Scan(&total)
	if err != nil {
		span.SetStatus(codes.Error, "count failed")
		return zero, fmt.Errorf("failed to count active users: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM users
		WHERE is_active = TRUE
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, userColumns)

	rows, err := r.db.Query(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		span.SetStatus(codes.Error, "query failed")
		return zero, fmt.Errorf("failed to list active users: %w", err)
	}
	defer rows.Close()

	var users []types.User
	for rows.Next() {
		var u types.User
		err := rows.Scan(
			&u.ID,
			&u.Email,
			&u.Username,
			&u.PasswordHash,
			&u.Role,
			&u.RefreshToken,
			&u.RefreshTokenExpiresAt,
			&u.IsActive,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
		if err != nil {
			return zero, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return zero, fmt.Errorf("failed iterating user rows: %w", err)
	}

	return types.NewPaginatedResult(users, total, page, pageSize), nil
}

func (r *PostgresUserRepo) Create(ctx context.Context, user *types.User) error {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "Create", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "users"),
		attribute.String("db.user.id", user.ID),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "Create"), slog.String("userID", user.ID))

	query := `
		INSERT INTO users (id, email, username, password_hash, role,
		                   refresh_token, refresh_token_expires_at, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.RefreshToken,
		user.RefreshTokenExpiresAt,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		span.SetStatus(codes.Error, "insert failed")
		l.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepo) Update(ctx context.Context, user *types.User) error {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "Update", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "users"),
		attribute.String("db.user.id", user.ID),
	))
	defer span.End()

	query := `
		UPDATE users
		SET email = $2, username = $3, password_hash = $4, role = $5,
		    refresh_token = $6, refresh_token_expires_at = $7, is_active = $8, updated_at = $9
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.RefreshToken,
		user.RefreshTokenExpiresAt,
		user.IsActive,
		user.UpdatedAt,
	)
	if err != nil {
		span.SetStatus(codes.Error, "update failed")
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update user %s: no rows affected", user.ID)
	}
	return nil
}

func (r *PostgresUserRepo) Delete(ctx context.Context, id string) error {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "Delete", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.sql.table", "users"),
		attribute.String("db.user.id", id),
	))
	defer span.End()

	tag, err := r.db.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		span.SetStatus(codes.Error, "delete failed")
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete user %s: no rows affected", id)
	}
	return nil
}
