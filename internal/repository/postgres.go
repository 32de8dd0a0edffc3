package repository

import (
	"context"
	"errors"
	"fmt"

	"filedrop-backend/internal/logger"
	"filedrop-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresStore implements Store on top of a pgx connection pool.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore opens the connection pool and checks connectivity.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("could not ping database: %w", err)
	}

	logger.LogV("PostgreSQL connection pool established.")
	return &PostgresStore{db: pool}, nil
}

// Close closes the pool.
func (s *PostgresStore) Close() {
	s.db.Close()
}

// Ping performs one round trip to the database.
func (s *PostgresStore) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// --- UserStore ---

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	sql := `
        INSERT INTO users (username, password)
        VALUES ($1, $2)
        RETURNING id, created_at`

	err := s.db.QueryRow(ctx, sql, user.Username, user.PasswordHash).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	sql := `
        SELECT id, username, password, created_at
        FROM users
        WHERE username = $1`

	user := &models.User{}
	err := s.db.QueryRow(ctx, sql, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	sql := `
        SELECT id, username, password, created_at
        FROM users
        WHERE id = $1`

	user := &models.User{}
	err := s.db.QueryRow(ctx, sql, id).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

// --- FileStore ---

func (s *PostgresStore) CreateFile(ctx context.Context, file *models.File) error {
	sql := `
        INSERT INTO files (id, name, created_at, path, size, is_downloadable, owner_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.Exec(ctx, sql,
		file.ID,
		file.Name,
		file.CreatedAt,
		file.Path,
		file.Size,
		file.IsDownloadable,
		file.OwnerID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return ErrUnknownOwner
		}
		return fmt.Errorf("failed to create file: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetFilesByOwnerID(ctx context.Context, ownerID int64) ([]*models.File, error) {
	sql := `
        SELECT id, name, created_at, path, size, is_downloadable, owner_id
        FROM files
        WHERE owner_id = $1
        ORDER BY created_at ASC, id ASC`

	rows, err := s.db.Query(ctx, sql, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	// Empty slice rather than nil so the JSON list is [] instead of null.
	files := []*models.File{}

	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file row: %w", err)
		}
		files = append(files, file)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating files: %w", err)
	}

	return files, nil
}

func (s *PostgresStore) GetFileByID(ctx context.Context, id uuid.UUID) (*models.File, error) {
	sql := `
        SELECT id, name, created_at, path, size, is_downloadable, owner_id
        FROM files
        WHERE id = $1`

	file, err := scanFile(s.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get file by id: %w", err)
	}
	return file, nil
}

func (s *PostgresStore) GetFileByPath(ctx context.Context, ownerID int64, path string) (*models.File, error) {
	sql := `
        SELECT id, name, created_at, path, size, is_downloadable, owner_id
        FROM files
        WHERE owner_id = $1 AND path = $2
        ORDER BY created_at DESC
        LIMIT 1`

	file, err := scanFile(s.db.QueryRow(ctx, sql, ownerID, path))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get file by path: %w", err)
	}
	return file, nil
}

func scanFile(row pgx.Row) (*models.File, error) {
	file := &models.File{}
	err := row.Scan(
		&file.ID,
		&file.Name,
		&file.CreatedAt,
		&file.Path,
		&file.Size,
		&file.IsDownloadable,
		&file.OwnerID,
	)
	if err != nil {
		return nil, err
	}
	return file, nil
}
