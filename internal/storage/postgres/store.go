package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hongminglow/erp-portal/internal/models"
	"github.com/hongminglow/erp-portal/internal/models/dto"
	"github.com/hongminglow/erp-portal/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store provides Postgres-backed persistence for accounts, employees and clients.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store and runs migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS employees (
			id BIGSERIAL PRIMARY KEY,
			matricule TEXT UNIQUE NOT NULL,
			full_name TEXT NOT NULL,
			department TEXT NOT NULL DEFAULT '',
			position TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			role TEXT NOT NULL,
			employee_id BIGINT UNIQUE REFERENCES employees(id),
			password_hash TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_username_lower_idx ON users (LOWER(username));`,
		`CREATE TABLE IF NOT EXISTS clients (
			id BIGSERIAL PRIMARY KEY,
			code TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS clients_name_idx ON clients (LOWER(name));`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

const userColumns = `id, username, role, employee_id, password_hash, is_active, created_at`

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (username, role, employee_id, password_hash, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING ` + userColumns
	row := s.pool.QueryRow(ctx, query, user.Username, user.Role, user.EmployeeID, user.PasswordHash)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// FindByID fetches a user by primary key.
func (s *Store) FindByID(ctx context.Context, id int64) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindByUsername fetches a user by username, case-insensitively.
func (s *Store) FindByUsername(ctx context.Context, username string) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1)`, username)
	return scanUser(row)
}

// UsernameExists reports whether any account already uses username.
func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(username) = LOWER($1))`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return exists, nil
}

// UpdatePassword replaces the stored password hash of a user.
func (s *Store) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// FindEmployee fetches one employee record.
func (s *Store) FindEmployee(ctx context.Context, id int64) (models.Employee, error) {
	var e models.Employee
	err := s.pool.QueryRow(ctx, `SELECT id, matricule, full_name, department, position FROM employees WHERE id = $1`, id).
		Scan(&e.ID, &e.Matricule, &e.FullName, &e.Department, &e.Position)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Employee{}, storage.ErrNotFound
		}
		return models.Employee{}, err
	}
	return e, nil
}

// AvailableEmployees lists employees no user account is linked to.
func (s *Store) AvailableEmployees(ctx context.Context) ([]models.Employee, error) {
	const query = `
	SELECT e.id, e.matricule, e.full_name, e.department, e.position
	FROM employees e
	LEFT JOIN users u ON u.employee_id = e.id
	WHERE u.id IS NULL
	ORDER BY e.full_name;
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list available employees: %w", err)
	}
	defer rows.Close()

	var out []models.Employee
	for rows.Next() {
		var e models.Employee
		if err := rows.Scan(&e.ID, &e.Matricule, &e.FullName, &e.Department, &e.Position); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

var clientSortSQL = map[string]string{
	"name":      "name",
	"code":      "code",
	"city":      "city",
	"createdAt": "created_at",
}

// SearchClients returns one page of clients matching the filters and the total match count.
func (s *Store) SearchClients(ctx context.Context, req dto.ClientSearchRequest) ([]models.Client, int, error) {
	req.Normalize(dto.ClientSortColumns...)

	var (
		where []string
		args  []any
	)
	if req.SearchTerm != "" {
		args = append(args, "%"+strings.ToLower(req.SearchTerm)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(code) LIKE $%d OR LOWER(email) LIKE $%d)", n, n, n))
	}
	if city := strings.TrimSpace(req.City); city != "" {
		args = append(args, city)
		where = append(where, fmt.Sprintf("LOWER(city) = LOWER($%d)", len(args)))
	}
	if req.IsActive != nil {
		args = append(args, *req.IsActive)
		where = append(where, fmt.Sprintf("is_active = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM clients "+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}

	order := clientSortSQL[req.SortBy] + " " + strings.ToUpper(req.SortDirection) + ", id"
	args = append(args, req.PageSize, req.Offset())
	query := fmt.Sprintf(
		"SELECT id, code, name, email, phone, city, is_active, created_at FROM clients %s ORDER BY %s LIMIT $%d OFFSET $%d",
		clause, order, len(args)-1, len(args),
	)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search clients: %w", err)
	}
	defer rows.Close()

	var out []models.Client
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Email, &c.Phone, &c.City, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// CreateClient inserts a client row.
func (s *Store) CreateClient(ctx context.Context, c models.Client) (models.Client, error) {
	const query = `
		INSERT INTO clients (code, name, email, phone, city, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING id, code, name, email, phone, city, is_active, created_at`
	var out models.Client
	err := s.pool.QueryRow(ctx, query, c.Code, c.Name, c.Email, c.Phone, c.City).
		Scan(&out.ID, &out.Code, &out.Name, &out.Email, &out.Phone, &out.City, &out.IsActive, &out.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Client{}, storage.ErrAlreadyExists
		}
		return models.Client{}, err
	}
	return out, nil
}

// DeleteClient hard-deletes a client.
func (s *Store) DeleteClient(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Role, &user.EmployeeID, &user.PasswordHash, &user.IsActive, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
