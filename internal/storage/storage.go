package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/erp-portal/internal/models"
	"github.com/hongminglow/erp-portal/internal/models/dto"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore captures account persistence operations needed by handlers.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// EmployeeStore exposes the HR records user accounts link to.
type EmployeeStore interface {
	FindEmployee(ctx context.Context, id int64) (models.Employee, error)
	// AvailableEmployees lists employees without a linked user account.
	AvailableEmployees(ctx context.Context) ([]models.Employee, error)
}

// ClientStore persists customer accounts.
type ClientStore interface {
	SearchClients(ctx context.Context, req dto.ClientSearchRequest) ([]models.Client, int, error)
	CreateClient(ctx context.Context, client models.Client) (models.Client, error)
	DeleteClient(ctx context.Context, id int64) error
}

// Store is the full persistence surface the API is built on.
type Store interface {
	UserStore
	EmployeeStore
	ClientStore
	Close()
}
