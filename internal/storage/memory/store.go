// Package memory implements storage.Store in process memory. It backs the
// server when no DATABASE_URL is configured and the handler tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hongminglow/erp-portal/internal/models"
	"github.com/hongminglow/erp-portal/internal/models/dto"
	"github.com/hongminglow/erp-portal/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	mu        sync.RWMutex
	users     map[int64]models.User
	employees map[int64]models.Employee
	clients   map[int64]models.Client
	nextUser  int64
	nextEmp   int64
	nextCli   int64
	now       func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:     make(map[int64]models.User),
		employees: make(map[int64]models.Employee),
		clients:   make(map[int64]models.Client),
		now:       time.Now,
	}
}

func (s *Store) Close() {}

// AddEmployee registers an HR record and returns it with its assigned id.
func (s *Store) AddEmployee(e models.Employee) models.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEmp++
	e.ID = s.nextEmp
	s.employees[e.ID] = e
	return e
}

func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, user.Username) {
			return models.User{}, storage.ErrAlreadyExists
		}
		if user.EmployeeID != nil && u.EmployeeID != nil && *u.EmployeeID == *user.EmployeeID {
			return models.User{}, storage.ErrAlreadyExists
		}
	}
	s.nextUser++
	user.ID = s.nextUser
	user.IsActive = true
	user.CreatedAt = s.now().UTC()
	s.users[user.ID] = user
	return user, nil
}

func (s *Store) FindByID(_ context.Context, id int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *Store) FindByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := s.FindByUsername(ctx, username)
	if err == storage.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.PasswordHash = passwordHash
	s.users[id] = u
	return nil
}

func (s *Store) FindEmployee(_ context.Context, id int64) (models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[id]
	if !ok {
		return models.Employee{}, storage.ErrNotFound
	}
	return e, nil
}

func (s *Store) AvailableEmployees(_ context.Context) ([]models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	linked := make(map[int64]bool, len(s.users))
	for _, u := range s.users {
		if u.EmployeeID != nil {
			linked[*u.EmployeeID] = true
		}
	}
	var out []models.Employee
	for id, e := range s.employees {
		if !linked[id] {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (s *Store) SearchClients(_ context.Context, req dto.ClientSearchRequest) ([]models.Client, int, error) {
	req.Normalize(dto.ClientSortColumns...)

	s.mu.RLock()
	matched := make([]models.Client, 0, len(s.clients))
	term := strings.ToLower(req.SearchTerm)
	for _, c := range s.clients {
		if term != "" &&
			!strings.Contains(strings.ToLower(c.Name), term) &&
			!strings.Contains(strings.ToLower(c.Code), term) &&
			!strings.Contains(strings.ToLower(c.Email), term) {
			continue
		}
		if city := strings.TrimSpace(req.City); city != "" && !strings.EqualFold(c.City, city) {
			continue
		}
		if req.IsActive != nil && c.IsActive != *req.IsActive {
			continue
		}
		matched = append(matched, c)
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		less, equal := compareClients(matched[i], matched[j], req.SortBy)
		if equal {
			return matched[i].ID < matched[j].ID
		}
		if req.SortDirection == dto.SortDesc {
			return !less
		}
		return less
	})

	total := len(matched)
	start := req.Offset()
	if start > total {
		start = total
	}
	end := start + req.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func compareClients(a, b models.Client, column string) (less, equal bool) {
	switch column {
	case "code":
		return a.Code < b.Code, a.Code == b.Code
	case "city":
		return a.City < b.City, a.City == b.City
	case "createdAt":
		return a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
	default:
		return a.Name < b.Name, a.Name == b.Name
	}
}

func (s *Store) CreateClient(_ context.Context, c models.Client) (models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.clients {
		if strings.EqualFold(existing.Code, c.Code) {
			return models.Client{}, storage.ErrAlreadyExists
		}
	}
	s.nextCli++
	c.ID = s.nextCli
	c.IsActive = true
	c.CreatedAt = s.now().UTC()
	s.clients[c.ID] = c
	return c, nil
}

func (s *Store) DeleteClient(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.clients, id)
	return nil
}
