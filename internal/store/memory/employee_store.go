package memory

import (
	"context"
	"sync"

	"github.com/nkapoor/esshub/internal/models"
	"github.com/nkapoor/esshub/internal/store"
)

// EmployeeStore is an in-memory implementation of store.EmployeeStore for
// development and testing.
type EmployeeStore struct {
	mu        sync.RWMutex
	employees map[string]*models.Employee
	nextID    int64
}

// NewEmployeeStore creates a new in-memory employee store.
func NewEmployeeStore() *EmployeeStore {
	return &EmployeeStore{
		employees: make(map[string]*models.Employee),
		nextID:    1,
	}
}

// Create stores a new employee record keyed by its employee id.
func (s *EmployeeStore) Create(ctx context.Context, e *models.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.employees[e.EmployeeID]; exists {
		return store.ErrEmployeeExists
	}

	// Store a copy to avoid external modifications
	cp := *e
	if cp.ID == 0 {
		cp.ID = s.nextID
	}
	s.nextID++

	s.employees[e.EmployeeID] = &cp
	return nil
}

// GetByEmployeeID retrieves an employee record by employee id.
func (s *EmployeeStore) GetByEmployeeID(ctx context.Context, employeeID string) (*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.employees[employeeID]
	if !exists {
		return nil, store.ErrEmployeeNotFound
	}

	cp := *e
	return &cp, nil
}
