package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/nkapoor/esshub/internal/models"
	"github.com/nkapoor/esshub/internal/store"
)

// PayslipStore is an in-memory implementation of store.PayslipStore.
type PayslipStore struct {
	mu       sync.RWMutex
	payslips map[string]*models.Payslip
	nextID   int64
}

// NewPayslipStore creates a new in-memory payslip store.
func NewPayslipStore() *PayslipStore {
	return &PayslipStore{
		payslips: make(map[string]*models.Payslip),
		nextID:   1,
	}
}

func payslipKey(employeeID string, year int, month string) string {
	return fmt.Sprintf("%s/%s/%s", employeeID, strconv.Itoa(year), month)
}

// Create stores a payroll record for its (employee, year, month) key.
func (s *PayslipStore) Create(ctx context.Context, p *models.Payslip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := payslipKey(p.EmployeeID, p.Year, p.Month)
	if _, exists := s.payslips[key]; exists {
		return store.ErrPayslipExists
	}

	cp := *p
	if cp.ID == 0 {
		cp.ID = s.nextID
	}
	s.nextID++

	s.payslips[key] = &cp
	return nil
}

// Get retrieves the payroll record for a period, or ErrPayslipNotFound when
// the period has no data.
func (s *PayslipStore) Get(ctx context.Context, employeeID string, year int, month string) (*models.Payslip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.payslips[payslipKey(employeeID, year, month)]
	if !exists {
		return nil, store.ErrPayslipNotFound
	}

	cp := *p
	return &cp, nil
}
