// Package fixtures holds the demo data set used by the in-memory store seed
// and by the client's offline mode. The records mirror the original demo
// environment so the two modes stay interchangeable.
package fixtures

import "github.com/nkapoor/esshub/internal/models"

// DemoEmployeeID is the employee present in the demo data set.
const DemoEmployeeID = "20240101000001"

// DemoPassword is the plaintext credential for the demo employee. The memory
// store seeds the matching argon2id hash.
const DemoPassword = "welcome1"

// Employee returns the demo employee record.
func Employee() *models.Employee {
	return &models.Employee{
		ID:          1,
		EmployeeID:  DemoEmployeeID,
		FirstName:   "Blah",
		LastName:    "Blah",
		Department:  "SECTION-A",
		Position:    "Senior Software Engineer",
		Email:       "blah.blah@example.gov.in",
		Mobile:      "+91-9800000001",
		DateOfBirth: "1990-05-15",
		JoinDate:    "2017-05-02",
		Status:      "active",
	}
}

// Payslips returns the demo payroll records. Only January 2026 and March 2024
// exist; every other period is deliberately absent.
func Payslips() []*models.Payslip {
	return []*models.Payslip{
		{
			ID:              1,
			EmployeeID:      DemoEmployeeID,
			Year:            2026,
			Month:           "January",
			BasicSalary:     16200.00,
			DA:              8910.00,
			HRAWS:           3500.00,
			NPA:             0.00,
			SBCA:            1296.00,
			TA:              500.00,
			CPFState:        2511.00,
			GISState:        30.00,
			ProfessionalTax: 150.00,
			StampDuty:       5.00,
			GrossSalary:     30406.00,
			TotalDeductions: 2696.00,
			NetSalary:       27710.00,
		},
		{
			ID:              2,
			EmployeeID:      DemoEmployeeID,
			Year:            2024,
			Month:           "March",
			BasicSalary:     15800.00,
			DA:              8690.00,
			HRAWS:           3400.00,
			NPA:             0.00,
			SBCA:            1264.00,
			TA:              500.00,
			CPFState:        2449.00,
			GISState:        30.00,
			ProfessionalTax: 150.00,
			StampDuty:       5.00,
			GrossSalary:     29654.00,
			TotalDeductions: 2634.00,
			NetSalary:       27020.00,
		},
	}
}
