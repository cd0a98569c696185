package models

// Payslip is one payroll record, keyed by (employee_id, year, month).
// Month is the English month name, matching the backend contract.
type Payslip struct {
	ID         int64  `json:"id,omitempty"`
	EmployeeID string `json:"employee_id"`
	Year       int    `json:"year"`
	Month      string `json:"month"`

	// Earnings
	BasicSalary float64 `json:"basic_salary"`
	DA          float64 `json:"da,omitempty"`
	HRAWS       float64 `json:"hraws,omitempty"`
	NPA         float64 `json:"npa,omitempty"`
	SBCA        float64 `json:"sbca,omitempty"`
	TA          float64 `json:"ta,omitempty"`

	// Deductions
	CPFState        float64 `json:"cpf_state,omitempty"`
	GISState        float64 `json:"gis_state,omitempty"`
	ProfessionalTax float64 `json:"professional_tax"`
	StampDuty       float64 `json:"stamp_duty,omitempty"`

	// Totals
	GrossSalary     float64 `json:"gross_salary"`
	TotalDeductions float64 `json:"total_deductions"`
	NetSalary       float64 `json:"net_salary"`

	PaymentDate string `json:"payment_date,omitempty"`
	Status      string `json:"status,omitempty"`
}

// TotalAllowances sums the allowance components on top of basic salary.
func (p *Payslip) TotalAllowances() float64 {
	return p.DA + p.HRAWS + p.NPA + p.SBCA + p.TA
}
