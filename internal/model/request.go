package model

// StartProcessRequest is the initial member/plan data entered in the first
// wizard step. Dates are carried as strings.
type StartProcessRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	MemberID        string `json:"memberId"`
	DateOfBirth     string `json:"dateOfBirth,omitempty"`
	DateJoinedFund  string `json:"dateJoinedFund,omitempty"`
	EffectiveDate   string `json:"effectiveDate,omitempty"`
	CalculationDate string `json:"calculationDate,omitempty"`
	BenefitClass    string `json:"benefitClass"`
	PaymentType     string `json:"paymentType"`
	PlanNumber      string `json:"planNumber"`
	PaymentTypeDesc string `json:"paymentTypeDesc"`
}

// Variables returns the request as a flat map keyed by wire name.
func (r StartProcessRequest) Variables() map[string]string {
	return map[string]string{
		"firstName":       r.FirstName,
		"lastName":        r.LastName,
		"memberId":        r.MemberID,
		"dateOfBirth":     r.DateOfBirth,
		"dateJoinedFund":  r.DateJoinedFund,
		"effectiveDate":   r.EffectiveDate,
		"calculationDate": r.CalculationDate,
		"benefitClass":    r.BenefitClass,
		"paymentType":     r.PaymentType,
		"planNumber":      r.PlanNumber,
		"paymentTypeDesc": r.PaymentTypeDesc,
	}
}

// WireType is the coarse variable type tag sent to the workflow engine.
type WireType string

const (
	WireTypeDouble WireType = "Double"
	WireTypeString WireType = "String"
)

// Variable is one typed workflow variable.
type Variable struct {
	Value any      `json:"value"`
	Type  WireType `json:"type"`
}

// SubmissionPayload completes the active task of a process instance.
type SubmissionPayload struct {
	ProcessInstanceID string              `json:"processInstanceId"`
	Variables         map[string]Variable `json:"variables"`
}
