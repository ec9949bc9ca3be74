package model

import (
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
)

// memberKeys are the identity/plan variables always present in MemberData.
var memberKeys = []string{
	"firstName",
	"lastName",
	"memberId",
	"dateOfBirth",
	"dateJoinedFund",
	"effectiveDate",
	"calculationDate",
	"benefitClass",
	"paymentType",
	"planNumber",
	"paymentTypeDesc",
}

// MemberData holds the main process variables: the fixed identity and plan
// fields plus every calculation factor the engine echoed back. Factors are
// flattened into the same JSON object.
type MemberData struct {
	FirstName       string
	LastName        string
	MemberID        string
	DateOfBirth     string
	DateJoinedFund  string
	EffectiveDate   string
	CalculationDate string
	BenefitClass    string
	PaymentType     string
	PlanNumber      string
	PaymentTypeDesc string
	Factors         map[string]any
}

// NewMemberData maps raw process variables into MemberData.
func NewMemberData(vars map[string]any) MemberData {
	var m MemberData
	for k, v := range vars {
		if p := m.fixed(k); p != nil {
			*p = Stringify(v)
			continue
		}
		if m.Factors == nil {
			m.Factors = make(map[string]any)
		}
		m.Factors[k] = v
	}
	return m
}

func (m *MemberData) fixed(key string) *string {
	switch key {
	case "firstName":
		return &m.FirstName
	case "lastName":
		return &m.LastName
	case "memberId":
		return &m.MemberID
	case "dateOfBirth":
		return &m.DateOfBirth
	case "dateJoinedFund":
		return &m.DateJoinedFund
	case "effectiveDate":
		return &m.EffectiveDate
	case "calculationDate":
		return &m.CalculationDate
	case "benefitClass":
		return &m.BenefitClass
	case "paymentType":
		return &m.PaymentType
	case "planNumber":
		return &m.PlanNumber
	case "paymentTypeDesc":
		return &m.PaymentTypeDesc
	}
	return nil
}

// Fields returns the fixed fields in display order. Factors are not included.
func (m MemberData) Fields() [][2]string {
	out := make([][2]string, 0, len(memberKeys))
	for _, k := range memberKeys {
		out = append(out, [2]string{k, *m.fixed(k)})
	}
	return out
}

func (m MemberData) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(memberKeys)+len(m.Factors))
	for k, v := range m.Factors {
		obj[k] = v
	}
	for _, kv := range m.Fields() {
		obj[kv[0]] = kv[1]
	}
	return json.Marshal(obj)
}

func (m *MemberData) UnmarshalJSON(b []byte) error {
	var vars map[string]any
	if err := json.Unmarshal(b, &vars); err != nil {
		return err
	}
	*m = NewMemberData(vars)
	return nil
}

// SubProcessData holds the payment and voluntary-account outputs of the
// calculation subprocess. It encodes as {} when nothing is known.
type SubProcessData struct {
	PaymentAmount           any `json:"paymentAmount,omitempty"`
	PaymentFrequency        any `json:"paymentFrequency,omitempty"`
	TotalBenefit            any `json:"totalBenefit,omitempty"`
	VoluntaryAccountBalance any `json:"voluntaryAccountBalance,omitempty"`
	VoluntaryContributions  any `json:"voluntaryContributions,omitempty"`
	CalculationStatus       any `json:"calculationStatus,omitempty"`
}

// NewSubProcessData picks the known outputs from raw subprocess variables.
// Unknown variables are dropped.
func NewSubProcessData(vars map[string]any) SubProcessData {
	return SubProcessData{
		PaymentAmount:           vars["paymentAmount"],
		PaymentFrequency:        vars["paymentFrequency"],
		TotalBenefit:            vars["totalBenefit"],
		VoluntaryAccountBalance: vars["voluntaryAccountBalance"],
		VoluntaryContributions:  vars["voluntaryContributions"],
		CalculationStatus:       vars["calculationStatus"],
	}
}

// IsEmpty reports whether no output is populated.
func (s SubProcessData) IsEmpty() bool {
	return len(s.Fields()) == 0
}

// Fields returns the populated outputs in display order.
func (s SubProcessData) Fields() [][2]string {
	all := [][2]any{
		{"paymentAmount", s.PaymentAmount},
		{"paymentFrequency", s.PaymentFrequency},
		{"totalBenefit", s.TotalBenefit},
		{"voluntaryAccountBalance", s.VoluntaryAccountBalance},
		{"voluntaryContributions", s.VoluntaryContributions},
		{"calculationStatus", s.CalculationStatus},
	}
	var out [][2]string
	for _, kv := range all {
		if IsEmpty(kv[1]) {
			continue
		}
		out = append(out, [2]string{kv[0].(string), Stringify(kv[1])})
	}
	return out
}

// Stringify renders a typed value the way it was entered: numbers without
// trailing zeros, nil as the empty string.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
