package handler

import (
	"fmt"
	"strings"

	"benefit-calculator/internal/fieldtypes"
	"benefit-calculator/internal/model"
)

// ValidateStartRequest returns one message per problem with req.
func ValidateStartRequest(req model.StartProcessRequest) []string {
	var details []string
	for _, f := range [][2]string{
		{"firstName", req.FirstName},
		{"lastName", req.LastName},
		{"memberId", req.MemberID},
		{"benefitClass", req.BenefitClass},
		{"paymentType", req.PaymentType},
		{"planNumber", req.PlanNumber},
	} {
		if strings.TrimSpace(f[1]) == "" {
			details = append(details, fmt.Sprintf("%s is required", f[0]))
		}
	}
	for _, f := range [][2]string{
		{"dateOfBirth", req.DateOfBirth},
		{"dateJoinedFund", req.DateJoinedFund},
		{"effectiveDate", req.EffectiveDate},
		{"calculationDate", req.CalculationDate},
	} {
		if f[1] == "" {
			continue
		}
		if _, ok := fieldtypes.ParseDate(f[1]); !ok {
			details = append(details, fmt.Sprintf("%s must be a valid date", f[0]))
		}
	}
	return details
}
