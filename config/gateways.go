package config

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var gatewayValidator = validator.New(validator.WithRequiredStructEnabled())

// Problems lists the MoMo settings that are missing or malformed.
func (c MoMoConfig) Problems() []string { return structProblems(c) }

// Problems lists the VNPay settings that are missing or malformed.
func (c VNPayConfig) Problems() []string { return structProblems(c) }

func structProblems(s interface{}) []string {
	err := gatewayValidator.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			out = append(out, fe.Field())
		} else {
			out = append(out, fe.Field()+" ("+fe.Tag()+")")
		}
	}
	return out
}
