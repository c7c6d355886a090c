package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type OverrideRequest struct {
	Verdict string `json:"verdict"`
	Reason  string `json:"reason"`
}

func (r OverrideRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Verdict, validation.Required,
			validation.In(string(VerdictOK), string(VerdictDamaged), string(VerdictExpired), string(VerdictLowConfidence))),
		validation.Field(&r.Reason, validation.Required, validation.Length(3, 1000)),
	)
}
