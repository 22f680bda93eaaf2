package entity

import (
	"net/http"

	"clubreg/lib/validate"
)

// AdminLogin carries deployment-admin credentials.
type AdminLogin struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (l *AdminLogin) Bind(_ *http.Request) error {
	return validate.Struct(l)
}

// MemberLogin identifies a member by phone and membership id.
type MemberLogin struct {
	Phone        string `json:"phone" validate:"required"`
	MembershipID string `json:"membership_id" validate:"required"`
}

func (l *MemberLogin) Bind(_ *http.Request) error {
	return validate.Struct(l)
}
