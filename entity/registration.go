package entity

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/biter777/countries"

	"clubreg/lib/validate"
)

// Registration is the applicant-submitted payload. Upload references arrive
// already resolved by the storage provider; the service never touches the
// files themselves.
type Registration struct {
	Name            string `json:"name" validate:"required"`
	Age             int    `json:"age" validate:"required,gte=10,lte=100"`
	Phone           string `json:"phone" validate:"required,min=5"`
	Email           string `json:"email,omitempty" validate:"omitempty,email"`
	Country         string `json:"country,omitempty"`
	PhotoURL        string `json:"photo_url,omitempty" validate:"omitempty,url"`
	PhotoID         string `json:"photo_id,omitempty"`
	PaymentProofURL string `json:"payment_proof_url,omitempty" validate:"omitempty,url"`
	PaymentProofID  string `json:"payment_proof_id,omitempty"`
}

func (reg *Registration) Bind(_ *http.Request) error {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Phone = strings.TrimSpace(reg.Phone)
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	if err := validate.Struct(reg); err != nil {
		return err
	}
	if reg.Country != "" {
		country := countries.ByName(reg.Country)
		if country == countries.Unknown {
			return fmt.Errorf("country not recognized: %s", reg.Country)
		}
		reg.Country = country.Alpha2()
	}
	return nil
}

// Receipt is returned to the applicant after a successful registration.
// PaymentURL is set only when the deployment collects the fee online.
type Receipt struct {
	MembershipID string       `json:"membership_id"`
	Status       MemberStatus `json:"status"`
	PaymentURL   string       `json:"payment_url,omitempty"`
}

// RequiredBy checks the upload references demanded by the deployment policy.
func (reg *Registration) RequiredBy(p Policy) error {
	if p.RequirePhoto && (reg.PhotoURL == "" || reg.PhotoID == "") {
		return fmt.Errorf("photo is required")
	}
	if p.RequirePaymentProof && (reg.PaymentProofURL == "" || reg.PaymentProofID == "") {
		return fmt.Errorf("payment proof is required")
	}
	return nil
}
