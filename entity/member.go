package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemberStatus is the membership lifecycle state.
// Transitions are one-directional: any pending-equivalent state may move to
// StatusApproved or StatusRejected; both of those are terminal.
type MemberStatus string

const (
	StatusRegistered      MemberStatus = "registered"
	StatusPaymentPending  MemberStatus = "payment_pending"
	StatusPendingApproval MemberStatus = "pending_approval"
	StatusApproved        MemberStatus = "approved"
	StatusRejected        MemberStatus = "rejected"
)

// IsTerminal reports whether no further admin transition is allowed.
func (s MemberStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanDecide reports whether an admin may approve or reject a member in this state.
func (s MemberStatus) CanDecide() bool {
	switch s {
	case StatusRegistered, StatusPaymentPending, StatusPendingApproval:
		return true
	}
	return false
}

// Member is a club membership record. Photo and payment proof hold opaque
// references issued by the upload provider before registration reaches this
// service. MembershipID is unique once assigned; Phone is always unique.
type Member struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name            string             `json:"name" bson:"name"`
	Age             int                `json:"age" bson:"age"`
	Phone           string             `json:"phone" bson:"phone"`
	Email           string             `json:"email,omitempty" bson:"email,omitempty"`
	Country         string             `json:"country,omitempty" bson:"country,omitempty"`
	PhotoURL        string             `json:"photo_url,omitempty" bson:"photo_url,omitempty"`
	PhotoID         string             `json:"photo_id,omitempty" bson:"photo_id,omitempty"`
	PaymentProofURL string             `json:"payment_proof_url,omitempty" bson:"payment_proof_url,omitempty"`
	PaymentProofID  string             `json:"payment_proof_id,omitempty" bson:"payment_proof_id,omitempty"`
	MembershipID    string             `json:"membership_id,omitempty" bson:"membership_id,omitempty"`
	Status          MemberStatus       `json:"status" bson:"status"`
	PaymentRef      string             `json:"payment_ref,omitempty" bson:"payment_ref,omitempty"`
	CardURL         string             `json:"card_url,omitempty" bson:"card_url,omitempty"`
	ApprovedAt      *time.Time         `json:"approved_at,omitempty" bson:"approved_at,omitempty"`
	ExpiryDate      *time.Time         `json:"expiry_date,omitempty" bson:"expiry_date,omitempty"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

func (m *Member) IsApproved() bool {
	return m.Status == StatusApproved
}

func (m *Member) HasMembershipID() bool {
	return m.MembershipID != ""
}
