package entity

import "fmt"

// PolicyMode selects the registration workflow for a deployment.
type PolicyMode string

const (
	// ModeOpen accepts registrations without uploads; payment is handled
	// outside the system.
	ModeOpen PolicyMode = "open"
	// ModeProof requires a photo and a payment-proof image at registration.
	ModeProof PolicyMode = "proof"
	// ModePaid requires a photo and collects the membership fee online;
	// records wait in payment_pending until the payment webhook arrives.
	ModePaid PolicyMode = "paid"
)

// Policy maps a deployment mode to the fields required at registration and
// the initial status of a new record. Resolved once at startup.
type Policy struct {
	Mode                PolicyMode
	RequirePhoto        bool
	RequirePaymentProof bool
	CollectFee          bool
	InitialStatus       MemberStatus
}

var policies = map[PolicyMode]Policy{
	ModeOpen: {
		Mode:          ModeOpen,
		InitialStatus: StatusPendingApproval,
	},
	ModeProof: {
		Mode:                ModeProof,
		RequirePhoto:        true,
		RequirePaymentProof: true,
		InitialStatus:       StatusPendingApproval,
	},
	ModePaid: {
		Mode:          ModePaid,
		RequirePhoto:  true,
		CollectFee:    true,
		InitialStatus: StatusPaymentPending,
	},
}

// PolicyFor resolves a configured mode name to its policy.
func PolicyFor(mode string) (Policy, error) {
	p, ok := policies[PolicyMode(mode)]
	if !ok {
		return Policy{}, fmt.Errorf("unknown membership mode: %q", mode)
	}
	return p, nil
}
