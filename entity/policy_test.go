package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyFor(t *testing.T) {
	open, err := PolicyFor("open")
	assert.NoError(t, err)
	assert.False(t, open.RequirePhoto)
	assert.False(t, open.CollectFee)
	assert.Equal(t, StatusPendingApproval, open.InitialStatus)

	proof, err := PolicyFor("proof")
	assert.NoError(t, err)
	assert.True(t, proof.RequirePhoto)
	assert.True(t, proof.RequirePaymentProof)
	assert.Equal(t, StatusPendingApproval, proof.InitialStatus)

	paid, err := PolicyFor("paid")
	assert.NoError(t, err)
	assert.True(t, paid.RequirePhoto)
	assert.False(t, paid.RequirePaymentProof)
	assert.True(t, paid.CollectFee)
	assert.Equal(t, StatusPaymentPending, paid.InitialStatus)

	_, err = PolicyFor("premium")
	assert.Error(t, err)
}

func TestRegistrationRequiredBy(t *testing.T) {
	proof, _ := PolicyFor("proof")

	reg := &Registration{Name: "Asha", Age: 27, Phone: "5550001"}
	assert.Error(t, reg.RequiredBy(proof))

	reg.PhotoURL = "https://img.example/p.jpg"
	reg.PhotoID = "members/photos/p"
	assert.Error(t, reg.RequiredBy(proof))

	reg.PaymentProofURL = "https://img.example/pp.jpg"
	reg.PaymentProofID = "members/payments/pp"
	assert.NoError(t, reg.RequiredBy(proof))

	open, _ := PolicyFor("open")
	bare := &Registration{Name: "Asha", Age: 27, Phone: "5550001"}
	assert.NoError(t, bare.RequiredBy(open))
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusRegistered.CanDecide())
	assert.True(t, StatusPaymentPending.CanDecide())
	assert.True(t, StatusPendingApproval.CanDecide())
	assert.False(t, StatusApproved.CanDecide())
	assert.False(t, StatusRejected.CanDecide())

	assert.True(t, StatusApproved.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.False(t, StatusPendingApproval.IsTerminal())
}
