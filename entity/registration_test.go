package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistrationBind(t *testing.T) {
	reg := &Registration{
		Name:  "  Asha  ",
		Age:   27,
		Phone: " 5550001 ",
		Email: " ASHA@Example.COM ",
	}
	assert.NoError(t, reg.Bind(nil))
	assert.Equal(t, "Asha", reg.Name)
	assert.Equal(t, "5550001", reg.Phone)
	assert.Equal(t, "asha@example.com", reg.Email)
}

func TestRegistrationBind_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		reg  Registration
	}{
		{"no name", Registration{Age: 27, Phone: "5550001"}},
		{"no phone", Registration{Name: "Asha", Age: 27}},
		{"age too low", Registration{Name: "Asha", Age: 9, Phone: "5550001"}},
		{"age too high", Registration{Name: "Asha", Age: 101, Phone: "5550001"}},
		{"bad email", Registration{Name: "Asha", Age: 27, Phone: "5550001", Email: "not-an-email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.reg.Bind(nil))
		})
	}
}

func TestRegistrationBind_Country(t *testing.T) {
	reg := &Registration{Name: "Asha", Age: 27, Phone: "5550001", Country: "India"}
	assert.NoError(t, reg.Bind(nil))
	assert.Equal(t, "IN", reg.Country)

	bad := &Registration{Name: "Asha", Age: 27, Phone: "5550001", Country: "Atlantis"}
	assert.Error(t, bad.Bind(nil))
}
