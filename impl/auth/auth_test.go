package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"clubreg/entity"
	"clubreg/internal/config"
)

type dbMock struct {
	mock.Mock
}

func (m *dbMock) MemberByLogin(phone, membershipID string) (*entity.Member, error) {
	args := m.Called(phone, membershipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Member), args.Error(1)
}

func testConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:      "test-secret",
		AdminUsername:  "admin",
		AdminPassword:  "hunter2",
		AdminTokenTTL:  time.Hour,
		MemberTokenTTL: time.Hour,
	}
}

func TestNew_RequiresSecret(t *testing.T) {
	conf := testConfig()
	conf.JWTSecret = ""
	_, err := New(new(dbMock), conf)
	assert.Error(t, err)
}

func TestAdminLogin(t *testing.T) {
	a, err := New(new(dbMock), testConfig())
	assert.NoError(t, err)

	token, err := a.AdminLogin(&entity.AdminLogin{Username: "admin", Password: "hunter2"})
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	identity, err := a.ParseToken(token)
	assert.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, identity.Role)
	assert.Equal(t, "admin", identity.Username)
}

func TestAdminLogin_WrongCredentials(t *testing.T) {
	a, _ := New(new(dbMock), testConfig())

	tests := []entity.AdminLogin{
		{Username: "admin", Password: "wrong"},
		{Username: "nobody", Password: "hunter2"},
	}
	for _, login := range tests {
		_, err := a.AdminLogin(&login)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
}

func TestMemberLogin(t *testing.T) {
	oid := primitive.NewObjectID()
	member := &entity.Member{
		ID:           oid,
		Name:         "Asha",
		Phone:        "5550001",
		MembershipID: "KSASC0001",
		Status:       entity.StatusApproved,
	}
	db := new(dbMock)
	db.On("MemberByLogin", "5550001", "KSASC0001").Return(member, nil).Once()

	a, _ := New(db, testConfig())
	token, got, err := a.MemberLogin(&entity.MemberLogin{Phone: "5550001", MembershipID: "KSASC0001"})

	assert.NoError(t, err)
	assert.Equal(t, member, got)

	identity, err := a.ParseToken(token)
	assert.NoError(t, err)
	assert.Equal(t, entity.RoleMember, identity.Role)
	assert.Equal(t, oid.Hex(), identity.MemberID)
	assert.Equal(t, "KSASC0001", identity.MembershipID)
}

func TestMemberLogin_NotApproved(t *testing.T) {
	member := &entity.Member{
		ID:           primitive.NewObjectID(),
		Phone:        "5550001",
		MembershipID: "KSASC0001",
		Status:       entity.StatusPendingApproval,
	}
	db := new(dbMock)
	db.On("MemberByLogin", "5550001", "KSASC0001").Return(member, nil).Once()

	a, _ := New(db, testConfig())
	_, _, err := a.MemberLogin(&entity.MemberLogin{Phone: "5550001", MembershipID: "KSASC0001"})

	assert.ErrorIs(t, err, entity.ErrNotApproved)
}

func TestMemberLogin_UnknownMember(t *testing.T) {
	db := new(dbMock)
	db.On("MemberByLogin", "5550001", "KSASC0001").Return(nil, entity.ErrNotFound).Once()

	a, _ := New(db, testConfig())
	_, _, err := a.MemberLogin(&entity.MemberLogin{Phone: "5550001", MembershipID: "KSASC0001"})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestParseToken_Garbage(t *testing.T) {
	a, _ := New(new(dbMock), testConfig())
	_, err := a.ParseToken("not-a-token")
	assert.Error(t, err)
}

func TestParseToken_WrongSecret(t *testing.T) {
	a, _ := New(new(dbMock), testConfig())
	token, err := a.AdminLogin(&entity.AdminLogin{Username: "admin", Password: "hunter2"})
	assert.NoError(t, err)

	other := testConfig()
	other.JWTSecret = "different-secret"
	b, _ := New(new(dbMock), other)
	_, err = b.ParseToken(token)
	assert.Error(t, err)
}
