package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"clubreg/entity"
	"clubreg/internal/config"
)

// Database is the member lookup the portal login needs.
type Database interface {
	MemberByLogin(phone, membershipID string) (*entity.Member, error)
}

var ErrInvalidCredentials = errors.New("invalid credentials")

// Auth issues and verifies access tokens. Admin credentials come from
// deployment configuration; member logins resolve against the member store
// and require approved status.
type Auth struct {
	db            Database
	maker         tokenMaker
	adminUsername string
	adminPassword string
	adminTTL      time.Duration
	memberTTL     time.Duration
}

func New(db Database, conf config.AuthConfig) (*Auth, error) {
	if conf.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is not configured")
	}
	return &Auth{
		db:            db,
		maker:         tokenMaker{secret: conf.JWTSecret},
		adminUsername: conf.AdminUsername,
		adminPassword: conf.AdminPassword,
		adminTTL:      conf.AdminTokenTTL,
		memberTTL:     conf.MemberTokenTTL,
	}, nil
}

// AdminLogin compares the supplied credentials against the configured pair
// in constant time and returns an admin token.
func (a *Auth) AdminLogin(login *entity.AdminLogin) (string, error) {
	if a.adminUsername == "" || a.adminPassword == "" {
		return "", fmt.Errorf("admin credentials are not configured")
	}
	userOk := subtle.ConstantTimeCompare([]byte(login.Username), []byte(a.adminUsername))
	passOk := subtle.ConstantTimeCompare([]byte(login.Password), []byte(a.adminPassword))
	if userOk&passOk != 1 {
		return "", ErrInvalidCredentials
	}
	return a.maker.generate(Claims{
		Username: login.Username,
		Role:     entity.RoleAdmin,
	}, a.adminTTL)
}

// MemberLogin resolves a member by phone and membership id. Only approved
// members may enter the portal.
func (a *Auth) MemberLogin(login *entity.MemberLogin) (string, *entity.Member, error) {
	member, err := a.db.MemberByLogin(login.Phone, login.MembershipID)
	if errors.Is(err, entity.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if !member.IsApproved() {
		return "", nil, entity.ErrNotApproved
	}
	token, err := a.maker.generate(Claims{
		Role:         entity.RoleMember,
		MemberID:     member.ID.Hex(),
		MembershipID: member.MembershipID,
	}, a.memberTTL)
	if err != nil {
		return "", nil, err
	}
	return token, member, nil
}

// ParseToken verifies a bearer token and returns the caller identity.
func (a *Auth) ParseToken(token string) (*entity.Identity, error) {
	claims, err := a.maker.parse(token)
	if err != nil {
		return nil, err
	}
	return claims.Identity(), nil
}
