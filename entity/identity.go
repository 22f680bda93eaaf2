package entity

// Roles carried in access tokens.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Identity is the authenticated caller extracted from a bearer token.
// MemberID is empty for admins.
type Identity struct {
	Role         string `json:"role"`
	Username     string `json:"username,omitempty"`
	MemberID     string `json:"member_id,omitempty"`
	MembershipID string `json:"membership_id,omitempty"`
}

func (i *Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

func (i *Identity) IsMember() bool {
	return i.Role == RoleMember
}
