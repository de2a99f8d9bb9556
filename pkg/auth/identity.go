// Package auth resolves identity-provider claims to application identities,
// manages browser sessions, and gates privileged operations by role.
package auth

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Claims are the attributes consumed from the identity provider's ID token.
type Claims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	UserID   string `json:"userID"`
}

// Identity is a resolved caller: provider claims plus the derived role.
type Identity struct {
	Email    string
	Username string
	UserID   string
	Role     Role
}

// DisplayName is the name shown next to comments and moderation marks.
func (id *Identity) DisplayName() string {
	if id.Username != "" {
		return id.Username
	}
	if id.Email != "" {
		return id.Email
	}
	return id.UserID
}

// Resolver derives a role from a fixed set of privileged identities.
// The zero value grants nobody elevated roles.
type Resolver struct {
	AdminID     string
	ModeratorID string
}

// Resolve maps claims to an Identity.
//
// The checks run strictly in order and the first match wins: the userID
// checks always take precedence over the username ones. The role==RoleUser
// guards on the username branches keep those fallbacks from ever firing
// once an explicit id match has been considered.
func (rs *Resolver) Resolve(c Claims) *Identity {
	role := RoleUser

	if rs.AdminID != "" && c.UserID == rs.AdminID {
		role = RoleAdmin
	} else if rs.ModeratorID != "" && c.UserID == rs.ModeratorID {
		role = RoleModerator
	} else if role == RoleUser && c.Username == "admin" {
		role = RoleAdmin
	} else if role == RoleUser && c.Username == "moderator" {
		role = RoleModerator
	}

	return &Identity{
		Email:    c.Email,
		Username: c.Username,
		UserID:   c.UserID,
		Role:     role,
	}
}
