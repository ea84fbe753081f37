package domain

import "context"

// Principal is the identity extracted from a verified bearer token.
type Principal struct {
	Subject     string
	Name        string
	Email       string
	Roles       []string
	Permissions []string
	RawClaims   map[string]any
}

type Authenticator interface {
	Authenticate(ctx context.Context, bearerToken string) (Principal, error)
}

type Authorizer interface {
	Require(principal Principal, permission string) error
}

func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsSupervisor reports whether the principal may see and delete other
// analysts' private notes.
func (p Principal) IsSupervisor() bool {
	return p.HasRole(RoleSupervisor) || p.HasRole(RoleAdmin)
}
