package rbac

import (
	"errors"

	"fraudops/internal/domain"
)

// AuthzError carries a machine-readable denial code alongside the
// sentinel so the HTTP layer can report why access was refused.
type AuthzError struct {
	Code string
	Err  error
}

func (e *AuthzError) Error() string {
	if e == nil {
		return ""
	}
	return e.Code
}

func (e *AuthzError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Authorizer checks token permissions against the back-office permission
// set. Admins bypass the per-permission check.
type Authorizer struct {
	adminRole string
}

func NewAuthorizer() *Authorizer {
	return &Authorizer{adminRole: domain.RoleAdmin}
}

func (a *Authorizer) Require(principal domain.Principal, permission string) error {
	if principal.Subject == "" {
		return domain.ErrUnauthorized
	}
	if permission == "" {
		return nil
	}
	if principal.HasRole(a.adminRole) {
		return nil
	}
	if len(principal.Roles) == 0 {
		return &AuthzError{Code: "MISSING_ROLE", Err: domain.ErrForbidden}
	}
	if !hasPermission(principal, permission) {
		return &AuthzError{Code: "MISSING_PERMISSION", Err: domain.ErrForbidden}
	}
	return nil
}

func hasPermission(principal domain.Principal, permission string) bool {
	for _, p := range principal.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func IsAuthzError(err error) (*AuthzError, bool) {
	var authz *AuthzError
	if errors.As(err, &authz) {
		return authz, true
	}
	return nil, false
}
