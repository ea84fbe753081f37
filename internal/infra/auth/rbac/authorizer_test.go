package rbac

import (
	"errors"
	"testing"

	"fraudops/internal/domain"
)

func TestRequire(t *testing.T) {
	authz := NewAuthorizer()

	analyst := domain.Principal{
		Subject:     "analyst-1",
		Roles:       []string{domain.RoleAnalyst},
		Permissions: []string{domain.PermReviewRead, domain.PermReviewWrite},
	}
	admin := domain.Principal{
		Subject: "admin-1",
		Roles:   []string{domain.RoleAdmin},
	}

	cases := []struct {
		name       string
		principal  domain.Principal
		permission string
		wantErr    error
		wantCode   string
	}{
		{
			name:       "granted permission",
			principal:  analyst,
			permission: domain.PermReviewWrite,
		},
		{
			name:       "admin bypasses permission check",
			principal:  admin,
			permission: domain.PermBulkWrite,
		},
		{
			name:       "empty permission always allowed",
			principal:  analyst,
			permission: "",
		},
		{
			name:       "missing permission",
			principal:  analyst,
			permission: domain.PermBulkWrite,
			wantErr:    domain.ErrForbidden,
			wantCode:   "MISSING_PERMISSION",
		},
		{
			name:       "no roles at all",
			principal:  domain.Principal{Subject: "stranger"},
			permission: domain.PermReviewRead,
			wantErr:    domain.ErrForbidden,
			wantCode:   "MISSING_ROLE",
		},
		{
			name:       "anonymous principal",
			principal:  domain.Principal{},
			permission: domain.PermReviewRead,
			wantErr:    domain.ErrUnauthorized,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := authz.Require(tc.principal, tc.permission)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if tc.wantCode != "" {
				authzErr, ok := IsAuthzError(err)
				if !ok {
					t.Fatalf("expected AuthzError, got %T", err)
				}
				if authzErr.Code != tc.wantCode {
					t.Fatalf("expected code %s, got %s", tc.wantCode, authzErr.Code)
				}
			}
		})
	}
}
