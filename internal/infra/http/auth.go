package http

import (
	"strings"

	"fraudops/internal/domain"

	"github.com/gin-gonic/gin"
)

const principalContextKey = "fraudops.principal"

// Header principal for AUTH_MODE=none. Intended for local runs and tests
// where the gateway in front of the service has already authenticated.
const (
	headerPrincipalSubject     = "X-Principal-Subject"
	headerPrincipalName        = "X-Principal-Name"
	headerPrincipalEmail       = "X-Principal-Email"
	headerPrincipalRoles       = "X-Principal-Roles"
	headerPrincipalPermissions = "X-Principal-Permissions"
)

// requireAuth resolves the caller's principal and checks the permission.
// On failure it writes the error response and returns ok=false.
func (s *Server) requireAuth(c *gin.Context, permission string) (domain.Principal, bool) {
	principal, err := s.resolvePrincipal(c)
	if err != nil {
		writeError(c, err)
		return domain.Principal{}, false
	}
	if s.authorizer != nil {
		if err := s.authorizer.Require(principal, permission); err != nil {
			writeError(c, err)
			return domain.Principal{}, false
		}
	}
	c.Set(principalContextKey, principal)
	return principal, true
}

func (s *Server) resolvePrincipal(c *gin.Context) (domain.Principal, error) {
	if cached, ok := c.Get(principalContextKey); ok {
		if principal, ok := cached.(domain.Principal); ok {
			return principal, nil
		}
	}
	if s.authenticator == nil {
		return headerPrincipal(c)
	}
	token, err := extractBearerToken(c)
	if err != nil {
		return domain.Principal{}, err
	}
	return s.authenticator.Authenticate(c.Request.Context(), token)
}

func headerPrincipal(c *gin.Context) (domain.Principal, error) {
	subject := strings.TrimSpace(c.GetHeader(headerPrincipalSubject))
	if subject == "" {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	return domain.Principal{
		Subject:     subject,
		Name:        strings.TrimSpace(c.GetHeader(headerPrincipalName)),
		Email:       strings.TrimSpace(c.GetHeader(headerPrincipalEmail)),
		Roles:       splitCSV(c.GetHeader(headerPrincipalRoles)),
		Permissions: splitCSV(c.GetHeader(headerPrincipalPermissions)),
	}, nil
}

func extractBearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", domain.ErrUnauthorized
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", domain.ErrUnauthorized
	}
	return strings.TrimSpace(parts[1]), nil
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// rateLimitKey buckets by authenticated subject, falling back to client IP
// for anonymous traffic.
func rateLimitKey(c *gin.Context) string {
	if cached, ok := c.Get(principalContextKey); ok {
		if principal, ok := cached.(domain.Principal); ok && principal.Subject != "" {
			return "sub:" + principal.Subject
		}
	}
	return "ip:" + c.ClientIP()
}
