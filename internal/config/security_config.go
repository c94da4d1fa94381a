package config

import "strings"

// Roles carried in the gateway token's "role" claim
const (
	RoleDataRegistration = "DATAREG"
	RoleDamage           = "SKADE"
	RoleBusiness         = "FORRET"
	RoleManagement       = "LEDELSE"
	RoleAdmin            = "ADMIN"
)

// RoutePermission grants a method on every path starting with Prefix.
type RoutePermission struct {
	Method string
	Prefix string
	Roles  []string
}

// RoutePermissions maps lease routes to the roles allowed to call them.
// Order matters: the first matching rule decides.
var RoutePermissions = []RoutePermission{
	{Method: "GET", Prefix: "/leases", Roles: []string{RoleDataRegistration, RoleDamage, RoleBusiness, RoleManagement}},
	{Method: "POST", Prefix: "/leases/", Roles: []string{RoleDataRegistration, RoleManagement}}, // /leases/{id}/end
	{Method: "POST", Prefix: "/leases", Roles: []string{RoleDataRegistration, RoleManagement}},
	{Method: "PATCH", Prefix: "/leases/", Roles: []string{RoleDataRegistration, RoleManagement}},
}

// PublicPrefixes are served without a token
var PublicPrefixes = []string{"/health", "/metrics"}

// IsPublicPath reports whether path skips authentication
func IsPublicPath(path string) bool {
	for _, p := range PublicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// IsRoleAllowed reports whether role may call method on path. ADMIN may call
// everything; routes without a rule are denied.
func IsRoleAllowed(role, method, path string) bool {
	if role == RoleAdmin {
		return true
	}
	for _, rule := range RoutePermissions {
		if rule.Method != method || !strings.HasPrefix(path, rule.Prefix) {
			continue
		}
		for _, r := range rule.Roles {
			if r == role {
				return true
			}
		}
		return false
	}
	return false
}
