package models

import "strings"

const (
	RoleAdmin      = "Admin"
	RoleVendor     = "Vendeur"
	RoleBuyer      = "Acheteur"
	RoleAccountant = "Comptable"
	RoleHR         = "RH"
)

// Policy names an authorization requirement checked by the API.
type Policy string

const (
	AdminOnly         Policy = "AdminOnly"
	AuthenticatedUser Policy = "AuthenticatedUser"
	VendorOrAdmin     Policy = "VendorOrAdmin"
	BuyerOrAdmin      Policy = "BuyerOrAdmin"
	AccountantOrAdmin Policy = "AccountantOrAdmin"
	HROrAdmin         Policy = "HROrAdmin"
)

// policyRoles lists the roles satisfying each policy. A nil entry accepts any known role.
var policyRoles = map[Policy][]string{
	AdminOnly:         {RoleAdmin},
	AuthenticatedUser: nil,
	VendorOrAdmin:     {RoleVendor, RoleAdmin},
	BuyerOrAdmin:      {RoleBuyer, RoleAdmin},
	AccountantOrAdmin: {RoleAccountant, RoleAdmin},
	HROrAdmin:         {RoleHR, RoleAdmin},
}

// Roles returns every role the application knows about.
func Roles() []string {
	return []string{RoleAdmin, RoleVendor, RoleBuyer, RoleAccountant, RoleHR}
}

// IsValidRole reports whether role is one of Roles, ignoring case.
func IsValidRole(role string) bool {
	return CanonicalRole(role) != ""
}

// CanonicalRole returns the canonical spelling of role, or "" when unknown.
func CanonicalRole(role string) string {
	role = strings.TrimSpace(role)
	for _, known := range Roles() {
		if strings.EqualFold(known, role) {
			return known
		}
	}
	return ""
}

// PolicyRoles returns the roles accepted by p and whether p exists.
func PolicyRoles(p Policy) ([]string, bool) {
	roles, ok := policyRoles[p]
	return roles, ok
}

// Allows reports whether a user holding role satisfies the policy.
func (p Policy) Allows(role string) bool {
	roles, ok := policyRoles[p]
	if !ok {
		return false
	}
	canonical := CanonicalRole(role)
	if canonical == "" {
		return false
	}
	if roles == nil {
		return true
	}
	for _, r := range roles {
		if r == canonical {
			return true
		}
	}
	return false
}
