package guard

import "github.com/hongminglow/erp-portal/internal/models"

// DefaultRoutes is the portal's route table. Role lists come from the API
// policies guarding the endpoints each screen calls, so a screen opens exactly
// when its API calls are allowed.
func DefaultRoutes() []Route {
	return []Route{
		{Pattern: LoginRoute, Guard: Guest},
		{Pattern: RegisterRoute, Guard: Guest},
		{Pattern: DashboardRoute, Guard: Authenticated},
		{Pattern: "/profile", Guard: Authenticated},
		{Pattern: "/admin/*", Guard: Authenticated, Roles: policy(models.AdminOnly)},
		{Pattern: "/users/*", Guard: Authenticated, Roles: policy(models.AdminOnly)},
		// first match wins: creation is narrower than the list
		{Pattern: "/clients/new", Guard: Authenticated, Roles: policy(models.VendorOrAdmin)},
		{Pattern: "/clients/*", Guard: Authenticated, Roles: policy(models.AuthenticatedUser)},
		{Pattern: "/sales/*", Guard: Authenticated, Roles: policy(models.VendorOrAdmin)},
		{Pattern: "/purchases/*", Guard: Authenticated, Roles: policy(models.BuyerOrAdmin)},
		{Pattern: "/suppliers/*", Guard: Authenticated, Roles: policy(models.BuyerOrAdmin)},
		{Pattern: "/inventory/*", Guard: Authenticated},
		{Pattern: "/accounting/*", Guard: Authenticated, Roles: policy(models.AccountantOrAdmin)},
		{Pattern: "/hr/*", Guard: Authenticated, Roles: policy(models.HROrAdmin)},
		{Pattern: "/payroll/*", Guard: Authenticated, Roles: policy(models.HROrAdmin)},
	}
}

// policy returns the roles of p; nil means any authenticated user.
func policy(p models.Policy) []string {
	roles, _ := models.PolicyRoles(p)
	return roles
}
