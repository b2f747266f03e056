package auth

import "github.com/spec-kit/concierge-portal/internal/domain"

// Portal page paths.
const (
	PathHome               = "/"
	PathAuth               = "/auth"
	PathClientDashboard    = "/client-dashboard"
	PathAdminDashboard     = "/admin-dashboard"
	PathDevAdminDashboard  = "/dev-admin-dashboard"
	PathPersonnelDashboard = "/personnel-dashboard"
)

var destinations = map[domain.Role]string{
	domain.RoleClient:          PathClientDashboard,
	domain.RoleAdmin:           PathAdminDashboard,
	domain.RoleDevAdmin:        PathDevAdminDashboard,
	domain.RolePersonnel:       PathPersonnelDashboard,
	domain.RoleRegionalPartner: PathAdminDashboard,
	domain.RoleServiceProvider: PathAdminDashboard,
	domain.RoleInvestor:        PathHome,
}

// DestinationFor returns the landing page for role. Both the post-login
// redirect and the entry-page redirect for an existing session resolve here.
func DestinationFor(role domain.Role) string {
	if dest, ok := destinations[role]; ok {
		return dest
	}
	return PathHome
}
