package domain

// Role enumerates the portal account types carried in the userType claim.
type Role string

const (
	RoleClient          Role = "client"
	RoleAdmin           Role = "admin"
	RoleDevAdmin        Role = "dev_admin"
	RolePersonnel       Role = "personnel"
	RoleRegionalPartner Role = "regional_partner"
	RoleServiceProvider Role = "service_provider"
	RoleInvestor        Role = "investor"
)

// Roles lists every known role in declaration order.
var Roles = []Role{
	RoleClient,
	RoleAdmin,
	RoleDevAdmin,
	RolePersonnel,
	RoleRegionalPartner,
	RoleServiceProvider,
	RoleInvestor,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleAdmin, RoleDevAdmin, RolePersonnel,
		RoleRegionalPartner, RoleServiceProvider, RoleInvestor:
		return true
	default:
		return false
	}
}

// ServiceProviderKind distinguishes individual providers from companies.
type ServiceProviderKind string

const (
	ServiceProviderIndividual ServiceProviderKind = "individual"
	ServiceProviderCompany    ServiceProviderKind = "company"
)
