package auth

import (
	"slices"

	"magnova-scm-api-server/config"
	"magnova-scm-api-server/internal/apperr"
	"magnova-scm-api-server/internal/models"
)

// Principal is the authenticated caller of an engine operation.
type Principal struct {
	UserID       string
	Email        string
	Name         string
	Organization string
	Role         string
}

func PrincipalFromUser(u *models.User) Principal {
	return Principal{
		UserID:       u.UserID,
		Email:        u.Email,
		Name:         u.Name,
		Organization: u.Organization,
		Role:         u.Role,
	}
}

func (p Principal) IsAdmin() bool { return p.Role == models.RoleAdmin }

// Policy holds the organization-gated capabilities. Role checks are fixed.
type Policy struct {
	poCreators    []string
	salesCreators []string
}

func NewPolicy(cfg config.OrganizationsConfig) Policy {
	return Policy{poCreators: cfg.POCreators, salesCreators: cfg.SalesCreators}
}

func (p Policy) CanCreatePO(pr Principal) error {
	if !slices.Contains(p.poCreators, pr.Organization) {
		return apperr.Forbidden("organization %q cannot create purchase orders", pr.Organization)
	}
	return nil
}

func (p Policy) CanCreateSalesOrder(pr Principal) error {
	if !slices.Contains(p.salesCreators, pr.Organization) {
		return apperr.Forbidden("organization %q cannot create sales orders", pr.Organization)
	}
	return nil
}

// RequireRole fails with Forbidden unless the caller holds one of roles.
func RequireRole(pr Principal, roles ...string) error {
	if slices.Contains(roles, pr.Role) {
		return nil
	}
	return apperr.Forbidden("role %q is not permitted to perform this action", pr.Role)
}

func RequireAdmin(pr Principal) error {
	return RequireRole(pr, models.RoleAdmin)
}
