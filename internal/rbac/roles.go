package rbac

import "errors"

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleFinance    = "finance"
	RoleSuperAdmin = "super_admin"
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

// Resolver assigns roles from a static admin allowlist; everyone else is a
// user.
type Resolver struct {
	admins map[string]struct{}
}

func NewResolver(adminUserIDs []string) Resolver {
	r := Resolver{admins: make(map[string]struct{}, len(adminUserIDs))}
	for _, id := range adminUserIDs {
		r.admins[id] = struct{}{}
	}
	return r
}

func (r Resolver) RoleFor(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("rbac: user id required")
	}
	if _, ok := r.admins[userID]; ok {
		return RoleAdmin, nil
	}
	return RoleUser, nil
}
