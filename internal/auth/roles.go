package auth

import "github.com/spec-kit/portal-gateway/internal/domain"

// rolePermissions is the single canonical permission table. Role CRUD lives
// elsewhere; the gateway treats this mapping as read-only.
var rolePermissions = map[domain.RoleName][]string{
	domain.RoleSystemAdmin: {
		"system:admin",
		"users:create", "users:read", "users:update", "users:delete",
		"institutions:create", "institutions:read", "institutions:update", "institutions:delete",
		"courses:create", "courses:read", "courses:update", "courses:delete",
		"content:create", "content:read", "content:update", "content:delete",
		"teachers:create", "teachers:read", "teachers:update", "teachers:delete",
		"students:create", "students:read", "students:update", "students:delete",
		"assignments:create", "assignments:read", "assignments:update", "assignments:delete",
		"grades:create", "grades:read", "grades:update", "grades:delete",
		"reports:create", "reports:read", "reports:update", "reports:delete",
		"roles:create", "roles:read", "roles:update", "roles:delete",
		"notifications:create", "notifications:read", "notifications:update", "notifications:delete",
		"attendance:create", "attendance:read", "attendance:update", "attendance:delete",
		"modules:create", "modules:read", "modules:update", "modules:delete",
		"settings:create", "settings:read", "settings:update", "settings:delete",
		"analytics:read", "system:settings", "logs:read",
		"backup:create", "backup:read", "backup:restore",
		"monitoring:read", "security:read", "security:update",
		"profile:read", "profile:update",
	},
	domain.RoleInstitutionManager: {
		"institution:admin",
		"users:create", "users:read", "users:update",
		"courses:create", "courses:read", "courses:update",
		"content:create", "content:read", "content:update",
		"teachers:read", "teachers:update",
		"students:read", "students:update",
		"analytics:read", "reports:read",
		"settings:read", "settings:update",
	},
	domain.RoleCoordinator: {
		"courses:read", "courses:update",
		"content:read", "content:update",
		"students:read", "students:update",
		"teachers:read",
		"assignments:read", "assignments:update",
		"grades:read",
		"reports:read",
		"analytics:read",
	},
	domain.RoleTeacher: {
		"courses:create", "courses:read", "courses:update",
		"content:create", "content:read", "content:update",
		"students:read", "students:update",
		"assignments:create", "assignments:read", "assignments:update",
		"grades:create", "grades:read", "grades:update",
	},
	domain.RoleStudent: {
		"courses:read",
		"content:read",
		"assignments:read", "assignments:submit",
		"grades:read",
		"profile:read", "profile:update",
	},
	domain.RoleGuardian: {
		"students:read",
		"courses:read",
		"content:read",
		"assignments:read",
		"grades:read",
		"attendance:read",
		"reports:read",
		"profile:read", "profile:update",
		"notifications:read",
	},
}

// adminRoles is the one canonical set of administrative role names, matched
// case-sensitively against the enumerated names.
var adminRoles = map[domain.RoleName]struct{}{
	domain.RoleSystemAdmin:        {},
	domain.RoleInstitutionManager: {},
}

// RoleGrant is the result of expanding a role name.
type RoleGrant struct {
	Permissions []string
	IsAdmin     bool
}

// ResolveRole expands a role name into its permission set and admin
// classification. Unknown roles resolve to no permissions and no admin flag.
func ResolveRole(role domain.RoleName) RoleGrant {
	perms, ok := rolePermissions[role]
	if !ok {
		return RoleGrant{Permissions: []string{}}
	}
	_, isAdmin := adminRoles[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return RoleGrant{Permissions: out, IsAdmin: isAdmin}
}

// HasPermission reports whether the principal may perform the required
// permission. Admin roles pass every check.
func HasPermission(p *Principal, required string) bool {
	if p == nil {
		return false
	}
	if p.IsAdmin {
		return true
	}
	_, ok := p.Permissions[required]
	return ok
}
