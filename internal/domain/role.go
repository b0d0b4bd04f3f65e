package domain

// RoleName enumerates the canonical portal roles.
type RoleName string

const (
	RoleSystemAdmin        RoleName = "SYSTEM_ADMIN"
	RoleInstitutionManager RoleName = "INSTITUTION_MANAGER"
	RoleCoordinator        RoleName = "COORDINATOR"
	RoleTeacher            RoleName = "TEACHER"
	RoleStudent            RoleName = "STUDENT"
	RoleGuardian           RoleName = "GUARDIAN"
)

// AllRoles lists every canonical role name.
func AllRoles() []RoleName {
	return []RoleName{
		RoleSystemAdmin,
		RoleInstitutionManager,
		RoleCoordinator,
		RoleTeacher,
		RoleStudent,
		RoleGuardian,
	}
}

// Valid reports whether the role name belongs to the canonical set.
func (r RoleName) Valid() bool {
	switch r {
	case RoleSystemAdmin, RoleInstitutionManager, RoleCoordinator, RoleTeacher, RoleStudent, RoleGuardian:
		return true
	}
	return false
}
