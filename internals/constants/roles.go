package constants

import "fmt"

const (
	RoleAdmin     = "admin"
	RoleTreasurer = "bendahara"
	RoleTeacher   = "teacher"
	RoleOwner     = "owner"
)

// Template pesan error role
const (
	ErrOnlyFinanceCanAccess = "❌ Hanya admin atau bendahara yang boleh mengakses fitur %s."
	ErrOnlyAdminsCanAccess  = "❌ Hanya admin yang boleh mengakses fitur %s."
)

func RoleErrorFinance(feature string) string {
	return fmt.Sprintf(ErrOnlyFinanceCanAccess, feature)
}

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}

// ==========================
// ✅ Grouped Role Slices
// ==========================
var (
	FinanceRoles = []string{
		RoleAdmin,
		RoleTreasurer,
		RoleOwner,
	}

	AdminOnly = []string{
		RoleAdmin,
		RoleOwner,
	}
)
