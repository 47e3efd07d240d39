package daemon

import (
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/applymate/applymate/internal/auth"
	"github.com/applymate/applymate/internal/config"
	"github.com/applymate/applymate/internal/db/controller/profilefield"
	"github.com/applymate/applymate/internal/db/models"
	"github.com/applymate/applymate/internal/uniuri"
)

// adminPasswordLen is the length of the generated initial admin password.
const adminPasswordLen = 20

// permissionSeed describes one permission to ensure at startup.
type permissionSeed struct {
	name        string
	description string
}

var allPermissions = []permissionSeed{
	{auth.PermDashboardView, "View the dashboard"},
	{auth.PermProfileEdit, "Edit own application profile"},
	{auth.PermMappingSave, "Save own field mappings"},
	{auth.PermAdminSchools, "Manage the partner-school catalog"},
	{auth.PermAdminProfileFields, "Manage the profile-field catalog"},
	{auth.PermAdminUsers, "Manage user accounts"},
}

var applicantPermissions = []string{
	auth.PermDashboardView,
	auth.PermProfileEdit,
	auth.PermMappingSave,
}

// starterCatalog is the initial canonical profile-field catalog. Ordering
// controls display order on the profile page.
var starterCatalog = []models.ProfileField{
	{Name: "firstName", Label: "First name", Ordering: 10},
	{Name: "lastName", Label: "Last name", Ordering: 20},
	{Name: "email", Label: "Email address", Ordering: 30},
	{Name: "phone", Label: "Phone number", Ordering: 40},
	{Name: "dateOfBirth", Label: "Date of birth", Ordering: 50},
	{Name: "nationalId", Label: "National ID", Ordering: 60},
	{Name: "socialSecurityNumber", Label: "Social security number", Ordering: 70},
	{Name: "addressLine1", Label: "Address line 1", Ordering: 80},
	{Name: "addressLine2", Label: "Address line 2", Ordering: 90},
	{Name: "city", Label: "City", Ordering: 100},
	{Name: "postalCode", Label: "Postal code", Ordering: 110},
	{Name: "country", Label: "Country", Ordering: 120},
}

// seed ensures roles, permissions, the initial admin account and the starter
// profile-field catalog exist. It is idempotent and safe to run on every
// start.
func seed(_ *config.Config, db *gorm.DB) {
	adminRole := ensureRole(db, models.RoleAdmin, "Platform administrator")
	applicantRole := ensureRole(db, models.RoleApplicant, "School applicant")

	permsByName := make(map[string]uint, len(allPermissions))

	for _, p := range allPermissions {
		permsByName[p.name] = ensurePermission(db, p.name, p.description)
	}

	// admin gets everything, applicants their own subset
	for name, id := range permsByName {
		ensureRolePermission(db, adminRole, id)

		for _, ap := range applicantPermissions {
			if ap == name {
				ensureRolePermission(db, applicantRole, id)
			}
		}
	}

	ensureAdminUser(db, adminRole)
	ensureCatalog(db)
}

// ensureRole creates the role if missing and returns its ID.
func ensureRole(db *gorm.DB, name, description string) uint {
	var role models.Role
	if err := db.Where("name = ?", name).First(&role).Error; err == nil {
		return role.ID
	}

	role = models.Role{
		Name:        name,
		Description: description,
		IsSystem:    true,
	}

	if err := db.Create(&role).Error; err != nil {
		log.Fatal().Err(err).Str("role", name).Msg("failed to seed role")
	}

	return role.ID
}

// ensurePermission creates the permission if missing and returns its ID.
func ensurePermission(db *gorm.DB, name, description string) uint {
	var perm models.Permission
	if err := db.Where("name = ?", name).First(&perm).Error; err == nil {
		return perm.ID
	}

	resource, action := splitPermissionName(name)

	perm = models.Permission{
		Name:        name,
		Resource:    resource,
		Action:      action,
		Description: description,
	}

	if err := db.Create(&perm).Error; err != nil {
		log.Fatal().Err(err).Str("permission", name).Msg("failed to seed permission")
	}

	return perm.ID
}

// ensureRolePermission creates the role/permission link if missing.
func ensureRolePermission(db *gorm.DB, roleID, permissionID uint) {
	var link models.RolePermission
	err := db.Where("role_id = ? AND permission_id = ?", roleID, permissionID).First(&link).Error
	if err == nil {
		return
	}

	link = models.RolePermission{
		RoleID:       roleID,
		PermissionID: permissionID,
	}

	if err := db.Create(&link).Error; err != nil {
		log.Fatal().Err(err).Uint("role_id", roleID).Uint("permission_id", permissionID).
			Msg("failed to seed role permission")
	}
}

// ensureAdminUser creates the initial admin account with a random password.
// The password is logged exactly once, on first creation; change it after the
// first login.
func ensureAdminUser(db *gorm.DB, adminRoleID uint) {
	var count int64

	db.Model(&models.User{}).Count(&count)
	if count > 0 {
		return
	}

	password := uniuri.NewLen(adminPasswordLen)

	user := models.User{
		Active:     true,
		Username:   "admin",
		Email:      "admin@localhost",
		Password:   models.HashPassword(password),
		RoleID:     adminRoleID,
		AuthSource: models.AuthSourceLocal,
	}

	if err := db.Create(&user).Error; err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin user")
	}

	log.Warn().Str("username", user.Username).Str("password", password).
		Msg("created initial admin account, change the password after first login")
}

// ensureCatalog creates the starter profile-field catalog once.
func ensureCatalog(db *gorm.DB) {
	var count int64

	db.Model(&models.ProfileField{}).Count(&count)
	if count > 0 {
		return
	}

	for _, field := range starterCatalog {
		if _, err := profilefield.Create(db, field.Name, field.Label, field.Ordering); err != nil {
			log.Fatal().Err(err).Str("field", field.Name).Msg("failed to seed profile field")
		}
	}
}

// splitPermissionName splits "resource.action" into its parts. Multi-level
// names like "admin.profile.fields" keep everything after the first dot as
// the action.
func splitPermissionName(name string) (resource, action string) {
	parts := strings.SplitN(name, ".", 2)
	if len(parts) != 2 {
		return name, ""
	}

	return parts[0], parts[1]
}
