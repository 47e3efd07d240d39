package auth

// Permission constants define the available permissions in the system.
// These are used for role-based access control (RBAC) to restrict access
// to specific resources and actions.
const (
	// PermDashboardView allows viewing the main dashboard.
	PermDashboardView = "dashboard.view"

	// PermProfileEdit allows editing the caller's own application profile.
	PermProfileEdit = "profile.edit"

	// PermMappingSave allows saving field mappings for the caller's own account.
	PermMappingSave = "mapping.save"

	// PermAdminSchools allows managing the partner-school catalog.
	PermAdminSchools = "admin.schools"
	// PermAdminProfileFields allows managing the canonical profile-field catalog.
	PermAdminProfileFields = "admin.profile.fields"
	// PermAdminUsers allows managing user accounts.
	PermAdminUsers = "admin.users"
)
