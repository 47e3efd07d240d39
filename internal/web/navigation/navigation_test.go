package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewContext(t *testing.T) {
	nav := NewContext("Field Mappings", "mappings", "mapping")

	assert.Equal(t, "Field Mappings", nav.PageTitle)
	assert.Equal(t, "mappings", nav.ActiveSection)
	assert.Equal(t, "mapping", nav.ActivePage)
	assert.Empty(t, nav.Breadcrumbs)
}

func TestAddBreadcrumb(t *testing.T) {
	nav := NewContext("Profile", "profile", "profile").
		AddBreadcrumb("Home", "/dashboard", false).
		AddBreadcrumb("Profile", "/profile", true)

	assert.Len(t, nav.Breadcrumbs, 2)
	assert.Equal(t, "Home", nav.Breadcrumbs[0].Title)
	assert.False(t, nav.Breadcrumbs[0].Active)
	assert.True(t, nav.Breadcrumbs[1].Active)
}

func TestIsActive(t *testing.T) {
	nav := NewContext("Dashboard", "dashboard", "dashboard")

	assert.True(t, nav.IsActive("dashboard", "dashboard"))
	assert.False(t, nav.IsActive("dashboard", "other"))
	assert.True(t, nav.IsSectionActive("dashboard"))
	assert.False(t, nav.IsSectionActive("admin"))
}
