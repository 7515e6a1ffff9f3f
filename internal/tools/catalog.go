package tools

// RegisterBackendTools registers the tools exposed by /api/agentic-command.
func RegisterBackendTools(registry *Registry) {
	for _, spec := range backendTools {
		registry.Register(spec)
	}
}

// NewBackendRegistry returns a registry preloaded with the backend catalogue.
func NewBackendRegistry() *Registry {
	r := NewRegistry()
	RegisterBackendTools(r)
	return r
}

var backendTools = []Spec{
	// Authentication & user management
	{Name: "login", Description: "Log in with email & password.", Parameters: []string{"email", "password"}, Category: CategoryAuth, Public: true},
	{Name: "signup", Description: "Create new account.", Parameters: []string{"email", "password"}, Category: CategoryAuth, Public: true},
	{Name: "signup_with_random", Description: "Create account with randomly generated user details.", Category: CategoryAuth},
	{Name: "generate_random_user", Description: "Generate random but realistic user details.", Category: CategoryData},
	{Name: "signout", Description: "Sign out & go to login.", Category: CategorySignout},
	{Name: "delete_account", Description: "Delete user account and all data.", Category: CategorySignout},
	{Name: "change_password", Description: "Change account password.", Parameters: []string{"new_password"}, Category: CategorySettings},

	// Navigation
	{Name: "open_login_page", Description: "Navigate to login page.", Category: CategoryNavigation, Public: true},
	{Name: "open_signup_page", Description: "Navigate to signup page.", Category: CategoryNavigation, Public: true},
	{Name: "open_dashboard", Description: "Navigate to dashboard page.", Category: CategoryNavigation},
	{Name: "open_profile", Description: "Navigate to profile page.", Category: CategoryNavigation, Public: true},
	{Name: "open_settings", Description: "Navigate to settings page.", Category: CategoryNavigation, Public: true},
	{Name: "open_otp_verification", Description: "Navigate to OTP verification page.", Category: CategoryNavigation},

	// Search & queries
	{Name: "search", Description: "Search legal database and display results in dashboard.", Parameters: []string{"query"}, Category: CategorySearch},
	{Name: "view_query_history", Description: "View recent query history.", Category: CategoryHistory},
	{Name: "clear_query_history", Description: "Clear all query history.", Category: CategoryHistory},

	// Profile
	{Name: "get_profile", Description: "Get current user profile information.", Category: CategoryProfile},
	{Name: "update_profile_field", Description: "Update a specific profile field.", Parameters: []string{"field", "value"}, Category: CategoryProfile},
	{Name: "update_profile", Description: "Update multiple profile fields.", Parameters: []string{"field", "value"}, Category: CategoryProfile},

	// Settings & preferences
	{Name: "update_setting", Description: "Update a general setting.", Parameters: []string{"setting", "value"}, Category: CategorySettings},
	{Name: "update_theme", Description: "Change app theme (light/dark/auto).", Parameters: []string{"theme"}, Category: CategoryTheme},
	{Name: "update_notification_setting", Description: "Update notification preferences.", Parameters: []string{"setting", "value"}, Category: CategorySettings},

	// Data
	{Name: "export_data", Description: "Export all user data.", Category: CategoryData},

	{Name: "help", Description: "Show all available commands and their usage.", Category: CategoryHelp},
}
