package constants

const (
	// Context Keys
	ContextKeyPrincipal = "principal"
	ContextKeySettings  = "settings"

	// Session Keys
	SessionKeyUserID = "user_id"

	// Setting Keys
	SettingSiteTitle       = "site_title"
	SettingSiteDescription = "site_description"
	SettingSiteURL         = "site_url"
	SettingSiteLanguage    = "site_language"
	SettingAdminEmail      = "admin_email"
	SettingPostsPerPage    = "posts_per_page"
	SettingExcerptLength   = "excerpt_length"

	// UncategorizedSlug is the slug of the category that can never be removed.
	UncategorizedSlug = "uncategorized"
	UncategorizedName = "Uncategorized"
)

// OutputSettingKeys are the settings that change generated pages.
var OutputSettingKeys = []string{
	SettingSiteTitle,
	SettingSiteDescription,
	SettingSiteURL,
	SettingSiteLanguage,
	SettingPostsPerPage,
	SettingExcerptLength,
}
