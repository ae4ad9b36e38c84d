package constants

const (
	// Config keys
	SettingBackend       = "backend"
	SettingLocalPath     = "local.path"
	SettingRemoteDSN     = "remote.dsn"
	SettingDebug         = "debug"
	SettingRetentionDays = "activity.retention_days"
	SettingTimezone      = "timezone"

	// Profile defaults
	DefaultThemePrimary = "#c9a962"
	DefaultThemeAccent  = "#7c9a7a"
	DefaultThemeMode    = "dark"
	DefaultTimeFormat   = "12h"
	DefaultTimeFont     = "system"
)
