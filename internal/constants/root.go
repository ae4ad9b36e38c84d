package constants

const (
	AppName            = "dailytrack"
	DefaultKeyringUser = "database-connection"
	SessionKeyringUser = "session"
	DefaultConfigDir   = "~/.config/dailytrack"
	DefaultDBPath      = "~/.config/dailytrack/dailytrack.db"
	Version            = "v0.1.0"

	// Log file rotation
	LogDirName     = "logs"
	LogMaxSizeMB   = 10
	LogMaxBackups  = 3
	LogMaxAgeDays  = 28
	LogLevelEnvVar = "DAILYTRACK_LOG_LEVEL"

	// Lockfile guarding the local database against a second writer process
	LockfileName = "dailytrack.lock"

	// Activity log
	ActivityRetentionDays = 30
	RecentActivityLimit   = 100

	// Remote maintenance
	MigrationBatchSize     = 75
	MigrationLogLimit      = 1000
	BackfillBatchSize      = 200
	MigrationMarkerPrefix  = "dailytrack.remote.migrated.v1."
	MigrationStartPrefix   = "dailytrack.remote.migrating.v1."
	BackfillMarkerPrefix   = "dailytrack.remote.backfill.owner_email.v1."
	RemoteSchemaName       = AppName
	RemoteBackendName      = "remote"
	LocalBackendName       = "local"
	DefaultBackendName     = LocalBackendName
	RemoteConnectionEnvVar = "DAILYTRACK_DB_CONNECTION"
)
