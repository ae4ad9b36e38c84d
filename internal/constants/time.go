package constants

const (
	// DateFormat is the date-key format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimestampFormat is the fixed-width UTC layout used to persist timestamps.
	// Fixed width keeps lexical order equal to chronological order.
	TimestampFormat = "2006-01-02T15:04:05.000Z"

	// MiddayHour is the local hour used when a calendar day is represented as a time.Time
	MiddayHour = 12
)
