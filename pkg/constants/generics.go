package constants

// RFC3339MilliDateTimeFormat keeps millisecond precision so clients can order entries created
// within the same second.
const RFC3339MilliDateTimeFormat = "2006-01-02T15:04:05.000Z07:00"
