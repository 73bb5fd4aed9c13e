package constants

// SyncState is the canonical state of a mailbox sync run.
type SyncState string

// Stable values (reported to callers and logged as-is).
const (
	SyncStateIdle            SyncState = "IDLE"
	SyncStateConnecting      SyncState = "CONNECTING"
	SyncStateFetching        SyncState = "FETCHING"
	SyncStateProcessing      SyncState = "PROCESSING_MESSAGES"
	SyncStateDone            SyncState = "DONE"             // terminal success
	SyncStateFailed          SyncState = "FAILED"           // connection-level failure, cursor untouched
	SyncStatePartiallyFailed SyncState = "PARTIALLY_FAILED" // batch completed with message-level errors
)
