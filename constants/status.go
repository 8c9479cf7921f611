package constants

// RunStatus is the canonical status for rows in split_run.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusQueued    RunStatus = "QUEUED"    // waiting in the daemon queue
	RunStatusRunning   RunStatus = "RUNNING"   // text extraction / segmentation in progress
	RunStatusSegmented RunStatus = "SEGMENTED" // documents assembled and stored
	RunStatusFailed    RunStatus = "FAILED"    // terminal failure
)

// PageBreakMarker is written before every page after the first in combined document text.
const PageBreakMarker = "\n\n--- Page %d ---\n"
