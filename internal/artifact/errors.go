package artifact

import "fmt"

// Stage names the part of a download that failed
type Stage string

// Download stages
const (
	StageFetch  Stage = "fetch"
	StageSpool  Stage = "spool"
	StageVerify Stage = "verify"
	StageSave   Stage = "save"
)

// Error reports a failed download
type Error struct {
	Stage   Stage
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("download %s failed: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("download %s failed: %s", e.Stage, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
