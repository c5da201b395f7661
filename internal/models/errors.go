package models

import "errors"

// Pipeline error taxonomy. Analysis, composite and synthesis failures
// are fatal to a run; search-item and image-fetch failures are absorbed
// at item/candidate scope and recorded in step metadata.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrAnalysisFailed   = errors.New("analysis failed")
	ErrSearchItemFailed = errors.New("search item failed")
	ErrImageFetchFailed = errors.New("image fetch failed")
	ErrCompositeFailed  = errors.New("composite failed")
	ErrSynthesisFailed  = errors.New("synthesis failed")
	ErrTimeout          = errors.New("run timed out")
)

// StageError wraps a fatal error with the pipeline stage that produced
// it, so callers always learn which stage failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}
