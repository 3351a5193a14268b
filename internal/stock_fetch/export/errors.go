package export

import (
	"errors"
	"fmt"

	"stock-fetch/internal/stock_fetch/model"
)

// ErrEmptyInput signals that there were no records to export. Callers map
// it to a "nothing to do" response rather than a server error.
var ErrEmptyInput = errors.New("export: no records to export")

// DataError marks a record that cannot be partitioned (missing or zero
// timestamp). The run aborts before any serialization happens.
type DataError struct {
	RecordID int64
	Reason   string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("export: record %d: %s", e.RecordID, e.Reason)
}

// UploadError wraps the first upload failure of a run and carries the
// partitions that were already uploaded, so the caller can retry only the
// remainder.
type UploadError struct {
	Err       error
	Completed []model.PartitionUpload
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("export: upload failed after %d completed partition(s): %v", len(e.Completed), e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
