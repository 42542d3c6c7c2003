package detour

// DtStatus is the composable result protocol for all navigation queries.
// Exactly one of the high level bits is set; detail bits may combine with
// it (e.g. a successful but partial path search).
type DtStatus uint32

const (
	// High level status.
	DT_FAILURE     DtStatus = 1 << 31 // Operation failed.
	DT_SUCCESS     DtStatus = 1 << 30 // Operation succeed.
	DT_IN_PROGRESS DtStatus = 1 << 29 // Operation still in progress.

	// Detail information for status.
	DT_STATUS_DETAIL_MASK DtStatus = 0x0ffffff
	DT_WRONG_MAGIC        DtStatus = 1 << 0 // Input data is not recognized.
	DT_WRONG_VERSION      DtStatus = 1 << 1 // Input data is in wrong version.
	DT_OUT_OF_MEMORY      DtStatus = 1 << 2 // Operation ran out of memory.
	DT_INVALID_PARAM      DtStatus = 1 << 3 // An input parameter was invalid.
	DT_BUFFER_TOO_SMALL   DtStatus = 1 << 4 // Result buffer for the query was too small to store all results.
	DT_OUT_OF_NODES       DtStatus = 1 << 5 // Query ran out of nodes during search.
	DT_PARTIAL_RESULT     DtStatus = 1 << 6 // Query did not reach the end location, returning best guess.
	DT_ALREADY_OCCUPIED   DtStatus = 1 << 7 // A tile has already been assigned to the given x,y coordinate
)

// Returns true of status is success.
func (status DtStatus) DtStatusSucceed() bool {
	return (status & DT_SUCCESS) != 0
}

// Returns true of status is failure.
func (status DtStatus) DtStatusFailed() bool {
	return (status & DT_FAILURE) != 0
}

// Returns true of status is in progress.
func (status DtStatus) DtStatusInProgress() bool {
	return (status & DT_IN_PROGRESS) != 0
}

// Returns true if specific detail is set.
func (status DtStatus) DtStatusDetail(detail DtStatus) bool {
	return (status & detail) != 0
}

// Error adapts a failed status to a Go error for call sites that want to
// bubble tile codec problems through error returns. A success status maps
// to nil.
func (status DtStatus) Error() error {
	if !status.DtStatusFailed() {
		return nil
	}
	return statusError(status)
}

type statusError DtStatus

func (e statusError) Error() string {
	s := DtStatus(e)
	switch {
	case s.DtStatusDetail(DT_WRONG_MAGIC):
		return "wrong magic"
	case s.DtStatusDetail(DT_WRONG_VERSION):
		return "wrong version"
	case s.DtStatusDetail(DT_OUT_OF_MEMORY):
		return "out of memory"
	case s.DtStatusDetail(DT_INVALID_PARAM):
		return "invalid parameter"
	case s.DtStatusDetail(DT_BUFFER_TOO_SMALL):
		return "buffer too small"
	case s.DtStatusDetail(DT_OUT_OF_NODES):
		return "out of nodes"
	case s.DtStatusDetail(DT_PARTIAL_RESULT):
		return "partial result"
	case s.DtStatusDetail(DT_ALREADY_OCCUPIED):
		return "tile location already occupied"
	}
	return "failure"
}
