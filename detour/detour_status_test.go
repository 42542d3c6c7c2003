package detour

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusBits(t *testing.T) {
	st := DT_SUCCESS | DT_PARTIAL_RESULT

	require.True(t, st.DtStatusSucceed())
	require.False(t, st.DtStatusFailed())
	require.False(t, st.DtStatusInProgress())
	require.True(t, st.DtStatusDetail(DT_PARTIAL_RESULT))
	require.False(t, st.DtStatusDetail(DT_OUT_OF_NODES))

	st = DT_FAILURE | DT_WRONG_MAGIC
	require.True(t, st.DtStatusFailed())
	require.True(t, st.DtStatusDetail(DT_WRONG_MAGIC))
}

func TestStatusError(t *testing.T) {
	require.NoError(t, DT_SUCCESS.Error())

	err := (DT_FAILURE | DT_WRONG_MAGIC).Error()
	require.Error(t, err)
	require.Contains(t, err.Error(), "wrong magic")

	err = (DT_FAILURE | DT_INVALID_PARAM).Error()
	require.Error(t, err)
}
