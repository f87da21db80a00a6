package disbursement

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDependencies_JSONArray(t *testing.T) {
	ids, err := ParseDependencies([]byte("[3,1,2,1]"))
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 3}, ids)
}

func TestParseDependencies_KeyValueCSV(t *testing.T) {
	ids, err := ParseDependencies([]byte("deps=5,6,5,7"))
	require.NoError(t, err)
	require.Equal(t, []uint64{5, 6, 7}, ids)
}

func TestParseDependencies_BareCSV(t *testing.T) {
	ids, err := ParseDependencies([]byte("9,8"))
	require.NoError(t, err)
	require.Equal(t, []uint64{8, 9}, ids)
}

func TestParseDependencies_Empty(t *testing.T) {
	ids, err := ParseDependencies([]byte("   "))
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestParseDependencies_RejectsOversizeInput(t *testing.T) {
	raw := []byte("deps=" + strings.Repeat("1,", MaxDependencyInputBytes))
	_, err := ParseDependencies(raw)
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, ErrSizeExceeded, perr.Kind)
}

func TestParseDependencies_RejectsTooManyIDs(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i <= MaxDependencies; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(itoa(i))
	}
	sb.WriteString("]")

	_, err := ParseDependencies([]byte(sb.String()))
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, ErrTooMany, perr.Kind)
}

func TestParseDependencies_RejectsNonInteger(t *testing.T) {
	_, err := ParseDependencies([]byte("[1,\"abc\"]"))
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, ErrNotAnInteger, perr.Kind)
}

func TestParseDependencies_RejectsMalformedJSON(t *testing.T) {
	_, err := ParseDependencies([]byte("[1,2"))
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, ErrMalformed, perr.Kind)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}

type fakeLookup struct {
	statuses map[uint64]Status
}

func (f fakeLookup) DisbursementStatus(id uint64) (Status, bool) {
	s, ok := f.statuses[id]
	return s, ok
}

func TestDependenciesReady_AllExecuted(t *testing.T) {
	lookup := fakeLookup{statuses: map[uint64]Status{1: StatusExecuted, 2: StatusFinalized}}
	ready, err := DependenciesReady(lookup, []uint64{1, 2}, false)
	require.NoError(t, err)
	require.True(t, ready)
}

func TestDependenciesReady_OneNotReady(t *testing.T) {
	lookup := fakeLookup{statuses: map[uint64]Status{1: StatusExecuted, 2: StatusQueued}}
	ready, err := DependenciesReady(lookup, []uint64{1, 2}, false)
	require.NoError(t, err)
	require.False(t, ready)
}

func TestDependenciesReady_UnknownFailsClosedByDefault(t *testing.T) {
	lookup := fakeLookup{statuses: map[uint64]Status{}}
	ready, err := DependenciesReady(lookup, []uint64{99}, false)
	require.NoError(t, err)
	require.False(t, ready)
}

func TestDependenciesReady_UnknownErrorsInStrictMode(t *testing.T) {
	lookup := fakeLookup{statuses: map[uint64]Status{}}
	_, err := DependenciesReady(lookup, []uint64{99}, true)
	require.ErrorIs(t, err, ErrStrictUnknownDependency)
}
