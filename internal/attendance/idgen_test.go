package attendance

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAttendanceID_Format(t *testing.T) {
	id, err := NewAttendanceID(context.Background(), func(context.Context, string) (bool, error) {
		return false, nil
	})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^A\d{3}$`), id)
}

func TestNewAttendanceID_SkipsTakenIDs(t *testing.T) {
	taken := map[string]bool{}
	for i := 0; i < 20; i++ {
		id, err := NewAttendanceID(context.Background(), func(_ context.Context, id string) (bool, error) {
			return taken[id], nil
		})
		require.NoError(t, err)
		assert.False(t, taken[id], "generator returned an ID it was told is taken")
		taken[id] = true
	}
}

func TestNewAttendanceID_Exhaustion(t *testing.T) {
	calls := 0
	_, err := NewAttendanceID(context.Background(), func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	})
	require.Error(t, err)
	assert.Equal(t, maxIDAttempts, calls)
}

func TestNewAttendanceIDBatch_Distinct(t *testing.T) {
	ids, err := NewAttendanceIDBatch(context.Background(), 60, func(context.Context, string) (bool, error) {
		return false, nil
	})
	require.NoError(t, err)
	require.Len(t, ids, 60)
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		assert.Regexp(t, regexp.MustCompile(`^A\d{3}$`), id)
		assert.False(t, seen[id], "batch returned %s twice", id)
		seen[id] = true
	}
}

func TestNewAttendanceIDBatch_SkipsTakenIDs(t *testing.T) {
	taken := map[string]bool{"A001": true, "A002": true, "A003": true}
	ids, err := NewAttendanceIDBatch(context.Background(), 10, func(_ context.Context, id string) (bool, error) {
		return taken[id], nil
	})
	require.NoError(t, err)
	for _, id := range ids {
		assert.False(t, taken[id])
	}
}

func TestNewAttendanceIDBatch_Exhaustion(t *testing.T) {
	_, err := NewAttendanceIDBatch(context.Background(), 5, func(context.Context, string) (bool, error) {
		return true, nil
	})
	assert.Error(t, err)
}

func TestNewAttendanceID_ExistsError(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := NewAttendanceID(context.Background(), func(context.Context, string) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}
