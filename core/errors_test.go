package core

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHelpers(t *testing.T) {
	testCases := []struct {
		name    string
		err     error
		checker func(error) bool
		want    bool
	}{
		{"unknown table", &UnknownTableError{Table: "bogus"}, IsUnknownTable, true},
		{"unknown table wrapped", fmt.Errorf("lookup: %w", &UnknownTableError{Table: "bogus"}), IsUnknownTable, true},
		{"unknown table mismatch", errors.New("plain"), IsUnknownTable, false},
		{"unknown column", &UnknownColumnError{Table: "ping", Column: "Missing"}, IsUnknownColumn, true},
		{"invalid time range", &InvalidTimeRangeError{Start: time.Now(), End: time.Now().Add(-time.Hour)}, IsInvalidTimeRange, true},
		{"invalid frequency", &InvalidFrequencyError{Freq: "7s"}, IsInvalidFrequency, true},
		{"store error", &StoreError{Query: "SELECT 1", Err: errors.New("conn refused")}, IsStoreError, true},
		{"batch error", &BatchError{BatchID: "b1", Queries: 2, Err: errors.New("boom")}, IsBatchError, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.checker(tc.err))
		})
	}
}

func TestBatchErrorUnwrapsToCause(t *testing.T) {
	cause := &StoreError{Query: "SELECT RTT FROM ping_1s", Err: errors.New("timeout")}
	batch := &BatchError{BatchID: "b42", Queries: 3, Err: cause}

	require.True(t, IsBatchError(batch))
	require.True(t, IsStoreError(batch), "the store failure must stay reachable through the batch wrapper")

	var se *StoreError
	require.True(t, errors.As(batch, &se))
	assert.Equal(t, "SELECT RTT FROM ping_1s", se.Query)
	assert.Contains(t, batch.Error(), "b42")
	assert.Contains(t, batch.Error(), "3 queries")
}

func TestStoreErrorMessageCarriesQuery(t *testing.T) {
	err := &StoreError{Query: "SHOW TAG VALUES", Err: errors.New("eof")}
	assert.Contains(t, err.Error(), "SHOW TAG VALUES")
	assert.ErrorContains(t, err, "eof")
}
