package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	edges := map[Status][]Status{
		StatusPending:        {StatusPreparing, StatusCancelled},
		StatusPreparing:      {StatusReady, StatusCancelled},
		StatusReady:          {StatusOutForDelivery, StatusCancelled},
		StatusOutForDelivery: {StatusDelivered, StatusCancelled},
	}

	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			want := false
			for _, allowed := range edges[from] {
				if allowed == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, StatusDelivered.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusOutForDelivery.IsTerminal())
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("out_for_delivery")
	require.NoError(t, err)
	assert.Equal(t, StatusOutForDelivery, st)

	_, err = ParseStatus("OUT_FOR_DELIVERY")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ParseStatus("completed")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStatus_Deletable(t *testing.T) {
	assert.True(t, StatusPending.Deletable())
	assert.True(t, StatusCancelled.Deletable())
	assert.True(t, StatusDelivered.Deletable())
	assert.False(t, StatusPreparing.Deletable())
	assert.False(t, StatusReady.Deletable())
	assert.False(t, StatusOutForDelivery.Deletable())
}
