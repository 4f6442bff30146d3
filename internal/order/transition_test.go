package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermissive(t *testing.T) {
	for _, from := range statuses {
		for _, to := range statuses {
			assert.True(t, Permissive(from, to), "%s -> %s", from, to)
		}
	}
}

func TestLifecycle(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusProcessing, StatusRefunded, true},
		{StatusCancelled, StatusCancelled, true},
		{StatusDelivered, StatusPending, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusShipped, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusRefunded, StatusConfirmed, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Lifecycle(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}
