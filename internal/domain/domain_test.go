package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	cases := map[string]TransferStatus{
		"PENDING":       StatusPending,
		"pending":       StatusPending,
		"Picked Up":     StatusPickedUp,
		"PICKED_UP":     StatusPickedUp,
		"received":      StatusReceived,
		"Pending at WH": StatusPendingWarehouse,
		"  sent  ":      StatusSent,
	}
	for label, want := range cases {
		got, ok := ParseStatus(label)
		assert.True(t, ok, label)
		assert.Equal(t, want, got, label)
	}

	_, ok := ParseStatus("teleported")
	assert.False(t, ok)
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole(" manager ")
	assert.True(t, ok)
	assert.Equal(t, RoleManager, role)

	_, ok = ParseRole("astronaut")
	assert.False(t, ok)
}

func TestRegion(t *testing.T) {
	assert.Equal(t, "RY", Region("RY1"))
	assert.Equal(t, "JD", Region("JD22"))
	assert.Equal(t, "X", Region("X"))
	assert.Equal(t, "", Region(""))
}
