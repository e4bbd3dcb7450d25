package view

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_LoadingWhileAnyPending(t *testing.T) {
	tr := NewTracker("companies", "stats")
	assert.False(t, tr.Loading())

	tr.Begin("companies")
	tr.Begin("stats")
	assert.True(t, tr.Loading())
	assert.Equal(t, []string{"companies", "stats"}, tr.Pending())

	tr.Done("stats", nil)
	assert.True(t, tr.Loading())
	assert.Equal(t, []string{"companies"}, tr.Pending())

	tr.Done("companies", nil)
	assert.False(t, tr.Loading())
	assert.Empty(t, tr.Pending())
}

func TestTracker_FirstErrorInRegistrationOrder(t *testing.T) {
	tr := NewTracker("companies", "stats")
	statsErr := errors.New("stats failed")
	companiesErr := errors.New("companies failed")

	tr.Begin("companies")
	tr.Begin("stats")
	tr.Done("stats", statsErr)
	assert.Equal(t, statsErr, tr.Err())

	tr.Done("companies", companiesErr)
	assert.Equal(t, companiesErr, tr.Err())
}

func TestTracker_BeginClearsPreviousError(t *testing.T) {
	tr := NewTracker("companies")
	tr.Begin("companies")
	tr.Done("companies", errors.New("boom"))
	assert.Error(t, tr.Err())

	tr.Begin("companies")
	assert.NoError(t, tr.Err())
}

func TestTracker_AutoRegisters(t *testing.T) {
	tr := NewTracker()
	tr.Begin("late")
	assert.Equal(t, []string{"late"}, tr.Names())
	tr.Done("unknown", nil)
	assert.Equal(t, []string{"late", "unknown"}, tr.Names())
}
