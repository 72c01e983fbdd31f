package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrder(st OrderStatus) Order {
	return Order{
		ID:        "o1",
		TableName: "Table A",
		Status:    st,
		Items:     []OrderItem{{ID: "m1", Name: "コーヒー", Price: 300, Quantity: 2}},
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestApplyStatus_SameStatusIsNoop(t *testing.T) {
	for _, st := range []OrderStatus{StatusUnprovided, StatusProvided, StatusPaid} {
		for _, p := range []TransitionPolicy{PolicyLenient, PolicyForwardOnly} {
			in := sampleOrder(st)
			out, err := ApplyStatus(in, st, p)
			require.NoError(t, err)
			assert.Equal(t, in, out)
		}
	}
}

func TestApplyStatus_LenientAllowsBackward(t *testing.T) {
	out, err := ApplyStatus(sampleOrder(StatusPaid), StatusUnprovided, PolicyLenient)
	require.NoError(t, err)
	assert.Equal(t, StatusUnprovided, out.Status)
}

func TestApplyStatus_ForwardOnly(t *testing.T) {
	out, err := ApplyStatus(sampleOrder(StatusProvided), StatusPaid, PolicyForwardOnly)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, out.Status)

	_, err = ApplyStatus(sampleOrder(StatusPaid), StatusProvided, PolicyForwardOnly)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestApplyStatus_DoesNotMutateInput(t *testing.T) {
	in := sampleOrder(StatusUnprovided)
	_, err := ApplyStatus(in, StatusProvided, PolicyLenient)
	require.NoError(t, err)
	assert.Equal(t, StatusUnprovided, in.Status)
}

func TestApplyStatus_Unknown(t *testing.T) {
	_, err := ApplyStatus(sampleOrder(StatusUnprovided), "cooking", PolicyLenient)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" PAID ")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, st)

	_, err = ParseStatus("ready")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyLenient, p)

	p, err = ParsePolicy("forward_only")
	require.NoError(t, err)
	assert.Equal(t, PolicyForwardOnly, p)

	_, err = ParsePolicy("strict")
	assert.Error(t, err)
}
