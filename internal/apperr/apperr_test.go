package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{InvalidArgument("bad"), http.StatusBadRequest},
		{InsufficientStock("Insufficient stock. Available: %d", 2), http.StatusBadRequest},
		{InvalidState("Order is already cancelled"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{AccessDenied("not yours"), http.StatusNotFound},
		{Internal(errors.New("boom"), "failed"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("place order: %w", NotFound("Product with ID %d not found", 7))

	require.True(t, Is(err, KindNotFound))
	assert.Equal(t, "Product with ID 7 not found", Message(err))
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal(cause, "Failed to place order")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Failed to place order", Message(err))
	assert.Equal(t, "Failed to place order: connection reset", err.Error())
	assert.Equal(t, "Internal server error", Message(errors.New("raw")))
}
