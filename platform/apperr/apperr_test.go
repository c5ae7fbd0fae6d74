package apperr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetKindUnwrapsChain(t *testing.T) {
	wrapped := fmt.Errorf("update invoice: %w", Locked("approved quotes cannot be edited"))

	assert.Equal(t, KindLocked, GetKind(wrapped))
	assert.True(t, Is(wrapped, KindLocked))
	assert.False(t, Is(wrapped, KindNotFound))
}

func TestGetKindPlainError(t *testing.T) {
	assert.Equal(t, KindUnknown, GetKind(fmt.Errorf("boom")))
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[*Error]int{
		NotFound("x"):          http.StatusNotFound,
		Validation("x"):        http.StatusBadRequest,
		Gone("x"):              http.StatusGone,
		Locked("x"):            http.StatusLocked,
		InvalidTransition("x"): http.StatusUnprocessableEntity,
		Internal("x"):          http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, err.HTTPStatus(), "kind %d", err.Kind)
	}
}

func TestErrorMessageIncludesOp(t *testing.T) {
	err := NotFound("invoice not found").WithOp("invoices.GetByID")
	assert.Equal(t, "invoices.GetByID: invoice not found", err.Error())
}
