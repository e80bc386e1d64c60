package herrors

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestStatusCodeOfMapsKnownKinds(t *testing.T) {
	assert.Equal(t, StatusConflict, StatusCodeOf(NotAccessible("Write", "Immutable")))
	assert.Equal(t, StatusNotFound, StatusCodeOf(HolonNotFound("abc")))
	assert.Equal(t, StatusServerError, StatusCodeOf(DuplicateError("staged_holon", "book-1")))
	assert.Equal(t, StatusUnprocessableEntity, StatusCodeOf(DeletionNotAllowed("AUTHORED_BY")))
	assert.Equal(t, StatusOK, StatusCodeOf(nil))
}

func TestStatusCodeOfDefaultsUnknownErrors(t *testing.T) {
	assert.Equal(t, StatusServerError, StatusCodeOf(errors.New("boom")))
}

func TestCrossTransactionReferenceCarriesIDs(t *testing.T) {
	err := CrossTransactionReference(7, 8)
	assert.Equal(t, KindCrossTransactionReference, err.Kind())
	assert.Contains(t, err.Error(), "reference_tx=7")
	assert.Contains(t, err.Error(), "context_tx=8")
}

func TestCommitFailureWrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := CommitFailure(cause, "persist node")
	assert.ErrorIs(t, err, cause)
}
