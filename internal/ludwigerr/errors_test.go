package ludwigerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProducesErrorWithKindAndOp(t *testing.T) {
	err := New(NotFound, "store.GetThread", "thread not found")
	assert.Equal(t, NotFound, err.Kind)
	assert.Equal(t, "store.GetThread", err.Op)
	assert.Contains(t, err.Error(), "store.GetThread")
	assert.Contains(t, err.Error(), "not_found")
}

func TestWrapPreservesCauseAndUnwraps(t *testing.T) {
	cause := errors.New("badger: key not found")
	err := Wrap(StorageError, "store.Update", cause)
	assert.Same(t, cause, err.Unwrap())
	assert.ErrorIs(t, err, cause)
}

func TestWrapOnNilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(StorageError, "store.Update", nil))
}

func TestIsMatchesKindThroughWrapping(t *testing.T) {
	base := New(CorruptData, "store.GetUser", "bad payload")
	wrapped := fmt.Errorf("decoding failed: %w", base)
	assert.True(t, Is(wrapped, CorruptData))
	assert.False(t, Is(wrapped, NotFound))
}

func TestIsReturnsFalseForPlainError(t *testing.T) {
	assert.False(t, Is(errors.New("plain"), NotFound))
}

func TestKindStringCoversAllKinds(t *testing.T) {
	cases := map[Kind]string{
		NotFound:        "not_found",
		Conflict:        "conflict",
		InvalidArgument: "invalid_argument",
		PermissionDenied: "permission_denied",
		CorruptData:     "corrupt_data",
		StorageError:    "storage_error",
		RateLimited:     "rate_limited",
		Unknown:         "unknown",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
}
