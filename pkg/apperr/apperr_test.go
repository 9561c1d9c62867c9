package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := New(KindNotFound, "order not found")
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindForbidden))
}

func TestKindOfWrapped(t *testing.T) {
	inner := Wrap(KindConflict, "assignment race lost", errors.New("rows affected: 0"))
	outer := fmt.Errorf("assign order: %w", inner)

	assert.Equal(t, KindConflict, KindOf(outer))
	assert.Equal(t, "assignment race lost", Message(outer))
}

func TestUnclassifiedIsInternal(t *testing.T) {
	err := errors.New("sql: connection reset")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "internal server error", Message(err))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(KindInternal, "something failed", cause)
	assert.ErrorIs(t, err, cause)
}
