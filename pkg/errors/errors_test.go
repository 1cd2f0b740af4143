package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTypes(t *testing.T) {
	t.Run("out of range names parameter and value", func(t *testing.T) {
		err := OutOfRange("page_size", 0)
		assert.True(t, IsOutOfRange(err))
		assert.Contains(t, err.Error(), "page_size")
		assert.Contains(t, err.Error(), "got 0")
	})

	t.Run("unsupported mode names the mode", func(t *testing.T) {
		err := UnsupportedMode("evaluation mode", "eager")
		assert.True(t, IsInvalidArgument(err))
		assert.Contains(t, err.Error(), `"eager"`)
	})

	t.Run("multiplicity", func(t *testing.T) {
		err := MoreThanOneElement()
		assert.True(t, IsMultipleElements(err))
		assert.False(t, IsNotFound(err))
	})

	t.Run("no elements is not found", func(t *testing.T) {
		assert.True(t, IsNotFound(NoElements()))
	})

	t.Run("survives wrapping", func(t *testing.T) {
		err := fmt.Errorf("loading page: %w", OutOfRange("page_number", -1))
		assert.True(t, IsOutOfRange(err))
		assert.False(t, IsInternal(err))
	})

	t.Run("wrap keeps cause", func(t *testing.T) {
		cause := errors.New("boom")
		err := Wrap(ErrorTypeInternal, "executing query", cause)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "INTERNAL: executing query: boom", err.Error())
	})
}
