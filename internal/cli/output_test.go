package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "2 surface(s) failed")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "no goal selected")))
	assert.Equal(t, ExitCommandError, GetExitCode(errors.New("something else")))

	wrapped := fmt.Errorf("context: %w", NewExitError(ExitFailure, "failed"))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
}

func TestExitErrorMessage(t *testing.T) {
	err := WrapExitError(ExitCommandError, "loading cache", errors.New("no such file"))
	assert.Equal(t, "loading cache: no such file", err.Error())
	assert.Equal(t, "no such file", err.Unwrap().Error())

	assert.Equal(t, "no goal selected", NewExitError(ExitCommandError, "no goal selected").Error())
}
