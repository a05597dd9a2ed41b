package pkg

import (
	"coderoom"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestAssertNoError(t *testing.T) {
	coderoom.Logger = zerolog.Nop()

	assert.NotPanics(t, func() { AssertNoError(nil) })
	assert.Panics(t, func() { AssertNoError(errors.New("boom")) })
}
