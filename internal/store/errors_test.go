package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	domainerrors "github.com/tilawahapp/tilawah-server/internal/errors"
)

func TestErrors_MatchDomainCodes(t *testing.T) {
	err := fmt.Errorf("get last read: %w", ErrNotFound)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	assert.NotErrorIs(t, err, domainerrors.ErrValidation)

	assert.ErrorIs(t, ErrAlreadyExists, domainerrors.ErrConflict)
	assert.ErrorIs(t, ErrInvalidInput.WithCause(fmt.Errorf("bad chapter")), domainerrors.ErrValidation)
}
