package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/tilawahapp/tilawah-server/internal/errors"
	"github.com/tilawahapp/tilawah-server/internal/validation"
)

type bookmarkForm struct {
	Chapter int    `json:"chapter" validate:"chapter"`
	Verse   *int   `json:"verse,omitempty" validate:"omitempty,gte=1"`
	Name    string `json:"name" validate:"trimmin=2,max=100"`
}

type reciterForm struct {
	Reciter string `json:"reciter" validate:"required,reciter"`
}

func TestValidator_Valid(t *testing.T) {
	v := validation.New()
	verse := 7

	assert.NoError(t, v.Validate(bookmarkForm{Chapter: 1, Verse: &verse, Name: "Pembuka"}))
	assert.NoError(t, v.Validate(bookmarkForm{Chapter: 114, Name: "An-Nas"}))
	assert.NoError(t, v.Validate(reciterForm{Reciter: "05"}))
}

func TestValidator_FieldErrors(t *testing.T) {
	v := validation.New()
	zero := 0

	tests := []struct {
		name      string
		input     any
		wantField string
		wantMsg   string
	}{
		{"chapter out of range", bookmarkForm{Chapter: 150, Name: "ok name"}, "chapter", "between 1 and 114"},
		{"verse below one", bookmarkForm{Chapter: 2, Verse: &zero, Name: "ok name"}, "verse", "greater than or equal to 1"},
		{"name padded to length", bookmarkForm{Chapter: 2, Name: "  a  "}, "name", "at least 2 characters"},
		{"unknown reciter", reciterForm{Reciter: "42"}, "reciter", "known reciter"},
		{"missing reciter", reciterForm{}, "reciter", "is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)

			var derr *domainerrors.Error
			require.ErrorAs(t, err, &derr)
			details, ok := derr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details[tt.wantField], tt.wantMsg)
		})
	}
}
