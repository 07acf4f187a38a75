package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 500)
	for range 500 {
		v, err := Generate(PrefixBookmark)
		require.NoError(t, err)
		_, dup := seen[v]
		require.False(t, dup, "duplicate id %s", v)
		seen[v] = struct{}{}
	}
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{PrefixBookmark, PrefixLastRead, PrefixSession, PrefixUser, PrefixPlayer} {
		t.Run(prefix, func(t *testing.T) {
			v := MustGenerate(prefix)
			assert.True(t, HasPrefix(v, prefix))
			assert.Len(t, v, len(prefix)+1+21)
		})
	}
}

func TestHasPrefix(t *testing.T) {
	assert.False(t, HasPrefix("bm-", PrefixBookmark))
	assert.False(t, HasPrefix("lr-abc", PrefixBookmark))
	assert.True(t, HasPrefix("bm-abc", PrefixBookmark))
}
