package content

import (
	"bytes"
	"encoding/json/v2"
	"fmt"

	"github.com/tilawahapp/tilawah-server/internal/domain"
)

type audioKind uint8

const (
	audioAbsent audioKind = iota
	audioLegacyURL
	audioPerReciter
)

// audioField is the wire shape of an audio reference. Older responses carry a
// single URL string, current ones a reciter-id to URL object. It is decoded
// here and normalized before leaving the package.
type audioField struct {
	kind       audioKind
	legacyURL  string
	perReciter map[string]string
}

// UnmarshalJSON accepts a string, an object of strings, or null.
func (a *audioField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = audioField{}
		return nil
	}

	switch data[0] {
	case '"':
		var url string
		if err := json.Unmarshal(data, &url); err != nil {
			return err
		}
		*a = audioField{}
		if url != "" {
			*a = audioField{kind: audioLegacyURL, legacyURL: url}
		}
		return nil
	case '{':
		var m map[string]string
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		*a = audioField{kind: audioPerReciter, perReciter: m}
		return nil
	default:
		return fmt.Errorf("audio: unsupported JSON value %.20q", data)
	}
}

// normalize converts any shape into the canonical mapping. A legacy URL is
// keyed by the default reciter; absent audio yields an empty, non-nil map.
func (a audioField) normalize() domain.AudioSources {
	out := domain.AudioSources{}
	switch a.kind {
	case audioLegacyURL:
		out[domain.DefaultReciterID] = a.legacyURL
	case audioPerReciter:
		for id, url := range a.perReciter {
			if url != "" {
				out[id] = url
			}
		}
	}
	return out
}
