package content

import (
	"bytes"
	"encoding/json/v2"

	"github.com/tilawahapp/tilawah-server/internal/domain"
)

// Raw API response types (internal)

type envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    *T     `json:"data"`
}

type rawChapter struct {
	Number     int        `json:"nomor"`
	Name       string     `json:"nama"`
	LatinName  string     `json:"namaLatin"`
	VerseCount int        `json:"jumlahAyat"`
	Revelation string     `json:"tempatTurun"`
	Meaning    string     `json:"arti"`
	Desc       string     `json:"deskripsi"`
	AudioFull  audioField `json:"audioFull"`
}

type rawVerse struct {
	Number      int        `json:"nomorAyat"`
	Arabic      string     `json:"teksArab"`
	Latin       string     `json:"teksLatin"`
	Translation string     `json:"teksIndonesia"`
	Audio       audioField `json:"audio"`
}

type rawDetail struct {
	rawChapter `json:",inline"`
	Verses   []rawVerse `json:"ayat"`
	Next     navField   `json:"suratSelanjutnya"`
	Previous navField   `json:"suratSebelumnya"`
}

// navField is either a chapter reference object or the literal false.
type navField struct {
	ref *domain.ChapterRef
}

type rawRef struct {
	Number     int    `json:"nomor"`
	Name       string `json:"nama"`
	LatinName  string `json:"namaLatin"`
	VerseCount int    `json:"jumlahAyat"`
}

func (n *navField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		n.ref = nil
		return nil
	}
	var r rawRef
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	n.ref = &domain.ChapterRef{
		Number:     r.Number,
		Name:       r.Name,
		LatinName:  r.LatinName,
		VerseCount: r.VerseCount,
	}
	return nil
}
