package domain

// DefaultReciterID is used when no reciter has been chosen and as the key
// for audio supplied as a single legacy URL.
const DefaultReciterID = "01"

// UnknownReciterName is returned for ids outside the catalog.
const UnknownReciterName = "Unknown"

// Reciter (qari) of the audio recitations.
type Reciter struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var reciters = []Reciter{
	{ID: "01", Name: "Abdullah Al-Juhany"},
	{ID: "02", Name: "Abdul Muhsin Al-Qasim"},
	{ID: "03", Name: "Abdurrahman as-Sudais"},
	{ID: "04", Name: "Ibrahim Al-Dossari"},
	{ID: "05", Name: "Misyari Rasyid Al-Afasi"},
}

// Reciters returns a copy of the fixed catalog in id order.
func Reciters() []Reciter {
	out := make([]Reciter, len(reciters))
	copy(out, reciters)
	return out
}

// ReciterName returns the display name for id, or UnknownReciterName.
func ReciterName(id string) string {
	for _, r := range reciters {
		if r.ID == id {
			return r.Name
		}
	}
	return UnknownReciterName
}

// KnownReciter reports whether id is in the catalog.
func KnownReciter(id string) bool {
	return ReciterName(id) != UnknownReciterName
}
