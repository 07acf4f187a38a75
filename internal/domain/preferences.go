package domain

// Preferences are reader settings persisted independently of any session.
type Preferences struct {
	ShowTranslation bool   `json:"show_translation"`
	Reciter         string `json:"reciter"`
}

// DefaultPreferences is what a fresh installation starts with.
func DefaultPreferences() Preferences {
	return Preferences{ShowTranslation: true, Reciter: DefaultReciterID}
}
