package domain

import "time"

// NotificationVariant controls how a notification is presented.
type NotificationVariant string

const (
	VariantDefault     NotificationVariant = "default"
	VariantDestructive NotificationVariant = "destructive"
	VariantWarning     NotificationVariant = "warning"
)

// Notification is a short, user-visible message. An empty UserID targets everyone.
type Notification struct {
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Variant     NotificationVariant `json:"variant"`
	UserID      string              `json:"user_id,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// Notification copy, in the reader's interface language.
const (
	MsgLoadFailedTitle        = "Gagal memuat data"
	MsgLoadFailedDescription  = "Terjadi kesalahan saat memuat data"
	MsgDetailFailedTitle      = "Gagal memuat detail surah"
	MsgDetailFailedDesc       = "Terjadi kesalahan saat memuat detail surah"
	MsgAudioFailedTitle       = "Gagal memuat audio"
	MsgAudioFailedDescription = "Terjadi kesalahan saat memuat audio. Silakan coba lagi nanti."
	MsgAudioNoSourceDesc      = "Audio tidak tersedia untuk bagian ini"
	MsgAudioMissingReciter    = "Audio qari tidak tersedia"
	MsgReciterChangedTitle    = "Qari diganti"
	MsgSignInRequiredTitle    = "Masuk diperlukan"
	MsgSignInRequiredDesc     = "Silakan masuk terlebih dahulu"
	MsgBookmarkAddedTitle     = "Bookmark berhasil ditambahkan"
	MsgBookmarkAddFailedTitle = "Gagal menambahkan bookmark"
	MsgBookmarkDeletedTitle   = "Bookmark dihapus"
	MsgBookmarkDeleteFailed   = "Gagal menghapus bookmark"
	MsgBookmarkLoadFailed     = "Gagal memuat bookmark"
	MsgLastReadSavedTitle     = "Posisi terakhir baca disimpan"
	MsgLastReadSaveFailed     = "Gagal menyimpan posisi"
	MsgBookmarkNameTooShort   = "Nama bookmark harus minimal 2 karakter"
	MsgSignedInTitle          = "Berhasil masuk"
	MsgSignedOutTitle         = "Berhasil keluar"
)

// NewNotification stamps a notification with the current time.
func NewNotification(variant NotificationVariant, title, description string) Notification {
	return Notification{
		Title:       title,
		Description: description,
		Variant:     variant,
		CreatedAt:   time.Now(),
	}
}

// ForUser returns a copy of n targeted at userID.
func (n Notification) ForUser(userID string) Notification {
	n.UserID = userID
	return n
}

// Notifier delivers notifications to the reader.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) { f(n) }

// NopNotifier discards notifications.
type NopNotifier struct{}

// Notify does nothing.
func (NopNotifier) Notify(Notification) {}
