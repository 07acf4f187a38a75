// Package quran holds the reader's content state: the chapter list, the chapter
// currently open, loading and error flags, and the two persisted preferences.
//
// A Manager is built once at startup, initialized, and shared by every caller.
// Readers take a Snapshot; writers go through the operations below, which
// notify subscribers after each committed change.
package quran

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/tilawahapp/tilawah-server/internal/domain"
	domainerrors "github.com/tilawahapp/tilawah-server/internal/errors"
)

var (
	// ErrChapterNotFound is returned for chapter numbers outside 1..114.
	ErrChapterNotFound = domainerrors.NotFoundf("chapter not found")
	// ErrInvalidReciter is returned when selecting an empty reciter id.
	ErrInvalidReciter = domainerrors.Validation("reciter id is required")
	// ErrClosed is returned by operations on a closed Manager.
	ErrClosed = domainerrors.Internal("content state closed")
)

// ContentSource fetches chapters from the remote content API.
type ContentSource interface {
	ListChapters(ctx context.Context) ([]domain.Chapter, error)
	GetChapter(ctx context.Context, n int) (*domain.ChapterDetail, error)
}

// PreferenceStore persists reader preferences.
type PreferenceStore interface {
	Load() (domain.Preferences, error)
	SaveShowTranslation(show bool) error
	SaveReciter(id string) error
}

// Indexer receives every chapter detail committed to state.
type Indexer interface {
	IndexChapter(ctx context.Context, detail *domain.ChapterDetail) error
}

// Options configures a Manager. Source and Prefs are required.
type Options struct {
	Source   ContentSource
	Prefs    PreferenceStore
	Notifier domain.Notifier
	Indexer  Indexer
	Logger   *slog.Logger
}

// Snapshot is a point-in-time copy of the state. Detail is shared and must
// be treated as read-only.
type Snapshot struct {
	Chapters        []domain.Chapter      `json:"chapters"`
	Detail          *domain.ChapterDetail `json:"detail,omitempty"`
	Loading         bool                  `json:"loading"`
	LoadingDetail   bool                  `json:"loading_detail"`
	Error           string                `json:"error,omitempty"`
	ShowTranslation bool                  `json:"show_translation"`
	Reciter         string                `json:"reciter"`
}

// Preferences returns the preference part of s.
func (s Snapshot) Preferences() domain.Preferences {
	return domain.Preferences{ShowTranslation: s.ShowTranslation, Reciter: s.Reciter}
}

// Listener is called with the new state after every committed change.
type Listener func(Snapshot)

// Manager owns the content state.
type Manager struct {
	source   ContentSource
	prefs    PreferenceStore
	notifier domain.Notifier
	indexer  Indexer
	logger   *slog.Logger

	mu            sync.RWMutex
	chapters      []domain.Chapter
	detail        *domain.ChapterDetail
	loading       bool
	loadingDetail bool
	errMsg        string
	preferences   domain.Preferences
	prefsLoaded   bool
	generation    uint64
	closed        bool

	listenersMu sync.RWMutex
	listeners   map[int]Listener
	nextID      int

	indexWG sync.WaitGroup
}

// New creates a Manager in its initial state: loading, no chapters, default
// preferences. Call Initialize to populate it.
func New(opts Options) *Manager {
	if opts.Notifier == nil {
		opts.Notifier = domain.NopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		source:      opts.Source,
		prefs:       opts.Prefs,
		notifier:    opts.Notifier,
		indexer:     opts.Indexer,
		logger:      opts.Logger.With("component", "quran"),
		loading:     true,
		preferences: domain.DefaultPreferences(),
		listeners:   make(map[int]Listener),
	}
}

// Initialize loads preferences (unless LoadPreferences already did) and fetches
// the chapter list.
// A failed fetch is recorded in state and reported through the notifier; it
// is also returned so startup code can log it. There is no retry.
func (m *Manager) Initialize(ctx context.Context) error {
	m.LoadPreferences()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.loading = true
	m.mu.Unlock()

	chapters, err := m.source.ListChapters(ctx)

	m.mu.Lock()
	m.loading = false
	if err != nil {
		m.errMsg = domain.MsgLoadFailedDescription
	} else {
		m.chapters = chapters
		m.errMsg = ""
	}
	m.mu.Unlock()

	if err != nil {
		m.logger.Error("failed to load chapter list", "error", err)
		m.notifier.Notify(domain.NewNotification(domain.VariantDestructive,
			domain.MsgLoadFailedTitle, domain.MsgLoadFailedDescription))
	} else {
		m.logger.Info("chapter list loaded", "count", len(chapters))
	}

	m.publish()
	return err
}

// LoadPreferences reads stored preferences into state. Only the first call
// has an effect, so later calls never overwrite changes made since.
func (m *Manager) LoadPreferences() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prefsLoaded {
		return
	}
	m.prefsLoaded = true

	prefs, err := m.prefs.Load()
	if err != nil {
		m.logger.Warn("using default preferences", "error", err)
		return
	}
	m.preferences = prefs
}

// FetchChapterDetail loads chapter n into state and returns it.
//
// The currently open chapter is returned as is. Otherwise every call takes a
// new generation; when a newer call starts before this one finishes, this
// result is still returned to the caller but never committed. On failure the
// previously open chapter stays in place.
func (m *Manager) FetchChapterDetail(ctx context.Context, n int) (*domain.ChapterDetail, error) {
	if !domain.ValidChapter(n) {
		return nil, ErrChapterNotFound
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if m.detail != nil && m.detail.Number == n {
		detail := m.detail
		m.mu.Unlock()
		return detail, nil
	}
	m.generation++
	gen := m.generation
	m.loadingDetail = true
	m.mu.Unlock()
	m.publish()

	detail, err := m.source.GetChapter(ctx, n)

	m.mu.Lock()
	current := gen == m.generation && !m.closed
	indexing := false
	if current {
		m.loadingDetail = false
		if err != nil {
			m.errMsg = domain.MsgDetailFailedDesc
		} else {
			m.detail = detail
			m.errMsg = ""
			// Registered under the lock so Close cannot miss it.
			if m.indexer != nil {
				m.indexWG.Add(1)
				indexing = true
			}
		}
	}
	m.mu.Unlock()

	if err != nil {
		m.logger.Error("failed to load chapter detail", "chapter", n, "error", err)
		if current {
			m.notifier.Notify(domain.NewNotification(domain.VariantDestructive,
				domain.MsgDetailFailedTitle, domain.MsgDetailFailedDesc))
			m.publish()
		}
		return nil, err
	}

	if !current {
		m.logger.Debug("discarding superseded chapter detail", "chapter", n, "generation", gen)
		return detail, nil
	}

	if indexing {
		go m.index(detail)
	}
	m.publish()
	return detail, nil
}

// index runs with indexWG already incremented.
func (m *Manager) index(detail *domain.ChapterDetail) {
	defer m.indexWG.Done()
	if err := m.indexer.IndexChapter(context.Background(), detail); err != nil {
		m.logger.Warn("failed to index chapter", "chapter", detail.Number, "error", err)
	}
}

// Search filters the loaded chapter list. See the package-level Search.
func (m *Manager) Search(query string) []domain.Chapter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Search(m.chapters, query)
}

// Chapter returns chapter n from the loaded list.
func (m *Manager) Chapter(n int) (domain.Chapter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := slices.IndexFunc(m.chapters, func(c domain.Chapter) bool { return c.Number == n })
	if i < 0 {
		return domain.Chapter{}, false
	}
	return m.chapters[i], true
}

// ToggleTranslation flips the translation preference, persists it and
// returns the new value. A storage failure is logged; the in-memory value
// still changes.
func (m *Manager) ToggleTranslation() bool {
	m.mu.Lock()
	m.preferences.ShowTranslation = !m.preferences.ShowTranslation
	show := m.preferences.ShowTranslation
	m.mu.Unlock()

	if err := m.prefs.SaveShowTranslation(show); err != nil {
		m.logger.Error("failed to persist translation preference", "error", err)
	}
	m.publish()
	return show
}

// SelectReciter stores and persists the selected reciter.
func (m *Manager) SelectReciter(id string) error {
	if id == "" {
		return ErrInvalidReciter
	}

	m.mu.Lock()
	m.preferences.Reciter = id
	m.mu.Unlock()

	if err := m.prefs.SaveReciter(id); err != nil {
		m.logger.Error("failed to persist reciter preference", "reciter", id, "error", err)
	}
	m.publish()
	return nil
}

// ReciterName returns the display name for id, or "Unknown".
func (m *Manager) ReciterName(id string) string {
	return domain.ReciterName(id)
}

// Preferences returns the current preferences.
func (m *Manager) Preferences() domain.Preferences {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.preferences
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		Chapters:        slices.Clone(m.chapters),
		Detail:          m.detail,
		Loading:         m.loading,
		LoadingDetail:   m.loadingDetail,
		Error:           m.errMsg,
		ShowTranslation: m.preferences.ShowTranslation,
		Reciter:         m.preferences.Reciter,
	}
}

// Subscribe registers fn for state changes and returns a function that
// removes it. Listeners run synchronously on the goroutine that made the change.
func (m *Manager) Subscribe(fn Listener) (unsubscribe func()) {
	m.listenersMu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.listenersMu.Lock()
			delete(m.listeners, id)
			m.listenersMu.Unlock()
		})
	}
}

func (m *Manager) publish() {
	m.listenersMu.RLock()
	if len(m.listeners) == 0 {
		m.listenersMu.RUnlock()
		return
	}
	fns := make([]Listener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.listenersMu.RUnlock()

	snap := m.Snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}

// Close drops listeners, invalidates in-flight fetches and waits for pending
// index writes. It is safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.generation++
	m.mu.Unlock()

	m.listenersMu.Lock()
	clear(m.listeners)
	m.listenersMu.Unlock()

	m.indexWG.Wait()
	return nil
}
