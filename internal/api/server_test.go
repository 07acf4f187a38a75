package api

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/tilawahapp/tilawah-server/internal/auth"
	"github.com/tilawahapp/tilawah-server/internal/domain"
	"github.com/tilawahapp/tilawah-server/internal/playback"
	"github.com/tilawahapp/tilawah-server/internal/prefs"
	"github.com/tilawahapp/tilawah-server/internal/quran"
	"github.com/tilawahapp/tilawah-server/internal/ratelimit"
	"github.com/tilawahapp/tilawah-server/internal/search"
	"github.com/tilawahapp/tilawah-server/internal/service"
	"github.com/tilawahapp/tilawah-server/internal/sse"
	"github.com/tilawahapp/tilawah-server/internal/store/sqlite"
	"github.com/tilawahapp/tilawah-server/internal/validation"
)

// testEnvelope mirrors the response envelope.
type testEnvelope[T any] struct {
	V       int               `json:"v"`
	Success bool              `json:"success"`
	Data    T                 `json:"data"`
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details"`
}

func decodeEnvelope[T any](t *testing.T, resp *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), "body: %s", resp.Body.String())
	return env
}

type fakeContent struct{}

func testAudio(scope string) domain.AudioSources {
	return domain.AudioSources{
		"01": "https://cdn.example.com/01/" + scope + ".mp3",
		"05": "https://cdn.example.com/05/" + scope + ".mp3",
	}
}

func (fakeContent) ListChapters(context.Context) ([]domain.Chapter, error) {
	return []domain.Chapter{
		{Number: 1, Name: "الفاتحة", LatinName: "Al-Fatihah", VerseCount: 7, Revelation: domain.RevelationMecca, Meaning: "Pembukaan", Audio: testAudio("001")},
		{Number: 2, Name: "البقرة", LatinName: "Al-Baqarah", VerseCount: 286, Revelation: domain.RevelationMedina, Meaning: "Sapi Betina", Audio: testAudio("002")},
		{Number: 36, Name: "يس", LatinName: "Yasin", VerseCount: 83, Revelation: domain.RevelationMecca, Meaning: "Yasin", Audio: testAudio("036")},
		{Number: 112, Name: "الإخلاص", LatinName: "Al-Ikhlas", VerseCount: 4, Revelation: domain.RevelationMecca, Meaning: "Ikhlas", Audio: testAudio("112")},
	}, nil
}

func (fakeContent) GetChapter(_ context.Context, n int) (*domain.ChapterDetail, error) {
	if n != 112 {
		return nil, fmt.Errorf("chapter %d not in fixture", n)
	}
	verses := []domain.Verse{
		{Number: 1, Arabic: "قُلْ هُوَ اللَّهُ أَحَدٌ", Latin: "qul huwallāhu aḥad", Translation: "Katakanlah (Muhammad), Dialah Allah, Yang Maha Esa."},
		{Number: 2, Arabic: "اللَّهُ الصَّمَدُ", Latin: "allāhuṣ-ṣamad", Translation: "Allah tempat meminta segala sesuatu."},
		{Number: 3, Arabic: "لَمْ يَلِدْ وَلَمْ يُولَدْ", Latin: "lam yalid wa lam yūlad", Translation: "Dia tidak beranak dan tidak pula diperanakkan."},
		{Number: 4, Arabic: "وَلَمْ يَكُنْ لَهُ كُفُوًا أَحَدٌ", Latin: "wa lam yakul lahū kufuwan aḥad", Translation: "Dan tidak ada sesuatu yang setara dengan Dia."},
	}
	for i := range verses {
		verses[i].Audio = testAudio(fmt.Sprintf("112%03d", i+1))
	}
	return &domain.ChapterDetail{
		Chapter: domain.Chapter{Number: 112, Name: "الإخلاص", LatinName: "Al-Ikhlas", VerseCount: 4, Audio: testAudio("112")},
		Verses:  verses,
	}, nil
}

type fakeProvider struct{}

func (fakeProvider) Name() string { return "google" }

func (fakeProvider) LoginURL(state string) string {
	return "https://accounts.example.com/o/auth?state=" + url.QueryEscape(state)
}

func (fakeProvider) Exchange(_ context.Context, code string) (*auth.Profile, error) {
	if code != "good-code" {
		return nil, auth.ErrSignInFailed
	}
	return &auth.Profile{Subject: "g-1", Email: "reader@example.com", Name: "Reader"}, nil
}

type testServer struct {
	*Server
	api humatest.TestAPI
}

type testServerOptions struct {
	limiter *ratelimit.KeyedRateLimiter
	source  quran.ContentSource
}

func newTestServer(t *testing.T, opts ...testServerOptions) *testServer {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	dir := t.TempDir()

	db, err := sqlite.Open(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	prefStore, err := prefs.Open(filepath.Join(dir, "prefs"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = prefStore.Close() })

	index, err := search.NewVerseIndex(search.Options{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	events := sse.NewManager(logger)

	var o Options
	var source quran.ContentSource = fakeContent{}
	if len(opts) > 0 {
		o.SignInLimiter = opts[0].limiter
		if opts[0].source != nil {
			source = opts[0].source
		}
	}

	manager := quran.New(quran.Options{
		Source:   source,
		Prefs:    prefStore,
		Notifier: events,
		Indexer:  index,
		Logger:   logger,
	})
	require.NoError(t, manager.Initialize(context.Background()))
	t.Cleanup(func() { _ = manager.Close() })

	tokens, err := auth.NewTokenService(bytes.Repeat([]byte{5}, 32), time.Hour)
	require.NoError(t, err)

	v := validation.New()
	players := playback.NewRegistry(playback.RegistryOptions{
		Opener: playback.OpenerFunc(func(context.Context, string) (playback.Resource, error) {
			return playback.NewClockResource(time.Minute), nil
		}),
		Notifier:      events,
		Logger:        logger,
		DefaultVolume: 1,
		MaxPlayers:    10,
	})
	t.Cleanup(func() { _ = players.Shutdown() })

	services := &Services{
		Quran:     manager,
		Search:    index,
		Sessions:  service.NewSessionService(db, tokens, fakeProvider{}, auth.NewStateStore(time.Minute), events, logger),
		Bookmarks: service.NewBookmarkService(db, manager, v, events, logger),
		LastRead:  service.NewLastReadService(db, manager, v, events, logger),
		Players:   players,
		Events:    events,
		Validator: v,
		DB:        db,
	}

	s := NewServer(services, o, logger)
	return &testServer{Server: s, api: humatest.Wrap(t, s.API())}
}

// signIn runs the OAuth flow and returns an Authorization header argument.
func (ts *testServer) signIn(t *testing.T) string {
	t.Helper()
	resp := ts.api.Get("/auth/login")
	require.Equal(t, 302, resp.Code, resp.Body.String())
	loc, err := url.Parse(resp.Header().Get("Location"))
	require.NoError(t, err)

	resp = ts.api.Get("/auth/callback?code=good-code&state=" + url.QueryEscape(loc.Query().Get("state")))
	require.Equal(t, 200, resp.Code, resp.Body.String())
	env := decodeEnvelope[SignInResponse](t, resp)
	require.NotEmpty(t, env.Data.Token)
	return "Authorization: Bearer " + env.Data.Token
}
