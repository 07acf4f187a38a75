// Command seed creates a development reader with bookmarks and a last-read
// position so the bookmark screens have something to show.
//
// The seeded account has no session; sign in through the configured
// provider with the same subject, or issue a token from a test.
//
// Usage:
//
//	DATA_PATH=~/.tilawah go run ./cmd/seed
//	DATA_PATH=~/.tilawah go run ./cmd/seed --subject dev-reader --bookmarks 8
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/tilawahapp/tilawah-server/internal/domain"
	"github.com/tilawahapp/tilawah-server/internal/id"
	"github.com/tilawahapp/tilawah-server/internal/store/sqlite"
)

var (
	subject   = flag.String("subject", "seed-reader", "Provider subject of the seeded account")
	email     = flag.String("email", "reader@example.com", "Email of the seeded account")
	bookmarks = flag.Int("bookmarks", 5, "Number of bookmarks to create")
)

// Verse counts of a few short chapters used for seeding.
var seedChapters = []struct {
	number int
	name   string
	verses int
}{
	{1, "Al-Fatihah", 7},
	{18, "Al-Kahf", 110},
	{36, "Yasin", 83},
	{55, "Ar-Rahman", 78},
	{67, "Al-Mulk", 30},
	{112, "Al-Ikhlas", 4},
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/.tilawah")
	}
	if err := os.MkdirAll(dataPath, 0o750); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	dbPath := dataPath + "/tilawah.db"

	fmt.Printf("Opening database at: %s\n", dbPath)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s, err := sqlite.Open(dbPath, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	user, err := s.UpsertUser(ctx, &domain.User{
		ID:          id.MustGenerate(id.PrefixUser),
		Provider:    "seed",
		Subject:     *subject,
		Email:       *email,
		DisplayName: "Seed Reader",
		CreatedAt:   now,
		LastLoginAt: now,
	})
	if err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}
	fmt.Printf("Seeding data for user: %s (%s)\n", user.DisplayName, user.ID)

	for n := range *bookmarks {
		c := seedChapters[rand.IntN(len(seedChapters))]
		b := &domain.Bookmark{
			ID:        id.MustGenerate(id.PrefixBookmark),
			UserID:    user.ID,
			Chapter:   c.number,
			Name:      fmt.Sprintf("%s #%d", c.name, n+1),
			CreatedAt: now.Add(-time.Duration(n) * time.Hour),
		}
		// Every other bookmark targets a single verse.
		if n%2 == 0 {
			verse := 1 + rand.IntN(c.verses)
			b.Verse = &verse
		}
		if err := s.CreateBookmark(ctx, b); err != nil {
			log.Printf("Failed to create bookmark: %v", err)
			continue
		}
		fmt.Printf("  Bookmark: %s (QS %d)\n", b.Name, b.Chapter)
	}

	c := seedChapters[rand.IntN(len(seedChapters))]
	lr, err := s.UpsertLastRead(ctx, &domain.LastRead{
		ID:        id.MustGenerate(id.PrefixLastRead),
		UserID:    user.ID,
		Chapter:   c.number,
		Verse:     1 + rand.IntN(c.verses),
		UpdatedAt: now,
	})
	if err != nil {
		log.Fatalf("Failed to save last read: %v", err)
	}
	fmt.Printf("  %s: QS %d:%d\n", domain.LastReadLabel, lr.Chapter, lr.Verse)

	fmt.Println("\nSeeding complete!")
}
