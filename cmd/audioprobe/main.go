// Command audioprobe downloads a recitation into the audio cache the way the
// server does and prints what the player would see.
//
// Usage:
//
//	go run ./cmd/audioprobe https://cdn.example.com/audio-full/Misyari-Rasyid-Al-Afasi/001.mp3
//	go run ./cmd/audioprobe ./001.mp3
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/simonhull/audiometa"

	"github.com/tilawahapp/tilawah-server/internal/playback"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: audioprobe <audio url or file>")
	}
	target := os.Args[1]

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	path := target
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		cacheDir := os.Getenv("AUDIO_CACHE_PATH")
		if cacheDir == "" {
			cacheDir = os.ExpandEnv("$HOME/.tilawah/cache/audio")
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		opener, err := playback.NewCacheOpener(cacheDir, logger)
		if err != nil {
			log.Fatalf("Failed to create cache: %v", err)
		}

		start := time.Now()
		res, err := opener.Open(ctx, target)
		if err != nil {
			log.Fatalf("Failed to open audio: %v", err)
		}
		_ = res.Close()
		path = opener.Path(target)
		fmt.Printf("Cached: %s (%s)\n", path, time.Since(start).Round(time.Millisecond))
	}

	file, err := audiometa.OpenContext(ctx, path)
	if err != nil {
		log.Fatalf("Failed to open file: %v", err)
	}
	defer file.Close()

	fmt.Printf("Format: %s\n", file.Format.String())
	fmt.Printf("Duration: %s\n", file.Audio.Duration)
	fmt.Printf("Title: %s\n", file.Tags.Title)
	fmt.Printf("Artist: %s\n", file.Tags.Artist)
	fmt.Printf("Album: %s\n", file.Tags.Album)
}
