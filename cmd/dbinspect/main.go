// Command dbinspect prints the stored reader preferences without starting the server.
//
// Usage:
//
//	DATA_PATH=~/.tilawah go run ./cmd/dbinspect
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"

	"github.com/tilawahapp/tilawah-server/internal/domain"
	"github.com/tilawahapp/tilawah-server/internal/prefs"
)

func main() {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/.tilawah")
	}
	dbPath := filepath.Join(dataPath, "preferences")

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Preference Store ===")
	fmt.Printf("Path: %s\n\n", dbPath)

	keys := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				keys++
				fmt.Printf("%-16s %s\n", item.Key(), val)
				return nil
			})
			if err != nil {
				log.Printf("Error reading %s: %v", item.Key(), err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating database: %v", err)
	}

	defaults := domain.DefaultPreferences()
	fmt.Println()
	fmt.Println("=== Summary ===")
	fmt.Printf("Keys stored: %d\n", keys)
	fmt.Printf("Defaults: %s=%t %s=%s (%s)\n",
		prefs.KeyShowTranslation, defaults.ShowTranslation,
		prefs.KeyReciter, defaults.Reciter, domain.ReciterName(defaults.Reciter))
}
