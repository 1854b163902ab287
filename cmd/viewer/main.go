// Viewer dumps the local event log as a table, newest last. It opens the
// database read-only so it can run next to a live server.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"

	"rofl/eventlog"
	"rofl/internal"
)

func main() {
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// BypassLockGuard allows opening while the server holds the lock.
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open event log: %v", err)
	}
	defer db.Close()

	events, err := eventlog.NewBadgerLog(db, logs.GetLoggerFromString(config.LogLevel)).
		Query(context.Background(), eventlog.Filter{})
	if err != nil {
		log.Fatalf("Failed to read event log: %v", err)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt < events[j].CreatedAt })

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Kind", "Chat", "Sender", "Age", "Content"})
	for _, e := range events {
		chatID, _ := e.ChatID()
		table.Append([]string{
			kindLabel(e.Kind),
			short(chatID),
			short(e.SenderID()),
			time.Since(time.Unix(e.CreatedAt, 0)).Round(time.Second).String(),
			truncate(e.Content, 60),
		})
	}
	fmt.Printf("%d events in %s\n", len(events), config.BadgerFilepath)
	table.Render()
}

func kindLabel(kind int) string {
	switch kind {
	case eventlog.KindChannelCreate:
		return color.Green.Sprint("CREATE")
	case eventlog.KindChannelMessage:
		return color.Cyan.Sprint("MESSAGE")
	default:
		return color.Yellow.Sprintf("KIND %d", kind)
	}
}

func short(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
