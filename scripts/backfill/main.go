// Command backfill rewrites legacy-shape attendance payloads into the
// normalized suffixed shape. Reads keep accepting both shapes, so running it
// is optional; it exists to retire the legacy keys from storage over time.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pulsetrack/attendance-api/pkg/config"
	"github.com/pulsetrack/attendance-api/pkg/database"
)

// legacyToNormalized maps the flat legacy keys onto their suffixed names.
var legacyToNormalized = map[string]string{
	"status":         "status_c",
	"sessionId":      "session_id_c",
	"participantId":  "participant_id_c",
	"timestamp":      "timestamp_c",
	"notes":          "notes_c",
	"date":           "date_c",
	"type":           "type_c",
	"email":          "email_c",
	"department":     "department_c",
	"participantIds": "participant_ids_c",
}

func main() {
	entity := flag.String("entity", "attendance", "entity to backfill (attendance, session, participant)")
	dryRun := flag.Bool("dry-run", false, "report what would change without writing")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall run timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rows, err := db.QueryxContext(ctx, `SELECT id, payload FROM records WHERE entity = $1 ORDER BY id`, *entity)
	if err != nil {
		log.Fatalf("list %s records: %v", *entity, err)
	}
	defer rows.Close()

	type pending struct {
		id      int64
		payload []byte
	}
	var updates []pending
	scanned := 0
	for rows.Next() {
		var id int64
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			log.Fatalf("scan record: %v", err)
		}
		scanned++

		record := map[string]any{}
		if err := json.Unmarshal(raw, &record); err != nil {
			log.Printf("record %d: skipping undecodable payload: %v", id, err)
			continue
		}

		changed := false
		for legacy, normalized := range legacyToNormalized {
			value, ok := record[legacy]
			if !ok {
				continue
			}
			if _, exists := record[normalized]; !exists {
				record[normalized] = value
			}
			delete(record, legacy)
			changed = true
		}
		if !changed {
			continue
		}

		encoded, err := json.Marshal(record)
		if err != nil {
			log.Fatalf("record %d: encode rewritten payload: %v", id, err)
		}
		updates = append(updates, pending{id: id, payload: encoded})
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("iterate records: %v", err)
	}

	if *dryRun {
		fmt.Printf("scanned %d %s records, %d would be rewritten\n", scanned, *entity, len(updates))
		os.Exit(0)
	}

	for _, u := range updates {
		if _, err := db.ExecContext(ctx, `UPDATE records SET payload = $3 WHERE entity = $1 AND id = $2`, *entity, u.id, u.payload); err != nil {
			log.Fatalf("rewrite record %d: %v", u.id, err)
		}
	}
	fmt.Printf("scanned %d %s records, rewrote %d\n", scanned, *entity, len(updates))
}
