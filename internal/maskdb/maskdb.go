// Package maskdb persists reconstruction runs: one row per run with the full
// report attached, per-camera result rows for queries, and optional compressed
// snapshots of restored grids. Backed by SQLite via modernc.org/sqlite so the
// daemon stays pure Go.
package maskdb

import (
	"compress/gzip"
	"database/sql"
	_ "embed"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"
)

// SchemaVersion is the migration version embodied by schema.sql. Fresh
// databases are baselined here so CheckAndPromptMigrations stays quiet until
// the next schema change ships.
const SchemaVersion = 2

type MaskDB struct {
	*sql.DB
	path string
}

// schema.sql holds the cumulative schema for run reports, per-camera results
// and grid snapshots. It must stay equivalent to the migrations applied in
// order; fresh databases apply it directly and baseline at SchemaVersion.
//
//go:embed schema.sql
var schemaSQL string

// NewMaskDB opens (creating if needed) the run database at path.
func NewMaskDB(path string) (*MaskDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying mask schema: %w", err)
	}
	mdb := &MaskDB{DB: db, path: path}
	if err := mdb.baselineFreshDB(); err != nil {
		db.Close()
		return nil, err
	}
	log.Println("initialized mask database schema")
	return mdb, nil
}

// baselineFreshDB records SchemaVersion for databases that have never seen a
// migration, so a brand-new file does not immediately demand "migrate up".
func (mdb *MaskDB) baselineFreshDB() error {
	if err := mdb.ensureSchemaMigrationsTable(); err != nil {
		return fmt.Errorf("ensuring schema_migrations table: %w", err)
	}
	var count int
	if err := mdb.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		return fmt.Errorf("checking existing migrations: %w", err)
	}
	if count > 0 {
		return nil
	}
	if _, err := mdb.Exec("INSERT INTO schema_migrations (version, dirty) VALUES (?, 0)", SchemaVersion); err != nil {
		return fmt.Errorf("baselining fresh database: %w", err)
	}
	return nil
}

// retryOnBusy retries a statement a few times when SQLite reports the
// database locked; the monitor and the restore loop share one file.
func retryOnBusy(fn func() error) error {
	const attempts = 5
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || !isBusy(err) {
			return err
		}
		time.Sleep(time.Duration(i+1) * 25 * time.Millisecond)
	}
	return err
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// AttachAdminRoutes mounts the tailnet debug surface on mux: tsweb's debug
// index, a live tailsql console over the run database, and an on-demand
// gzipped backup download.
func (mdb *MaskDB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://"+mdb.path, mdb.DB, &tailsql.DBOptions{
		Label: "Cloud Mask Runs DB",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the run database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backupPath := fmt.Sprintf("backup-%d.db", time.Now().Unix())
		if _, err := mdb.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.gz", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Encoding", "gzip")

		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}
		defer func() {
			backupFile.Close()
			if err := os.Remove(backupPath); err != nil {
				log.Printf("Failed to remove backup file: %v", err)
			}
		}()

		gzipWriter := gzip.NewWriter(w)
		defer gzipWriter.Close()
		if _, err := io.Copy(gzipWriter, backupFile); err != nil {
			http.Error(w, fmt.Sprintf("Failed to write backup file: %v", err), http.StatusInternalServerError)
			return
		}
	}))
}
