package sqlitestore

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// snapshotTables lists the tables copied between the in-memory database and
// the on-disk snapshot, with their column lists pinned so older snapshots
// with extra or missing additive columns still load.
var snapshotTables = []struct {
	name    string
	columns string
}{
	{"shows", "id, updated_at, doc"},
	{"archived_shows", "id, archived_at, doc"},
	{"staff", "id, doc"},
}

// loadSnapshot imports an existing on-disk snapshot into the in-memory
// database. A missing file means a fresh store.
func (s *Store) loadSnapshot(ctx context.Context) error {
	if _, err := os.Stat(s.cfg.Filename); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Exec("ATTACH DATABASE ? AS disk", s.cfg.Filename).Error; err != nil {
		return err
	}
	defer s.db.WithContext(ctx).Exec("DETACH DATABASE disk")

	for _, table := range snapshotTables {
		var present int64
		err := s.db.WithContext(ctx).
			Raw("SELECT count(*) FROM disk.sqlite_master WHERE type = 'table' AND name = ?", table.name).
			Scan(&present).Error
		if err != nil {
			return err
		}
		if present == 0 {
			continue
		}
		stmt := fmt.Sprintf(
			"INSERT OR REPLACE INTO %s (%s) SELECT %s FROM disk.%s",
			table.name, table.columns, table.columns, table.name,
		)
		if err := s.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// persist rewrites the entire database file. VACUUM INTO writes a complete
// consistent copy to a unique temp path, which then atomically replaces the
// previous snapshot.
func (s *Store) persist() error {
	tmp := fmt.Sprintf("%s.%s.tmp", s.cfg.Filename, uuid.NewString()[:8])
	if err := s.db.Exec("VACUUM INTO ?", tmp).Error; err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.cfg.Filename); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	s.metrics.SnapshotWrites.Inc()
	return nil
}
