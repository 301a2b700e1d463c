package table

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/reflexndn/rfwd/core"
	"github.com/reflexndn/rfwd/enc"
)

// SnapshotStore persists FIB registrations across forwarder restarts. This
// is not part of the teacher's retrieved fw/table tree, but the teacher's
// go.mod carries mattn/go-sqlite3 with no component in-pack exercising it
// (see DESIGN.md); FIB restart-recovery is the natural home for it.
type SnapshotStore struct {
	db *sql.DB
}

// OpenSnapshotStore opens (creating if needed) a sqlite3-backed store at
// path.
func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	const schema = `
CREATE TABLE IF NOT EXISTS fib_nexthop (
	name TEXT NOT NULL,
	face INTEGER NOT NULL,
	cost INTEGER NOT NULL,
	PRIMARY KEY (name, face)
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SnapshotStore{db: db}, nil
}

// Save persists fib's current registrations, replacing any prior snapshot.
func (s *SnapshotStore) Save(fib *Fib) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM fib_nexthop`); err != nil {
		tx.Rollback()
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO fib_nexthop(name, face, cost) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, n := range fib.tree.nodes {
		if n == nil || n.fib == nil {
			continue
		}
		for _, nh := range n.fib.NextHops {
			if _, err := stmt.Exec(n.fib.Name.String(), nh.Face, nh.Cost); err != nil {
				tx.Rollback()
				return err
			}
		}
	}
	return tx.Commit()
}

// Restore replays the persisted snapshot into fib, skipping rows whose Name
// fails to parse (logged, not fatal — a stale snapshot should not block
// startup).
func (s *SnapshotStore) Restore(fib *Fib) error {
	rows, err := s.db.Query(`SELECT name, face, cost FROM fib_nexthop`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var nameStr string
		var face uint64
		var cost int
		if err := rows.Scan(&nameStr, &face, &cost); err != nil {
			return err
		}
		name, err := enc.NameFromStr(nameStr)
		if err != nil {
			core.Log.Warn(s, "skipping unparseable snapshot row", "name", nameStr, "err", err)
			continue
		}
		fib.AddNextHop(name, face, cost)
	}
	return rows.Err()
}

// Close releases the underlying sqlite3 handle.
func (s *SnapshotStore) Close() error { return s.db.Close() }

func (s *SnapshotStore) String() string { return "table.SnapshotStore" }
