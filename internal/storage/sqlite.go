package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/StarCycle/GraphExtract/internal/assemble"
	"github.com/StarCycle/GraphExtract/internal/feature"
	"github.com/StarCycle/GraphExtract/internal/graph"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at INTEGER,
			methods INTEGER,
			nodes INTEGER,
			edges INTEGER,
			counter_bound INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS nodes (
			run_id TEXT,
			label INTEGER,
			node_id TEXT,
			kind TEXT,
			name TEXT,
			file_name TEXT,
			counter_id INTEGER,
			feature BLOB,
			PRIMARY KEY (run_id, label)
		);`,
		`CREATE TABLE IF NOT EXISTS edges (
			run_id TEXT,
			seq INTEGER,
			from_label INTEGER,
			to_label INTEGER,
			PRIMARY KEY (run_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS counters (
			run_id TEXT,
			counter_id INTEGER,
			label INTEGER,
			PRIMARY KEY (run_id, counter_id)
		);`,
		`CREATE TABLE IF NOT EXISTS vectors (
			word TEXT PRIMARY KEY,
			embedding BLOB
		);`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_node_id ON nodes(run_id, node_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// --- RunStore Implementation ---

func (s *SQLiteStore) SaveRun(ctx context.Context, res *assemble.Result) (string, error) {
	if res == nil || res.Graph == nil || res.Payload == nil {
		return "", fmt.Errorf("cannot save an incomplete run")
	}
	runID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, methods, nodes, edges, counter_bound)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, time.Now().Unix(), res.Methods, res.Graph.NodeCount(), res.Graph.EdgeCount(), res.Bound)
	if err != nil {
		return "", err
	}

	// 1. Nodes, keyed by label
	nodeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (run_id, label, node_id, kind, name, file_name, counter_id, feature)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", err
	}
	defer nodeStmt.Close()

	for _, n := range res.Graph.Nodes() {
		blob, err := encodeVector(n.Feature)
		if err != nil {
			return "", err
		}
		if _, err := nodeStmt.ExecContext(ctx, runID, res.Labels[n.ID], n.ID, n.Kind.String(), n.Name, n.FileName, n.CounterID, blob); err != nil {
			return "", err
		}
	}

	// 2. Edges, in payload order
	edgeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO edges (run_id, seq, from_label, to_label) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return "", err
	}
	defer edgeStmt.Close()

	for i, e := range res.Payload.Edges {
		if _, err := edgeStmt.ExecContext(ctx, runID, i, e[0], e[1]); err != nil {
			return "", err
		}
	}

	// 3. Counter index; unused slots are not stored
	counterStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO counters (run_id, counter_id, label) VALUES (?, ?, ?)
	`)
	if err != nil {
		return "", err
	}
	defer counterStmt.Close()

	for _, n := range res.Graph.Nodes() {
		if n.Kind != graph.KindCodeCount {
			continue
		}
		if _, err := counterStmt.ExecContext(ctx, runID, n.CounterID, res.Labels[n.ID]); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *SQLiteStore) LoadPayload(ctx context.Context, runID string) (*assemble.Payload, error) {
	var bound, nodeCount int
	err := s.db.QueryRowContext(ctx, "SELECT counter_bound, nodes FROM runs WHERE id = ?", runID).Scan(&bound, &nodeCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	p := &assemble.Payload{
		Features:       make([][]float32, 0, nodeCount),
		Edges:          [][2]int{},
		CounterToLabel: make([]int, bound+1),
	}

	// 1. Features in label order
	rows, err := s.db.QueryContext(ctx, "SELECT feature FROM nodes WHERE run_id = ? ORDER BY label", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, err
		}
		p.Features = append(p.Features, vec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// 2. Edges
	edgeRows, err := s.db.QueryContext(ctx, "SELECT from_label, to_label FROM edges WHERE run_id = ? ORDER BY seq", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		var e [2]int
		if err := edgeRows.Scan(&e[0], &e[1]); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		p.Edges = append(p.Edges, e)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, err
	}

	// 3. Counter index
	counterRows, err := s.db.QueryContext(ctx, "SELECT counter_id, label FROM counters WHERE run_id = ?", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query counters: %w", err)
	}
	defer counterRows.Close()

	for counterRows.Next() {
		var id, label int
		if err := counterRows.Scan(&id, &label); err != nil {
			return nil, fmt.Errorf("failed to scan counter: %w", err)
		}
		if id < 0 || id >= len(p.CounterToLabel) {
			return nil, fmt.Errorf("stored counter id %d outside bound %d", id, bound)
		}
		p.CounterToLabel[id] = label
	}
	return p, counterRows.Err()
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, created_at, methods, nodes, edges, counter_bound FROM runs ORDER BY created_at DESC, rowid DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var r RunInfo
		var created int64
		if err := rows.Scan(&r.ID, &created, &r.Methods, &r.Nodes, &r.Edges, &r.CounterBound); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(created, 0)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// --- VectorStore Implementation ---

func (s *SQLiteStore) SaveVectors(ctx context.Context, t *feature.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM vectors"); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO vectors (word, embedding) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, word := range t.Words() {
		vec, _ := t.Lookup(word)
		blob, err := encodeVector(vec)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, word, blob); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadVectors(ctx context.Context) (*feature.Table, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT word, embedding FROM vectors")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var t *feature.Table
	for rows.Next() {
		var word string
		var blob []byte
		if err := rows.Scan(&word, &blob); err != nil {
			return nil, err
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("word %q: %w", word, err)
		}
		if t == nil {
			t = feature.NewTable(len(vec))
		}
		if err := t.Set(word, vec); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("vector table is empty")
	}
	return t, nil
}

func encodeVector(v []float32) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(blob))
	}
	v := make([]float32, len(blob)/4)
	if err := binary.Read(bytes.NewReader(blob), binary.LittleEndian, &v); err != nil {
		return nil, err
	}
	return v, nil
}
