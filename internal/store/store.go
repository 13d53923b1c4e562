package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"schema-atlas/internal/relate"
	"schema-atlas/internal/schema"
	"schema-atlas/internal/similarity"
	"schema-atlas/internal/taxonomy"
)

// ErrRunNotFound is returned by Run for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Store is a SQLite backed result store. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (or creates) the database at path and initializes the schema.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunRecord is the stored summary of one analysis run.
type RunRecord struct {
	RunID         string    `yaml:"run_id" json:"run_id"`
	CreatedAt     time.Time `yaml:"created_at" json:"created_at"`
	Truncated     bool      `yaml:"truncated" json:"truncated"`
	Inputs        int       `yaml:"inputs" json:"inputs"`
	Schemas       int       `yaml:"schemas" json:"schemas"`
	Skipped       int       `yaml:"skipped" json:"skipped"`
	Relationships int       `yaml:"relationships" json:"relationships"`
	AverageScore  float64   `yaml:"average_score" json:"average_score"`
}

// SaveReport upserts the relationships and skipped schemas of a report and
// records the run, all in one transaction.
//
// A complete report replaces what is stored for the refs it analyzed:
// relationships between two of them that the run no longer found are
// deleted, and so are skip records of refs that now normalize. Rows
// involving refs outside the run are left alone. A truncated report only
// adds.
func (s *Store) SaveReport(ctx context.Context, report *relate.Report) error {
	if report == nil {
		return errors.New("nil report")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if !report.Truncated {
		if err := pruneScope(ctx, tx, report); err != nil {
			return err
		}
	}

	for _, res := range report.Results {
		if err := upsertRelationship(ctx, tx, res); err != nil {
			return err
		}
	}

	for _, sk := range report.Skipped {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO skipped_schemas (owner, role, reason)
			VALUES (?, ?, ?)
			ON CONFLICT(owner, role) DO UPDATE SET reason = excluded.reason
		`, sk.Ref.Owner, sk.Ref.Role.String(), sk.Reason)
		if err != nil {
			return fmt.Errorf("failed to save skipped schema %s: %w", sk.Ref, err)
		}
	}

	if report.RunID != "" {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs (run_id, created_at, truncated, inputs, schemas, skipped, relationships, average_score)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id) DO UPDATE SET
				truncated = excluded.truncated,
				inputs = excluded.inputs,
				schemas = excluded.schemas,
				skipped = excluded.skipped,
				relationships = excluded.relationships,
				average_score = excluded.average_score
		`, report.RunID, s.now().UTC().Format(time.RFC3339Nano), report.Truncated,
			report.Stats.Inputs, report.Stats.Schemas, report.Stats.Skipped,
			report.Stats.Relationships, report.Stats.AverageScore)
		if err != nil {
			return fmt.Errorf("failed to record run %s: %w", report.RunID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report: %w", err)
	}

	return nil
}

type refKey struct {
	owner, role string
}

type relationshipKey struct {
	a, b refKey
	kind string
}

func keyOf(ref schema.Ref) refKey {
	return refKey{owner: ref.Owner, role: ref.Role.String()}
}

func pruneScope(ctx context.Context, tx *sql.Tx, report *relate.Report) error {
	scope := make(map[refKey]bool, len(report.Schemas)+len(report.Skipped))
	for _, ref := range report.Schemas {
		scope[keyOf(ref)] = true
	}

	skipped := make(map[refKey]bool, len(report.Skipped))
	for _, sk := range report.Skipped {
		scope[keyOf(sk.Ref)] = true
		skipped[keyOf(sk.Ref)] = true
	}

	if len(scope) == 0 {
		return nil
	}

	found := make(map[relationshipKey]bool, len(report.Results))
	for _, res := range report.Results {
		found[relationshipKey{a: keyOf(res.SchemaA), b: keyOf(res.SchemaB), kind: res.Kind.String()}] = true
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT rowid, schema_a_owner, schema_a_role, schema_b_owner, schema_b_role, kind
		FROM relationships
	`)
	if err != nil {
		return fmt.Errorf("failed to query relationships: %w", err)
	}

	var stale []int64

	for rows.Next() {
		var (
			id  int64
			key relationshipKey
		)

		if err := rows.Scan(&id, &key.a.owner, &key.a.role, &key.b.owner, &key.b.role, &key.kind); err != nil {
			_ = rows.Close()
			return fmt.Errorf("failed to scan relationship: %w", err)
		}

		if scope[key.a] && scope[key.b] && !found[key] {
			stale = append(stale, id)
		}
	}

	if err := errors.Join(rows.Err(), rows.Close()); err != nil {
		return fmt.Errorf("failed to read relationships: %w", err)
	}

	for _, id := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM relationships WHERE rowid = ?`, id); err != nil {
			return fmt.Errorf("failed to delete stale relationship: %w", err)
		}
	}

	for _, ref := range report.Schemas {
		k := keyOf(ref)
		if skipped[k] {
			continue
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM skipped_schemas WHERE owner = ? AND role = ?`, k.owner, k.role); err != nil {
			return fmt.Errorf("failed to clear skipped schema %s: %w", ref, err)
		}
	}

	return nil
}

func upsertRelationship(ctx context.Context, tx *sql.Tx, res similarity.Result) error {
	fields, err := json.Marshal(res.CommonFields)
	if err != nil {
		return fmt.Errorf("failed to encode common fields: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO relationships (
			schema_a_owner, schema_a_role, schema_b_owner, schema_b_role,
			kind, score, jaccard, common_fields
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(schema_a_owner, schema_a_role, schema_b_owner, schema_b_role, kind) DO UPDATE SET
			score = excluded.score,
			jaccard = excluded.jaccard,
			common_fields = excluded.common_fields
	`, res.SchemaA.Owner, res.SchemaA.Role.String(), res.SchemaB.Owner, res.SchemaB.Role.String(),
		res.Kind.String(), res.Score, res.Jaccard, string(fields))
	if err != nil {
		return fmt.Errorf("failed to save relationship %s/%s %s: %w", res.SchemaA, res.SchemaB, res.Kind, err)
	}

	return nil
}

// Filter narrows a relationship query. Zero values match everything.
type Filter struct {
	// Owner matches either side of the relationship.
	Owner    string
	Kinds    []similarity.Kind
	MinScore float64
	Limit    int
}

// Relationships returns stored relationships ordered by score, highest first.
func (s *Store) Relationships(ctx context.Context, filter Filter) ([]similarity.Result, error) {
	var (
		where []string
		args  []any
	)

	if filter.Owner != "" {
		where = append(where, "(schema_a_owner = ? OR schema_b_owner = ?)")
		args = append(args, filter.Owner, filter.Owner)
	}

	if len(filter.Kinds) > 0 {
		marks := make([]string, len(filter.Kinds))
		for i, k := range filter.Kinds {
			marks[i] = "?"
			args = append(args, k.String())
		}

		where = append(where, "kind IN ("+strings.Join(marks, ", ")+")")
	}

	if filter.MinScore > 0 {
		where = append(where, "score >= ?")
		args = append(args, filter.MinScore)
	}

	query := `
		SELECT schema_a_owner, schema_a_role, schema_b_owner, schema_b_role,
		       kind, score, jaccard, common_fields
		FROM relationships`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	query += " ORDER BY score DESC, schema_a_owner, schema_a_role, schema_b_owner, schema_b_role, kind"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query relationships: %w", err)
	}
	defer rows.Close()

	var out []similarity.Result

	for rows.Next() {
		res, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read relationships: %w", err)
	}

	return out, nil
}

func scanRelationship(rows *sql.Rows) (similarity.Result, error) {
	var (
		res                    similarity.Result
		aRole, bRole, kind, cf string
	)

	if err := rows.Scan(&res.SchemaA.Owner, &aRole, &res.SchemaB.Owner, &bRole,
		&kind, &res.Score, &res.Jaccard, &cf); err != nil {
		return res, fmt.Errorf("failed to scan relationship: %w", err)
	}

	var err error

	if res.SchemaA.Role, err = schema.ParseRole(aRole); err != nil {
		return res, err
	}

	if res.SchemaB.Role, err = schema.ParseRole(bRole); err != nil {
		return res, err
	}

	if res.Kind, err = similarity.ParseKind(kind); err != nil {
		return res, err
	}

	if err := json.Unmarshal([]byte(cf), &res.CommonFields); err != nil {
		return res, fmt.Errorf("failed to decode common fields: %w", err)
	}

	return res, nil
}

// Skipped returns the stored skipped schemas ordered by ref.
func (s *Store) Skipped(ctx context.Context) ([]relate.Skipped, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT owner, role, reason FROM skipped_schemas ORDER BY owner, role`)
	if err != nil {
		return nil, fmt.Errorf("failed to query skipped schemas: %w", err)
	}
	defer rows.Close()

	var out []relate.Skipped

	for rows.Next() {
		var (
			sk   relate.Skipped
			role string
		)

		if err := rows.Scan(&sk.Ref.Owner, &role, &sk.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan skipped schema: %w", err)
		}

		if sk.Ref.Role, err = schema.ParseRole(role); err != nil {
			return nil, err
		}

		sk.Owner.ID = sk.Ref.Owner
		out = append(out, sk)
	}

	return out, rows.Err()
}

// Run returns the stored summary of one run.
func (s *Store) Run(ctx context.Context, runID string) (RunRecord, error) {
	var (
		rec       RunRecord
		createdAt string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT run_id, created_at, truncated, inputs, schemas, skipped, relationships, average_score
		FROM runs WHERE run_id = ?
	`, runID).Scan(&rec.RunID, &createdAt, &rec.Truncated, &rec.Inputs, &rec.Schemas,
		&rec.Skipped, &rec.Relationships, &rec.AverageScore)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	if err != nil {
		return rec, fmt.Errorf("failed to query run %s: %w", runID, err)
	}

	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return rec, fmt.Errorf("invalid created_at for run %s: %w", runID, err)
	}

	return rec, nil
}

// CountRuns returns the number of recorded runs.
func (s *Store) CountRuns(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}

	return n, nil
}

// SaveTree replaces the stored taxonomy with the nodes of tree. Nodes keep
// their ids so that saving an unchanged tree is a no-op.
func (s *Store) SaveTree(ctx context.Context, tree *taxonomy.Tree) error {
	if err := tree.Validate(); err != nil {
		return fmt.Errorf("refusing to save taxonomy: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	nodes := tree.Nodes()
	keep := make([]any, 0, len(nodes))

	for _, n := range nodes {
		var parent sql.NullInt64
		if !n.IsRoot() {
			parent = sql.NullInt64{Int64: n.ParentID, Valid: true}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO taxonomy_nodes (id, name, parent_id, depth, description)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				parent_id = excluded.parent_id,
				depth = excluded.depth,
				description = excluded.description
		`, n.ID, n.Name, parent, n.Depth, n.Description)
		if err != nil {
			return fmt.Errorf("failed to save taxonomy node %d: %w", n.ID, err)
		}

		keep = append(keep, n.ID)
	}

	del := `DELETE FROM taxonomy_nodes`
	if len(keep) > 0 {
		del += ` WHERE id NOT IN (` + strings.TrimSuffix(strings.Repeat("?, ", len(keep)), ", ") + `)`
	}

	if _, err := tx.ExecContext(ctx, del, keep...); err != nil {
		return fmt.Errorf("failed to prune taxonomy nodes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit taxonomy: %w", err)
	}

	return nil
}

// LoadTree reads the stored taxonomy. An empty table yields an empty tree.
func (s *Store) LoadTree(ctx context.Context) (*taxonomy.Tree, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, parent_id, depth, description FROM taxonomy_nodes ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query taxonomy: %w", err)
	}
	defer rows.Close()

	var nodes []taxonomy.Node

	for rows.Next() {
		var (
			n      taxonomy.Node
			parent sql.NullInt64
		)

		if err := rows.Scan(&n.ID, &n.Name, &parent, &n.Depth, &n.Description); err != nil {
			return nil, fmt.Errorf("failed to scan taxonomy node: %w", err)
		}

		n.ParentID = parent.Int64
		nodes = append(nodes, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read taxonomy: %w", err)
	}

	return taxonomy.NewTree(nodes)
}
