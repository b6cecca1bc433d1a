package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver

	"tpgen-hq/tpgen/pkg/plan"
)

// SQLiteCatalog stores the catalog in a SQLite database.
type SQLiteCatalog struct {
	db *sql.DB
}

// OpenSQLite opens or creates the catalog database at path. An empty
// database is seeded from seed; a nil seed leaves it empty.
func OpenSQLite(ctx context.Context, path string, seed *Fixture) (*SQLiteCatalog, error) {
	if path == "" {
		return nil, errors.New("db path cannot be empty")
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	c := &SQLiteCatalog{db: db}
	if err := c.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if seed != nil {
		n, err := c.count(ctx)
		if err != nil {
			db.Close()
			return nil, err
		}
		if n == 0 {
			if err := c.Import(ctx, seed); err != nil {
				db.Close()
				return nil, err
			}
		}
	}
	return c, nil
}

func (c *SQLiteCatalog) initSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS machines (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		motherboard TEXT NOT NULL DEFAULT '',
		gpu TEXT NOT NULL DEFAULT '',
		cpu TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS test_cases (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		subgroup TEXT NOT NULL,
		position INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_test_cases_position ON test_cases(position);
	`
	_, err := c.db.ExecContext(ctx, schema)
	return err
}

func (c *SQLiteCatalog) count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM machines`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count machines: %w", err)
	}
	return n, nil
}

// Import upserts every machine and test case of f in one transaction.
func (c *SQLiteCatalog) Import(ctx context.Context, f *Fixture) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range f.Machines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO machines (id, name, motherboard, gpu, cpu, status) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name, motherboard = excluded.motherboard,
				gpu = excluded.gpu, cpu = excluded.cpu, status = excluded.status`,
			m.ID, m.Name, m.Motherboard, m.GPU, m.CPU, m.Status)
		if err != nil {
			return fmt.Errorf("failed to import machine %d: %w", m.ID, err)
		}
	}
	for i, tc := range f.TestCases {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO test_cases (id, name, description, type, subgroup, position) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name, description = excluded.description,
				type = excluded.type, subgroup = excluded.subgroup, position = excluded.position`,
			tc.ID, tc.Name, tc.Description, tc.Type, tc.Subgroup, i)
		if err != nil {
			return fmt.Errorf("failed to import test case %d: %w", tc.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	return nil
}

const (
	machineCols  = `id, name, motherboard, gpu, cpu, status`
	testCaseCols = `id, name, description, type, subgroup`
)

type scanner interface {
	Scan(dest ...any) error
}

func scanMachine(s scanner) (plan.Machine, error) {
	var m plan.Machine
	err := s.Scan(&m.ID, &m.Name, &m.Motherboard, &m.GPU, &m.CPU, &m.Status)
	return m, err
}

func scanTestCase(s scanner) (plan.TestCase, error) {
	var tc plan.TestCase
	err := s.Scan(&tc.ID, &tc.Name, &tc.Description, &tc.Type, &tc.Subgroup)
	return tc, err
}

func (c *SQLiteCatalog) Machines(ctx context.Context) ([]plan.Machine, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+machineCols+` FROM machines ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query machines: %w", err)
	}
	defer rows.Close()

	var out []plan.Machine
	for rows.Next() {
		m, err := scanMachine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan machine: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (c *SQLiteCatalog) Machine(ctx context.Context, id int) (plan.Machine, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+machineCols+` FROM machines WHERE id = ?`, id)
	m, err := scanMachine(row)
	if errors.Is(err, sql.ErrNoRows) {
		return plan.Machine{}, ErrNotFound
	}
	if err != nil {
		return plan.Machine{}, fmt.Errorf("failed to load machine %d: %w", id, err)
	}
	return m, nil
}

func (c *SQLiteCatalog) TestCases(ctx context.Context) ([]plan.TestCase, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+testCaseCols+` FROM test_cases ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query test cases: %w", err)
	}
	defer rows.Close()

	var out []plan.TestCase
	for rows.Next() {
		tc, err := scanTestCase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan test case: %w", err)
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func (c *SQLiteCatalog) TestCase(ctx context.Context, id int) (plan.TestCase, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+testCaseCols+` FROM test_cases WHERE id = ?`, id)
	tc, err := scanTestCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return plan.TestCase{}, ErrNotFound
	}
	if err != nil {
		return plan.TestCase{}, fmt.Errorf("failed to load test case %d: %w", id, err)
	}
	return tc, nil
}

// Close closes the database.
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}
