// Package testutil provides a scripted stub database for postgres store tests.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
)

var stubSeq uint64

// StubConn records statements issued by the postgres store and serves
// scripted results. It implements just enough of the driver surface for the
// store's prepared-free ExecContext/QueryContext usage.
type StubConn struct {
	Execs   []string
	Queries []string

	// PingErr fails connectivity verification when set.
	PingErr error
	// ExecErr fails every exec when set.
	ExecErr error
	// SeedConflict makes ON CONFLICT inserts report zero affected rows.
	SeedConflict bool
	// UpdateRows is the affected-row count reported for UPDATE statements.
	UpdateRows int64
	// Rows is returned, one row per entry, for the next query.
	Rows [][]driver.Value
	// Columns describes the scripted result set.
	Columns []string
}

// NewStubDB registers a sql.DB backed by an in-memory stub connection.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{UpdateRows: 1}
	name := fmt.Sprintf("stubpg%d", atomic.AddUint64(&stubSeq, 1))
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

type stubDriver struct {
	conn *StubConn
}

func (d *stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

// Prepare implements driver.Conn.
func (c *StubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) { return nil, fmt.Errorf("not implemented") }

// Ping implements driver.Pinger.
func (c *StubConn) Ping(_ context.Context) error { return c.PingErr }

// ExecContext implements driver.ExecerContext.
func (c *StubConn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	c.Execs = append(c.Execs, query)
	if c.ExecErr != nil {
		return nil, c.ExecErr
	}
	upper := strings.ToUpper(query)
	if strings.Contains(upper, "ON CONFLICT") && c.SeedConflict {
		return driver.RowsAffected(0), nil
	}
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "UPDATE") {
		return driver.RowsAffected(c.UpdateRows), nil
	}
	return driver.RowsAffected(1), nil
}

// QueryContext implements driver.QueryerContext.
func (c *StubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	c.Queries = append(c.Queries, query)
	return &stubRows{columns: c.Columns, rows: c.Rows}, nil
}

type stubRows struct {
	columns []string
	rows    [][]driver.Value
	idx     int
}

func (r *stubRows) Columns() []string { return r.columns }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}
