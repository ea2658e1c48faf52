// Package gaussdbdriver provides the production sessionpool.Driver backed
// by gaussdb-go.
package gaussdbdriver

import (
	"context"
	"fmt"
	"strings"

	"github.com/HuaweiCloudDeveloper/gaussdb-go/gaussdbconn"

	"github.com/ruanjonker/sessionpool"
)

// Driver implements [sessionpool.Driver] over gaussdbconn. The zero value
// is ready to use.
type Driver struct{}

var _ sessionpool.Driver = Driver{}

// Connect establishes a session and selects the configured schema. Any
// failure, in the connection handshake or in the schema statement, tears
// the session down and is reported as one error.
func (Driver) Connect(ctx context.Context, config *sessionpool.Config) (sessionpool.Session, error) {
	conn, err := gaussdbconn.Connect(ctx, connString(config))
	if err != nil {
		return nil, err
	}

	rr := conn.ExecParams(ctx, "select set_config('search_path', $1, false)",
		[][]byte{[]byte(config.Schema)}, nil, nil, nil)
	if _, err := rr.Close(); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("select schema %q: %w", config.Schema, err)
	}

	return &Session{conn: conn}, nil
}

// connString renders config in keyword/value format for
// gaussdbconn.ParseConfig.
func connString(config *sessionpool.Config) string {
	parts := []string{
		"host=" + quoteKV(config.Host),
		fmt.Sprintf("port=%d", config.Port),
		"user=" + quoteKV(config.User),
		"dbname=" + quoteKV(config.Database),
	}
	if config.Password != "" {
		parts = append(parts, "password="+quoteKV(config.Password))
	}
	return strings.Join(parts, " ")
}

func quoteKV(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `'`, `\'`)
	return "'" + value + "'"
}

// Session is one gaussdb-go connection owned by a pool.
type Session struct {
	conn *gaussdbconn.GaussdbConn
}

// Conn exposes the underlying connection for running queries. The session
// must be acquired from the pool while Conn is in use.
func (s *Session) Conn() *gaussdbconn.GaussdbConn { return s.conn }

// Close terminates the connection. It is idempotent and never reports
// close failures; the server notices the disconnect either way.
func (s *Session) Close(ctx context.Context) error {
	_ = s.conn.Close(ctx)
	return nil
}

// Done is closed once the connection's resources are cleaned up, which
// also covers the connection dying outside of an explicit Close.
func (s *Session) Done() <-chan struct{} {
	return s.conn.CleanupDone()
}
