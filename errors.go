package sessionpool

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrClosed is returned by operations on a pool that has been closed.
	ErrClosed = errors.New("closed pool")

	// ErrBusy is returned by TryAcquire when the pool is at capacity and
	// no idle session is available.
	ErrBusy = errors.New("pool exhausted")
)

// ConnectError is the error returned when the driver fails to establish or
// initialize a new session. The pool performs no retries; retry policy
// belongs to the caller.
type ConnectError struct {
	Config *Config
	err    error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to `host=%s user=%s database=%s`: %v",
		e.Config.Host, e.Config.User, e.Config.Database, e.err)
}

func (e *ConnectError) Unwrap() error {
	return e.err
}

// AcquireTimeoutError is returned by Acquire when no session became
// available within the allowed wait.
type AcquireTimeoutError struct {
	Wait time.Duration
}

func (e *AcquireTimeoutError) Error() string {
	return fmt.Sprintf("acquire timeout after %v", e.Wait)
}

// Timeout implements the net.Error convention.
func (e *AcquireTimeoutError) Timeout() bool { return true }

// ParseConfigError is the error returned when a connection string cannot
// be parsed. Its message never includes the password.
type ParseConfigError struct {
	ConnString string
	msg        string
	err        error
}

func newParseConfigError(conn, msg string, err error) error {
	return &ParseConfigError{
		ConnString: conn,
		msg:        msg,
		err:        err,
	}
}

func (e *ParseConfigError) Error() string {
	// Redact the password before including the conn string in the message.
	quotedConnString := redactPW(e.ConnString)
	if e.err == nil {
		return fmt.Sprintf("cannot parse `%s`: %s", quotedConnString, e.msg)
	}
	return fmt.Sprintf("cannot parse `%s`: %s (%s)", quotedConnString, e.msg, e.err.Error())
}

func (e *ParseConfigError) Unwrap() error {
	return e.err
}

func redactPW(connString string) string {
	if strings.HasPrefix(connString, "gaussdb://") || strings.HasPrefix(connString, "postgres://") || strings.HasPrefix(connString, "postgresql://") {
		if u, err := url.Parse(connString); err == nil {
			return redactURL(u)
		}
	}
	quotedKV := regexp.MustCompile(`password='[^']*'`)
	connString = quotedKV.ReplaceAllLiteralString(connString, "password=xxxxx")
	plainKV := regexp.MustCompile(`password=[^ ]*`)
	connString = plainKV.ReplaceAllLiteralString(connString, "password=xxxxx")
	brokenURL := regexp.MustCompile(`:[^:@]+?@`)
	connString = brokenURL.ReplaceAllLiteralString(connString, ":xxxxx@")
	return connString
}

func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	if _, pwSet := u.User.Password(); pwSet {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
