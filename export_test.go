// File export_test exports some internals for better testing.

package sessionpool

func NewParseConfigError(conn, msg string, err error) error {
	return newParseConfigError(conn, msg, err)
}

func NewConnectError(config *Config, err error) error {
	return &ConnectError{Config: config, err: err}
}
