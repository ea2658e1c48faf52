package sessionpool

// this just defines the environment variables that are used in the integration tests
const (
	EnvTestConnString = "SESSIONPOOL_TEST_CONN_STRING"
)
