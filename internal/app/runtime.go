package app

import (
	"os"
	"sync"
)

// testModeEnv set to "1" makes the binaries return before dialling Redis,
// Postgres or the ticketing API.
const testModeEnv = "BOXOFFICE_TEST_MODE"

var testMode = sync.OnceValue(func() bool {
	return os.Getenv(testModeEnv) == "1"
})

// InTestMode reports whether runtime startup should be skipped.
func InTestMode() bool {
	return testMode()
}
