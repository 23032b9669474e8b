package app

import (
	"os"
	"strconv"
)

const testModeEnv = "UMKM_TEST_MODE"

// InTestMode reports whether UMKM_TEST_MODE asks the binaries to skip
// startup side effects.
func InTestMode() bool {
	on, _ := strconv.ParseBool(os.Getenv(testModeEnv))
	return on
}
