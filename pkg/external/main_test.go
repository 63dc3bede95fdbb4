package external

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
)

func TestMain(m *testing.M) {
	// Searches log every call; keep test output readable
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}
