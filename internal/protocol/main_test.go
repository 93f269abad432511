package protocol

import (
	"os"
	"testing"

	"github.com/wagiedev/toolagent-go/internal/mcptest"
)

func TestMain(m *testing.M) {
	mcptest.Main()
	os.Exit(m.Run())
}
