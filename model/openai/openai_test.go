package openai

import (
	"testing"

	"github.com/hupe1980/contextmesh/core"
)

// Interface compliance (compile-time assertions)
var (
	_ core.Summarizer     = (*Client)(nil)
	_ core.TitleGenerator = (*Client)(nil)
)

func TestClient_InterfaceOnly(t *testing.T) {
	// No runtime behavior needed; existence of this test file ensures the assertions above are compiled.
}
