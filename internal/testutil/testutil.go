// Package testutil provides shared test helpers for setting up vault engines.
package testutil

import (
	"testing"

	"github.com/ravnholt/laguz/internal/vault"
)

// TestEngine opens an engine over a temporary vault that is automatically closed.
func TestEngine(t *testing.T, opts ...vault.Option) *vault.Engine {
	t.Helper()
	eng, err := vault.Open(t.TempDir(), opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { eng.Close() })
	return eng
}
