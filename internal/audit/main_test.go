//go:build !integration

package audit

import (
	"testing"

	"go.uber.org/goleak"
)

// Container clients in the integration build keep background goroutines,
// so leak checking runs on the unit build only.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
