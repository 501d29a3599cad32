// Example for recording lifecycle audit events.
package audit_test

import (
	"fmt"

	"github.com/srediag/plugin-xplm/pkg/audit"
)

func ExampleRecorder() {
	rec := audit.NewRecorder(16)
	_ = rec.LogEvent("started", map[string]interface{}{"plugin": "Frame Counter", "session": "s-1"})
	_ = rec.LogEvent("enabled", nil)
	fmt.Println(rec.Names())
	fmt.Println(rec.Events()[0])
	// Output:
	// [started enabled]
	// started plugin="Frame Counter" session=s-1
}
