// Example for driving a plugin through its lifecycle.
package lifecycle_test

import (
	"fmt"

	"github.com/srediag/plugin-xplm/api"
	"github.com/srediag/plugin-xplm/internal/simhost"
	"github.com/srediag/plugin-xplm/pkg/lifecycle"
	"github.com/srediag/plugin-xplm/pkg/xplm"
)

type hello struct{}

func (hello) Info() api.Info {
	return api.Info{Name: "Hello", Signature: "com.example.hello"}
}

func (hello) Enable(ctx *xplm.Context) error {
	ctx.Debugf("hello: enabled in session %t", ctx.Session() != "")
	return nil
}

func (hello) Disable(*xplm.Context) error { return nil }
func (hello) Stop(*xplm.Context) error    { return nil }

func ExampleShim() {
	h := simhost.New(simhost.DefaultOptions())
	defer h.Close()

	sh, err := lifecycle.New(h, func(*xplm.Context) (api.Plugin, error) { return hello{}, nil }, lifecycle.Options{})
	if err != nil {
		fmt.Println("new failed:", err)
		return
	}
	l, err := h.Load(sh)
	if err != nil {
		fmt.Println("load failed:", err)
		return
	}
	fmt.Println(sh.State(), sh.Info().Name)
	l.Disable()
	fmt.Println(sh.State())
	l.Unload()
	fmt.Println(sh.State())
	// Output:
	// enabled Hello
	// disabled
	// stopped
}
