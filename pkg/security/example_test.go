// Example for validating plugin signatures before start.
package security_test

import (
	"errors"
	"fmt"

	"github.com/srediag/plugin-xplm/pkg/security"
)

func ExampleUnique() {
	v := security.NewUnique(security.DefaultValidator())
	fmt.Println(v.ValidateSignature("com.example.demo"))
	fmt.Println(errors.Is(v.ValidateSignature("com.example.demo"), security.ErrInvalidSignature))
	v.Release("com.example.demo")
	fmt.Println(v.ValidateSignature("com.example.demo"))
	fmt.Println(errors.Is(v.ValidateSignature("xplanesdk.examples.demo"), security.ErrInvalidSignature))
	// Output:
	// <nil>
	// true
	// <nil>
	// true
}
