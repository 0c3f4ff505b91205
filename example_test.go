package switchstr_test

import (
	"fmt"

	"github.com/chazu/switchstr"
)

// Without the generator the labels are checked when the package is
// initialized: an unlisted label in one of these vars panics at startup.
var (
	segments = switchstr.NewSite("ERR", "MSH", "OBR", "PID")

	segERR = segments.Case("ERR")
	segMSH = segments.Case("MSH")
)

func describe(seg string) string {
	switch segments.Resolve(seg) {
	case segERR:
		return "error"
	case segMSH:
		return "header"
	default:
		return "other"
	}
}

func ExampleSite() {
	fmt.Println(describe("MSH"))
	fmt.Println(describe("PV1"))
	fmt.Println(segments.Resolve("PV1") == segments.Sentinel())
	// Output:
	// header
	// other
	// true
}
