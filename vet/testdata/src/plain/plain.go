package plain

import "github.com/chazu/switchstr"

func Describe(seg string) bool {
	switch switchstr.On(seg, "ERR", "MSH") { // want `switch is outside a template file`
	case "ERR":
		return true
	}
	return false
}
