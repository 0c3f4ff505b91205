//go:build switchstr

package valid

import "github.com/chazu/switchstr"

func Describe(seg string) string {
	switch switchstr.On(seg, "ERR", "MSH") {
	case "MSH":
		return "header"
	}
	return "other"
}
