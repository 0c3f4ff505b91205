//go:build switchstr

package dup

import "github.com/chazu/switchstr"

func Describe(seg string) string {
	switch switchstr.On(seg, "ERR", "MSH") {
	case "MSH":
		return "header"
	case "MSH":
		return "again"
	}
	return "other"
}
