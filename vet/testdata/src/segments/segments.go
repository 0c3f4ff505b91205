package segments

import "github.com/chazu/switchstr"

const Patient = "PID"

func Describe(seg string) string {
	switch switchstr.On(seg, "ERR", "MSH", Patient) {
	case "ERR":
		return "error"
	case "MSH", "PID":
		return "header"
	}
	return "other"
}

func Unlisted(seg string) {
	switch switchstr.On(seg, "ERR", "MSH") {
	case "PV1": // want `unlisted case "PV1": not in the case set of switch unlisted0`
	}
}

func Repetitive(seg string) {
	switch switchstr.On(seg, "ERR", "MSH", "ERR") { // want `repetitive case "ERR" in case set: positions 0 and 2`
	case "MSH":
	case "MSH": // want `repetitive case "MSH": already handled at segments.go:25:7`
	}
}

func NonConstant(seg, other string) {
	switch switchstr.On(seg, "ERR", other) { // want `case set entry must be a constant string`
	case "ERR":
	}
}

func Misplaced(seg string) string {
	return switchstr.On(seg, "ERR") // want `switchstr.On must be the tag of a switch statement`
}

func Spread(seg string, cases []string) {
	switch switchstr.On(seg, cases...) { // want `switchstr.On cases must be listed literally`
	}
}

func Named(seg string) {
	//switchstr:name describe0
	switch switchstr.On(seg, "ERR") { // want `site name "describe0" already used by the switch at segments.go:8:2`
	case "ERR":
	}
}
