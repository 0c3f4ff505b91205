// Package switchstr provides O(1) string switches with build-time checked
// case labels.
//
// A selection site is written in a template file (a Go file guarded by the
// `switchstr` build tag) as an ordinary switch whose tag is a call to On:
//
//	//switchstr:name segment
//	switch switchstr.On(seg, "ERR", "MSH", "OBR", "PID") {
//	case "MSH":
//		...
//	default:
//		...
//	}
//
// The switchstr generator validates every label against the declared case
// set, rejecting unlisted and repetitive cases, and rewrites the switch to
// dispatch on the dense index returned by a package-level Site.
//
// Code that does not go through the generator can use Site directly. In
// that case the label checks happen at package initialization instead of
// at build time: NewSite panics on a repetitive case set and Site.Case
// panics on an unlisted label.
package switchstr

// ImportPath is the import path of this package. The generator and the
// analyzer use it to recognize calls to On.
const ImportPath = "github.com/chazu/switchstr"

// On marks the tag of a string switch in a template file. It returns
// subject unchanged, so an unprocessed template still behaves like a
// plain (linear) string switch. The cases must be listed literally.
func On(subject string, cases ...string) string {
	return subject
}
