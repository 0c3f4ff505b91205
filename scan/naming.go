package scan

import (
	"go/token"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NameDirective names the site of the switch that follows it:
//
//	//switchstr:name segment
const NameDirective = "//switchstr:name"

// SiteVar returns the name of the generated *switchstr.Site variable.
func SiteVar(site string) string {
	return site + "Site"
}

// LenConst returns the name of the generated case count constant.
func LenConst(site string) string {
	return site + "Len"
}

// CaseConst returns the name of the generated constant holding case i.
func CaseConst(site string, i int) string {
	return site + "Case" + strconv.Itoa(i)
}

// GeneratedNames returns every package-level identifier generated for a
// site with n cases.
func GeneratedNames(site string, n int) []string {
	names := []string{SiteVar(site), LenConst(site)}
	for i := 0; i < n; i++ {
		names = append(names, CaseConst(site, i))
	}
	return names
}

// DefaultSiteName names the ordinal-th site (0-based) of function fn.
// e.g., ("Dispatch", 0) → "dispatch0", ("", 2) → "site2"
func DefaultSiteName(fn string, ordinal int) string {
	if fn == "" || fn == "_" {
		return "site" + strconv.Itoa(ordinal)
	}
	return lowerFirst(fn) + strconv.Itoa(ordinal)
}

// ValidSiteName reports whether name can prefix generated identifiers.
func ValidSiteName(name string) bool {
	return token.IsIdentifier(name) && name != "_"
}

// parseNameDirective returns the site name from a directive comment.
func parseNameDirective(text string) (string, bool) {
	rest, ok := strings.CutPrefix(text, NameDirective)
	if !ok {
		return "", false
	}
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
