package server

import (
	"fmt"
	"go/token"
	"strconv"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/chazu/switchstr/scan"
)

// diagnostics converts the parse errors and scan diagnostics of d.
func (d *Document) diagnostics() []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}
	source := lspName

	for _, e := range d.ParseErrors {
		severity := protocol.DiagnosticSeverityError
		start := positionOf(d.Text, offsetInLine(d.Text, e.Pos.Line, e.Pos.Column))
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    protocol.Range{Start: start, End: start},
			Severity: &severity,
			Source:   &source,
			Message:  e.Msg,
		})
	}
	if len(d.ParseErrors) > 0 && d.src != d.Text {
		// Scan results belong to older content; positions would be off.
		return diagnostics
	}

	if d.result == nil {
		return diagnostics
	}
	for _, sd := range d.result.Diagnostics {
		severity := protocol.DiagnosticSeverityError
		if sd.Severity == scan.SeverityWarning {
			severity = protocol.DiagnosticSeverityWarning
		}
		diag := protocol.Diagnostic{
			Range:    d.rangeOf(sd.Pos, sd.End),
			Severity: &severity,
			Code:     &protocol.IntegerOrString{Value: sd.Code},
			Source:   &source,
			Message:  sd.Message,
		}
		if sd.Related.IsValid() {
			diag.RelatedInformation = []protocol.DiagnosticRelatedInformation{{
				Location: protocol.Location{URI: d.URI, Range: d.rangeOf(sd.Related, sd.Related)},
				Message:  "first handled here",
			}}
		}
		diagnostics = append(diagnostics, diag)
	}
	return diagnostics
}

// offsetInLine returns the byte offset of the 1-based line and column.
func offsetInLine(text string, line, column int) int {
	off := 0
	for l := 1; l < line; l++ {
		nl := strings.IndexByte(text[off:], '\n')
		if nl < 0 {
			return len(text)
		}
		off += nl + 1
	}
	return min(off+max(column-1, 0), len(text))
}

// hover describes the label, case set entry or On call under p.
func (d *Document) hover(p token.Pos) *protocol.Hover {
	site, label := d.labelAt(p)
	if site == nil {
		return nil
	}

	var b strings.Builder
	var r protocol.Range
	switch _, entry := d.entryAt(p); {
	case label != nil:
		r = d.rangeOf(label.Expr.Pos(), label.Expr.End())
		switch {
		case !label.Resolved || !site.Checked:
			fmt.Fprintf(&b, "Case label of switch `%s`; its position is only known to the type checker.", site.Name)
		case label.Index < 0:
			fmt.Fprintf(&b, "`%s` is **not in the case set** of switch `%s`.", strconv.Quote(label.Text), site.Name)
		default:
			fmt.Fprintf(&b, "**case %d of %d** in switch `%s`\n\n", label.Index, len(site.Cases), site.Name)
			fmt.Fprintf(&b, "`%s` resolves to `%s` (= %d).", strconv.Quote(label.Text), scan.CaseConst(site.Name, label.Index), label.Index)
		}
	case entry >= 0:
		r = d.rangeOf(site.CaseExprs[entry].Pos(), site.CaseExprs[entry].End())
		fmt.Fprintf(&b, "**case %d of %d** in switch `%s`\n\n", entry, len(site.Cases), site.Name)
		if refs := handledBy(site, entry); len(refs) > 0 {
			fmt.Fprintf(&b, "Handled by %d label(s).", len(refs))
		} else {
			b.WriteString("Not handled; subjects equal to it take the default branch.")
		}
	case site.Call.Pos() <= p && p <= site.Call.End():
		r = d.rangeOf(site.Call.Pos(), site.Call.End())
		fmt.Fprintf(&b, "**switch %s**: %d cases, sentinel %d\n\n", site.Name, len(site.Cases), len(site.Cases))
		for i, c := range site.Cases {
			fmt.Fprintf(&b, "%d. `%s`\n", i, strconv.Quote(c))
		}
		if !site.Checked {
			b.WriteString("\nSome cases are not literals; run switchstr check for the full set.\n")
		}
	default:
		return nil
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
		Range: &r,
	}
}

// handledBy returns the labels of site resolving to position i.
func handledBy(site *scan.Site, i int) []*scan.Label {
	var labels []*scan.Label
	for _, b := range site.Branches {
		for _, l := range b.Labels {
			if l.Index == i {
				labels = append(labels, l)
			}
		}
	}
	return labels
}

// complete offers the case set entries not yet handled when p is inside
// the label list of a case clause.
func (d *Document) complete(p token.Pos, text string, offset int) []protocol.CompletionItem {
	site := d.siteAt(p)
	if site == nil || !d.inCaseList(site, p) {
		return nil
	}

	handled := make(map[int]bool)
	for _, b := range site.Branches {
		for _, l := range b.Labels {
			if l.Index >= 0 {
				handled[l.Index] = true
			}
		}
	}

	quoted := openQuote(text, offset)
	kind := protocol.CompletionItemKindEnumMember
	var items []protocol.CompletionItem
	for i, c := range site.Cases {
		if handled[i] {
			continue
		}
		label := strconv.Quote(c)
		insert := label
		if quoted {
			insert = label[1:]
		}
		detail := fmt.Sprintf("case %d of %d", i, len(site.Cases))
		sortText := fmt.Sprintf("%06d", i)
		items = append(items, protocol.CompletionItem{
			Label:      label,
			Kind:       &kind,
			Detail:     &detail,
			SortText:   &sortText,
			FilterText: &label,
			InsertText: &insert,
		})
	}
	return items
}

// inCaseList reports whether p lies between the case keyword and the colon
// of one of site's clauses.
func (d *Document) inCaseList(site *scan.Site, p token.Pos) bool {
	for _, b := range site.Branches {
		if b.IsDefault() {
			continue
		}
		if b.Clause.Case+token.Pos(len("case")) <= p && p <= b.Clause.Colon {
			return true
		}
	}
	return false
}

// openQuote reports whether the cursor at offset follows an unterminated
// string literal opened on the same line.
func openQuote(text string, offset int) bool {
	line := text[strings.LastIndexByte(text[:offset], '\n')+1 : offset]
	return strings.Count(line, `"`)%2 == 1
}

// definition locates the case set entry a label resolves to.
func (d *Document) definition(p token.Pos) []protocol.Location {
	site, label := d.labelAt(p)
	if label == nil || label.Index < 0 || label.Index >= len(site.CaseExprs) {
		return nil
	}
	return []protocol.Location{d.location(site.CaseExprs[label.Index])}
}

// references lists the labels resolving to the same case set entry as the
// label or entry under p.
func (d *Document) references(p token.Pos, includeDeclaration bool) []protocol.Location {
	site, label := d.labelAt(p)
	if site == nil {
		return nil
	}
	entry := -1
	if label != nil {
		entry = label.Index
	} else {
		_, entry = d.entryAt(p)
	}
	if entry < 0 || entry >= len(site.CaseExprs) {
		return nil
	}

	var locations []protocol.Location
	if includeDeclaration {
		locations = append(locations, d.location(site.CaseExprs[entry]))
	}
	for _, l := range handledBy(site, entry) {
		locations = append(locations, d.location(l.Expr))
	}
	return locations
}
