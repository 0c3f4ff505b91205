package server

import (
	"errors"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"net/url"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/chazu/switchstr/scan"
)

// Workspace holds the open documents and their latest analysis. It is not
// safe for concurrent use; the LSP server accesses it through a Worker.
type Workspace struct {
	cfg  scan.Config
	docs map[protocol.DocumentUri]*Document
}

// NewWorkspace creates an empty workspace scanning with cfg.
func NewWorkspace(cfg scan.Config) *Workspace {
	return &Workspace{
		cfg:  cfg,
		docs: make(map[protocol.DocumentUri]*Document),
	}
}

// Document is an open file. Text is the latest content sent by the client.
// The syntax tree and scan result come from the latest content that parsed
// far enough to produce a file, which is src.
type Document struct {
	URI  protocol.DocumentUri
	Text string

	ParseErrors scanner.ErrorList

	src    string
	fset   *token.FileSet
	file   *ast.File
	result *scan.Result
}

// Update stores text as the content of uri and reanalyzes it.
func (w *Workspace) Update(uri protocol.DocumentUri, text string) *Document {
	doc := &Document{URI: uri, Text: text}

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, uriFilename(uri), text, parser.ParseComments|parser.AllErrors|parser.SkipObjectResolution)
	var list scanner.ErrorList
	if errors.As(err, &list) {
		doc.ParseErrors = list
	}

	switch prev := w.docs[uri]; {
	case f != nil:
		doc.src, doc.fset, doc.file = text, fset, f
		doc.result = scan.Files(fset, []*ast.File{f}, nil, nil, w.cfg)
	case prev != nil:
		doc.src, doc.fset, doc.file, doc.result = prev.src, prev.fset, prev.file, prev.result
	}

	w.docs[uri] = doc
	return doc
}

// Close forgets uri.
func (w *Workspace) Close(uri protocol.DocumentUri) {
	delete(w.docs, uri)
}

// Document returns the open document uri, or nil.
func (w *Workspace) Document(uri protocol.DocumentUri) *Document {
	return w.docs[uri]
}

// Sites returns the sites found in the document.
func (d *Document) Sites() []*scan.Site {
	if d.result == nil {
		return nil
	}
	return d.result.Sites
}

// pos converts an LSP position in the analyzed source to a token.Pos.
func (d *Document) pos(p protocol.Position) token.Pos {
	if d.file == nil {
		return token.NoPos
	}
	tf := d.fset.File(d.file.Pos())
	return tf.Pos(offsetOf(d.src, p))
}

func (d *Document) rangeOf(from, to token.Pos) protocol.Range {
	return protocol.Range{
		Start: positionOf(d.src, d.fset.Position(from).Offset),
		End:   positionOf(d.src, d.fset.Position(to).Offset),
	}
}

func (d *Document) location(n ast.Node) protocol.Location {
	return protocol.Location{URI: d.URI, Range: d.rangeOf(n.Pos(), n.End())}
}

// siteAt returns the innermost site whose switch statement contains p.
func (d *Document) siteAt(p token.Pos) *scan.Site {
	var best *scan.Site
	for _, s := range d.Sites() {
		if s.Switch.Pos() <= p && p <= s.Switch.End() {
			if best == nil || s.Switch.Pos() > best.Switch.Pos() {
				best = s
			}
		}
	}
	return best
}

// labelAt returns the branch label containing p.
func (d *Document) labelAt(p token.Pos) (*scan.Site, *scan.Label) {
	s := d.siteAt(p)
	if s == nil {
		return nil, nil
	}
	for _, b := range s.Branches {
		for _, l := range b.Labels {
			if l.Expr.Pos() <= p && p <= l.Expr.End() {
				return s, l
			}
		}
	}
	return s, nil
}

// entryAt returns the position in the case set of the entry containing p,
// or -1.
func (d *Document) entryAt(p token.Pos) (*scan.Site, int) {
	s := d.siteAt(p)
	if s == nil {
		return nil, -1
	}
	for i, e := range s.CaseExprs {
		if e.Pos() <= p && p <= e.End() {
			return s, i
		}
	}
	return s, -1
}

// uriFilename returns the path of a file URI, or the URI itself.
func uriFilename(uri protocol.DocumentUri) string {
	u, err := url.Parse(string(uri))
	if err != nil || u.Scheme != "file" {
		return string(uri)
	}
	return u.Path
}
