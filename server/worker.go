package server

import (
	"errors"
	"fmt"
	"go/token"
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

var errStopped = errors.New("worker stopped")

// workRequest represents a unit of work to be executed on the worker goroutine.
type workRequest struct {
	fn   func(*Workspace) any
	done chan workResult
}

// workResult holds the return value from a workspace operation.
type workResult struct {
	value any
	err   error
}

// Worker serializes all workspace access through a single goroutine.
// LSP handlers run concurrently; documents are reparsed on change and
// queried by position, and must never be read half-updated.
type Worker struct {
	ws       *Workspace
	requests chan workRequest
	quit     chan struct{}
	stopOnce sync.Once
}

// NewWorker creates a Worker and starts the processing goroutine.
func NewWorker(ws *Workspace) *Worker {
	w := &Worker{
		ws:       ws,
		requests: make(chan workRequest, 64),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

// loop processes requests sequentially on a dedicated goroutine.
func (w *Worker) loop() {
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs a function on the workspace, recovering from panics.
func (w *Worker) execute(fn func(*Workspace) any) workResult {
	var result workResult
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.err = fmt.Errorf("%v", r)
			}
		}()
		result.value = fn(w.ws)
	}()
	return result
}

// Do submits a function for execution on the worker goroutine and blocks
// until it completes. Returns the result and any error (including panics).
func (w *Worker) Do(fn func(*Workspace) any) (any, error) {
	req := workRequest{
		fn:   fn,
		done: make(chan workResult, 1),
	}
	select {
	case <-w.quit:
		return nil, errStopped
	default:
	}
	select {
	case w.requests <- req:
	case <-w.quit:
		return nil, errStopped
	}
	select {
	case result := <-req.done:
		return result.value, result.err
	case <-w.quit:
		return nil, errStopped
	}
}

// Stop shuts down the worker goroutine. Later calls do nothing.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.quit) })
}

// Update replaces the content of uri and returns its diagnostics.
func (w *Worker) Update(uri protocol.DocumentUri, text string) ([]protocol.Diagnostic, error) {
	result, err := w.Do(func(ws *Workspace) any {
		doc := ws.Update(uri, text)
		log.Debugf("%s: %d sites, %d parse errors", uri, len(doc.Sites()), len(doc.ParseErrors))
		return doc.diagnostics()
	})
	if err != nil {
		return nil, err
	}
	return result.([]protocol.Diagnostic), nil
}

// Close forgets the document uri.
func (w *Worker) Close(uri protocol.DocumentUri) error {
	_, err := w.Do(func(ws *Workspace) any {
		ws.Close(uri)
		return nil
	})
	return err
}

// Query runs fn on the document uri with pos translated to its syntax
// tree. The result is nil when the document is not open or pos lies
// outside it.
func (w *Worker) Query(uri protocol.DocumentUri, pos protocol.Position, fn func(doc *Document, p token.Pos) any) (any, error) {
	return w.Do(func(ws *Workspace) any {
		doc := ws.Document(uri)
		if doc == nil {
			return nil
		}
		p := doc.pos(pos)
		if !p.IsValid() {
			return nil
		}
		return fn(doc, p)
	})
}
