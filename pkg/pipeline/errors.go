package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure
type Kind int

const (
	// KindUpstream is a failed call to the object store, the analysis
	// service, the summarizer or the spreadsheet
	KindUpstream Kind = iota + 1
	// KindContent is a document whose analysis result cannot be used
	KindContent
)

func (k Kind) String() string {
	switch k {
	case KindUpstream:
		return "upstream"
	case KindContent:
		return "content"
	default:
		return "unknown"
	}
}

// Error describes a failed step of a pipeline
type Error struct {
	Kind Kind
	Op   string // "list", "read header", "pause", "analyze", "reconstruct tables", "summarize", ...
	Key  string // Object key of the document, empty for run-level steps
	Err  error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func upstream(op, key string, err error) error {
	return &Error{Kind: KindUpstream, Op: op, Key: key, Err: err}
}

func content(op, key string, err error) error {
	return &Error{Kind: KindContent, Op: op, Key: key, Err: err}
}

// KindOf returns the kind of a pipeline error, or 0 when err is not one
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}
