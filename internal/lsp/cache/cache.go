package cache

import (
	"strings"
	"sync"

	"github.com/usbdm-community/pinmux-tools/internal/builder"
	"github.com/usbdm-community/pinmux-tools/internal/index"
	"github.com/usbdm-community/pinmux-tools/internal/parser"
	"github.com/usbdm-community/pinmux-tools/internal/validator"
)

// Session holds the latest snapshot of every open pin table.
type Session struct {
	id        string
	opts      builder.Options
	mu        sync.Mutex
	snapshots map[string]*Snapshot
}

func NewSession(id string, opts builder.Options) *Session {
	return &Session{
		id:        id,
		opts:      opts,
		snapshots: make(map[string]*Snapshot),
	}
}

// Snapshot is an immutable view of one document version.
type Snapshot struct {
	URI      string
	Version  int
	Text     string
	Document *parser.Document
	// Model is kept even when the table fails structurally so hovers
	// still work; it is sealed only when Err is nil.
	Model       *index.Model
	Diagnostics []validator.Diagnostic
	// SyntaxErrors are the parser's errors, in input order.
	SyntaxErrors []error
	// Err is the structural failure of the table, if any.
	Err error
}

func URIToPath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}

// Update parses and processes text and makes it the current snapshot of
// uri. Older versions are ignored.
func (s *Session) Update(uri string, version int, text string) *Snapshot {
	s.mu.Lock()
	if cur, ok := s.snapshots[uri]; ok && cur.Version > version {
		s.mu.Unlock()
		return cur
	}
	s.mu.Unlock()

	snap := s.build(uri, version, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.snapshots[uri]; ok && cur.Version > version {
		return cur
	}
	s.snapshots[uri] = snap
	return snap
}

func (s *Session) build(uri string, version int, text string) *Snapshot {
	path := URIToPath(uri)
	p := parser.NewParser(text)
	doc, _ := p.Parse()
	b := builder.NewBuilder(path, s.opts)
	_, err := b.Build(doc)
	return &Snapshot{
		URI:          uri,
		Version:      version,
		Text:         text,
		Document:     doc,
		Model:        b.Model(),
		Diagnostics:  b.Diagnostics(),
		SyntaxErrors: p.Errors(),
		Err:          err,
	}
}

func (s *Session) Snapshot(uri string) (*Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[uri]
	return snap, ok
}

func (s *Session) Close(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, uri)
}

func (s *Session) URIs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.snapshots))
	for u := range s.snapshots {
		out = append(out, u)
	}
	return out
}
