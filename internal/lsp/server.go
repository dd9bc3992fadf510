package lsp

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/usbdm-community/pinmux-tools/internal/builder"
	"github.com/usbdm-community/pinmux-tools/internal/index"
	"github.com/usbdm-community/pinmux-tools/internal/logger"
	"github.com/usbdm-community/pinmux-tools/internal/lsp/cache"
	"github.com/usbdm-community/pinmux-tools/internal/parser"
	"github.com/usbdm-community/pinmux-tools/internal/validator"
)

// ErrExitWithoutShutdown is returned by Run when the client sends exit
// before shutdown.
var ErrExitWithoutShutdown = errors.New("exit received before shutdown")

type Server struct {
	in       *bufio.Reader
	out      io.Writer
	outMu    sync.Mutex
	session  *cache.Session
	shutdown bool
}

func NewServer(in io.Reader, out io.Writer, opts builder.Options) *Server {
	return &Server{
		in:      bufio.NewReader(in),
		out:     out,
		session: cache.NewSession("pmt", opts),
	}
}

// RunServer serves the protocol on stdin and stdout.
func RunServer(opts builder.Options) error {
	return NewServer(os.Stdin, os.Stdout, opts).Run()
}

// Run reads messages until exit or end of input.
func (s *Server) Run() error {
	for {
		msg, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			var syntax *json.SyntaxError
			var typ *json.UnmarshalTypeError
			if errors.As(err, &syntax) || errors.As(err, &typ) {
				logger.Printf("Error reading message: %v", err)
				continue
			}
			return err
		}
		if msg.Method == "exit" {
			if !s.shutdown {
				return ErrExitWithoutShutdown
			}
			return nil
		}
		s.handleMessage(msg)
	}
}

func readMessage(reader *bufio.Reader) (*JsonRpcMessage, error) {
	contentLength := -1
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		if line == "\r\n" || line == "\n" {
			break
		}
		if _, err := fmt.Sscanf(line, "Content-Length: %d", &contentLength); err == nil {
			continue
		}
	}
	if contentLength < 0 {
		return nil, errors.New("message without Content-Length header")
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(reader, body); err != nil {
		return nil, err
	}

	var msg JsonRpcMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *Server) handleMessage(msg *JsonRpcMessage) {
	logger.Debugf("lsp: %s", msg.Method)
	if s.shutdown && msg.ID != nil {
		s.respondError(msg.ID, errInvalidRequest, "server is shutting down")
		return
	}
	switch msg.Method {
	case "initialize":
		s.respond(msg.ID, map[string]any{
			"capabilities": map[string]any{
				"textDocumentSync": 1, // Full sync
				"hoverProvider":    true,
			},
			"serverInfo": map[string]any{"name": "pmt"},
		})
	case "initialized":
		// Do nothing
	case "shutdown":
		s.shutdown = true
		s.respond(msg.ID, nil)
	case "textDocument/didOpen":
		var params DidOpenTextDocumentParams
		if err := json.Unmarshal(msg.Params, &params); err == nil {
			s.handleDidOpen(params)
		}
	case "textDocument/didChange":
		var params DidChangeTextDocumentParams
		if err := json.Unmarshal(msg.Params, &params); err == nil {
			s.handleDidChange(params)
		}
	case "textDocument/didClose":
		var params DidCloseTextDocumentParams
		if err := json.Unmarshal(msg.Params, &params); err == nil {
			s.handleDidClose(params)
		}
	case "textDocument/hover":
		var params HoverParams
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			s.respondError(msg.ID, errInvalidParams, err.Error())
			return
		}
		s.respond(msg.ID, s.handleHover(params))
	default:
		if msg.ID != nil {
			s.respondError(msg.ID, errMethodNotFound, "method not found: "+msg.Method)
		}
	}
}

func (s *Server) handleDidOpen(params DidOpenTextDocumentParams) {
	doc := params.TextDocument
	s.publish(s.session.Update(doc.URI, doc.Version, doc.Text))
}

func (s *Server) handleDidChange(params DidChangeTextDocumentParams) {
	if len(params.ContentChanges) == 0 {
		return
	}
	text := params.ContentChanges[len(params.ContentChanges)-1].Text
	doc := params.TextDocument
	s.publish(s.session.Update(doc.URI, doc.Version, text))
}

func (s *Server) handleDidClose(params DidCloseTextDocumentParams) {
	uri := params.TextDocument.URI
	s.session.Close(uri)
	s.notify("textDocument/publishDiagnostics", PublishDiagnosticsParams{URI: uri, Diagnostics: []Diagnostic{}})
}

func (s *Server) publish(snap *cache.Snapshot) {
	s.notify("textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         snap.URI,
		Version:     snap.Version,
		Diagnostics: diagnostics(snap),
	})
}

func diagnostics(snap *cache.Snapshot) []Diagnostic {
	out := []Diagnostic{}
	for _, err := range snap.SyntaxErrors {
		d := Diagnostic{Severity: SeverityError, Code: "syntax", Source: "pmt", Message: err.Error()}
		var pe *parser.Error
		if errors.As(err, &pe) {
			d.Range = cellRange(snap.Document, pe.Position)
			d.Message = pe.Msg
		}
		out = append(out, d)
	}
	for _, diag := range snap.Diagnostics {
		sev := SeverityError
		if diag.Level == validator.LevelWarning {
			sev = SeverityWarning
		}
		out = append(out, Diagnostic{
			Range:    cellRange(snap.Document, diag.Position),
			Severity: sev,
			Code:     diag.Code,
			Source:   "pmt",
			Message:  diag.Message,
		})
	}
	if snap.Err != nil {
		d := Diagnostic{Severity: SeverityError, Code: "structural", Source: "pmt", Message: snap.Err.Error()}
		var se *validator.StructuralError
		if errors.As(snap.Err, &se) {
			d.Message = se.Error()
			d.Range = violationRange(snap, se)
		}
		out = append(out, d)
	}
	return out
}

// cellRange converts a 1-based table position into the range of the cell
// starting there, or of the whole row when no cell starts there.
func cellRange(doc *parser.Document, pos parser.Position) Range {
	start := Position{Line: max(pos.Line-1, 0), Character: max(pos.Column-1, 0)}
	end := Position{Line: start.Line, Character: start.Character + 1}
	if doc == nil {
		return Range{Start: start, End: end}
	}
	row, ok := doc.RowAt(pos.Line)
	if !ok {
		return Range{Start: start, End: end}
	}
	rec := row.Raw()
	if i, ok := rec.CellAt(pos.Column); ok {
		end.Character = rec.Cells[i].End() - 1
	} else if n := len(rec.Cells); n > 0 {
		end.Character = rec.Cells[n-1].End() - 1
	}
	return Range{Start: start, End: end}
}

func violationRange(snap *cache.Snapshot, se *validator.StructuralError) Range {
	pin := se.Pin
	if pin == "" && len(se.Locations) > 0 {
		pin = se.Locations[0].Pin
	}
	if snap.Model != nil {
		if p, ok := snap.Model.Pins.Lookup(pin); ok {
			return cellRange(snap.Document, p.Position)
		}
	}
	return Range{End: Position{Character: 1}}
}

func (s *Server) handleHover(params HoverParams) *Hover {
	snap, ok := s.session.Snapshot(params.TextDocument.URI)
	if !ok || snap.Document == nil {
		return nil
	}
	line := params.Position.Line + 1
	col := params.Position.Character + 1

	row, ok := snap.Document.RowAt(line)
	if !ok {
		return nil
	}
	rec := row.Raw()
	i, ok := rec.CellAt(col)
	if !ok {
		return nil
	}
	cell := rec.Cells[i]
	m := snap.Model

	var content string
	switch r := row.(type) {
	case *parser.PinRow:
		if i == 1 {
			content = pinInfo(m, r.Name())
		} else if i >= parser.MuxColumnOffset {
			if match, ok := index.Recognize(cell.Value); ok {
				content = signalInfo(m, index.MatchKey(match))
			}
		}
	case *parser.AliasRow:
		switch i {
		case 1:
			if pin, ok := m.Aliases.Resolve(r.Alias()); ok {
				content = pinInfo(m, pin)
			}
		case 2:
			content = pinInfo(m, r.Target())
		}
	case *parser.DefaultRow:
		switch i {
		case 1:
			content = signalInfo(m, r.Signal())
		case 2:
			content = pinInfo(m, r.Pin())
		}
	case *parser.ClockInfoRow:
		if i == 1 {
			content = clockInfo(m, r.Peripheral())
		}
	}
	logger.Debugf("lsp: hover %s:%d:%d %q", params.TextDocument.URI, line, col, content)

	if content == "" {
		return nil
	}
	rng := cellRange(snap.Document, cell.Position)
	return &Hover{
		Contents: MarkupContent{
			Kind:  "markdown",
			Value: content,
		},
		Range: &rng,
	}
}

func pinInfo(m *index.Model, name string) string {
	p, ok := m.Pins.Lookup(name)
	if !ok {
		return ""
	}
	info := fmt.Sprintf("**Pin**: `%s`", p.Name())
	if alias, ok := m.Aliases.AliasOf(p.Name()); ok {
		info += fmt.Sprintf(" (Alias: `%s`)", alias)
	}
	info += fmt.Sprintf("\n\n`%s`", p.Description())
	var sigs []string
	for _, mp := range p.All() {
		sigs = append(sigs, fmt.Sprintf("`%s` (mux %d)", mp.Signal.Key(), mp.Mux))
	}
	if len(sigs) > 0 {
		info += "\n\n**Signals**: " + strings.Join(sigs, ", ")
	}
	return info
}

func signalInfo(m *index.Model, key string) string {
	e, ok := m.Mux.Lookup(key)
	if !ok {
		return fmt.Sprintf("**Signal**: `%s` (unknown)", key)
	}
	alts := e.Alternatives()
	for i, a := range alts {
		alts[i] = m.Aliases.Decorate(a)
	}
	info := fmt.Sprintf("**Signal**: `%s`\n\n**Alternatives**: %s\n\n**Default**: `%s`",
		key, strings.Join(alts, ", "), m.Aliases.Decorate(e.Default()))
	if e.Constant() {
		info += " (constant)"
	}
	if rej := e.Rejected(); len(rej) > 0 {
		info += fmt.Sprintf("\n\n**Invalid defaults**: %s", strings.Join(rej, ", "))
	}
	if sig := e.Signal(); sig.Family() != index.FamilyPort {
		ci := m.Clocks.Resolve(sig.Peripheral())
		info += fmt.Sprintf("\n\n**Clock**: `%s` `%s`", ci.Register, ci.Mask)
	}
	return info
}

func clockInfo(m *index.Model, peripheral string) string {
	if !m.Instances.Has(peripheral) {
		return fmt.Sprintf("**Peripheral**: `%s` (not used by any pin)", peripheral)
	}
	ci := m.Clocks.Resolve(peripheral)
	return fmt.Sprintf("**Peripheral**: `%s`\n\n**Register**: `%s`\n\n**Mask**: `%s`", peripheral, ci.Register, ci.Mask)
}

type response struct {
	Jsonrpc string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Result  any    `json:"result"`
}

func (s *Server) respond(id any, result any) {
	s.send(response{Jsonrpc: "2.0", ID: id, Result: result})
}

func (s *Server) respondError(id any, code int, message string) {
	s.send(JsonRpcMessage{Jsonrpc: "2.0", ID: id, Error: &JsonRpcError{Code: code, Message: message}})
}

func (s *Server) notify(method string, params any) {
	body, err := json.Marshal(params)
	if err != nil {
		logger.Printf("Error encoding %s: %v", method, err)
		return
	}
	s.send(JsonRpcMessage{Jsonrpc: "2.0", Method: method, Params: body})
}

func (s *Server) send(msg any) {
	body, err := json.Marshal(msg)
	if err != nil {
		logger.Printf("Error encoding message: %v", err)
		return
	}
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.out, "Content-Length: %d\r\n\r\n%s", len(body), body)
}
