// Package grpcclient is a solver.Solver/solver.HornSolver implementation
// that forwards every assertion to an out-of-process SMT service over
// gRPC, using protoreflect dynamic messages built from an in-memory
// proto schema instead of generated stubs — the same no-codegen pattern
// funvibe-funxy's evaluator/builtins_grpc.go uses for its grpcInvoke
// built-in.
//
// The wire representation of a Term is its SMT-LIB2 s-expression text;
// the backend is expected to be any SMT-LIB2-speaking solver exposed
// behind a small unary RPC surface (Assert/Check/Model/FuncInterp),
// which keeps this client agnostic to which solver binary backs the
// service.
package grpcclient

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/twyair/verification-project/internal/solver"
)

const schema = `
syntax = "proto3";
package verifier.solver.v1;

message AssertRequest {
  string session_id = 1;
  string smtlib = 2;
}
message AssertReply {}

message CheckRequest {
  string session_id = 1;
}
message CheckReply {
  string verdict = 1; // "sat" | "unsat" | "unknown"
}

message ModelRequest {
  string session_id = 1;
}
message ModelEntryMsg {
  string name = 1;
  string value = 2;
}
message ModelReply {
  repeated ModelEntryMsg entries = 1;
}

message FuncInterpRequest {
  string session_id = 1;
  string predicate_name = 2;
}
message FuncInterpEntryMsg {
  repeated string inputs = 1;
  string value = 2;
}
message FuncInterpReply {
  repeated FuncInterpEntryMsg entries = 1;
  bool has_else = 2;
  string else_value = 3;
}

message CloseRequest {
  string session_id = 1;
}
message CloseReply {}
`

var (
	fileOnce sync.Once
	file     *desc.FileDescriptor
	fileErr  error
)

func loadSchema() (*desc.FileDescriptor, error) {
	fileOnce.Do(func() {
		p := protoparse.Parser{
			Accessor: protoparse.FileContentsFromMap(map[string]string{"solver.proto": schema}),
		}
		fds, err := p.ParseFiles("solver.proto")
		if err != nil {
			fileErr = fmt.Errorf("grpcclient: parse embedded schema: %w", err)
			return
		}
		file = fds[0]
	})
	return file, fileErr
}

func msgDesc(fd *desc.FileDescriptor, name string) *desc.MessageDescriptor {
	return fd.FindMessage("verifier.solver.v1." + name)
}

// Dial opens a gRPC connection to target and returns a session factory.
// Every NewSolver/NewHornSolver call yields an independent logical session on the
// server side, named by a locally generated id, mirroring the
// Solver/HornSolver "open one session per verification request"
// contract of spec.md §5.
func Dial(target string) (*Client, error) {
	fd, err := loadSchema()
	if err != nil {
		return nil, err
	}
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpcclient: dial %s: %w", target, err)
	}
	return &Client{conn: conn, fd: fd}, nil
}

type Client struct {
	conn *grpc.ClientConn
	fd   *desc.FileDescriptor
}

// nextID mints a session id the server can use to key concurrent
// checking sessions over the same connection; a random UUID rather than
// a counter means two Client instances (e.g. in separate verifier
// processes pointed at the same backend) never collide.
func (c *Client) nextID() string {
	return uuid.NewString()
}

// NewSolver opens a non-Horn session.
func (c *Client) NewSolver() *Session {
	return &Session{client: c, sessionID: c.nextID(), builder: newBuilder()}
}

// NewHornSolver opens a Horn-mode session.
func (c *Client) NewHornSolver() *HornSession {
	return &HornSession{Session: c.NewSolver()}
}

func (c *Client) Close() error { return c.conn.Close() }

// Session implements solver.Solver. Each Term it produces carries its
// SMT-LIB2 text, built when the term is constructed; Assert only buffers
// the term locally, and Check sends the buffered assertions (after their
// declare-const preamble) to the service. Term construction makes no
// network calls.
type Session struct {
	client    *Client
	sessionID string
	builder   *builder
}

func (s *Session) Const(name string, sort solver.Sort) solver.Term { return s.builder.Const(name, sort) }
func (s *Session) IntLit(n int64) solver.Term                      { return s.builder.IntLit(n) }
func (s *Session) RealLit(r float64) solver.Term                   { return s.builder.RealLit(r) }
func (s *Session) BoolLit(b bool) solver.Term                      { return s.builder.BoolLit(b) }
func (s *Session) Add(l, r solver.Term) solver.Term                { return s.builder.Add(l, r) }
func (s *Session) Sub(l, r solver.Term) solver.Term                { return s.builder.Sub(l, r) }
func (s *Session) Mul(l, r solver.Term) solver.Term                { return s.builder.Mul(l, r) }
func (s *Session) Div(l, r solver.Term) solver.Term                { return s.builder.Div(l, r) }
func (s *Session) Mod(l, r solver.Term) solver.Term                { return s.builder.Mod(l, r) }
func (s *Session) Neg(t solver.Term) solver.Term                   { return s.builder.Neg(t) }
func (s *Session) Eq(l, r solver.Term) solver.Term                 { return s.builder.Eq(l, r) }
func (s *Session) Ne(l, r solver.Term) solver.Term                 { return s.builder.Ne(l, r) }
func (s *Session) Lt(l, r solver.Term) solver.Term                 { return s.builder.Lt(l, r) }
func (s *Session) Le(l, r solver.Term) solver.Term                 { return s.builder.Le(l, r) }
func (s *Session) Gt(l, r solver.Term) solver.Term                 { return s.builder.Gt(l, r) }
func (s *Session) Ge(l, r solver.Term) solver.Term                 { return s.builder.Ge(l, r) }
func (s *Session) And(args ...solver.Term) solver.Term             { return s.builder.And(args...) }
func (s *Session) Or(args ...solver.Term) solver.Term              { return s.builder.Or(args...) }
func (s *Session) Not(t solver.Term) solver.Term                   { return s.builder.Not(t) }
func (s *Session) Implies(p, q solver.Term) solver.Term            { return s.builder.Implies(p, q) }
func (s *Session) IfThenElse(c, t, e solver.Term) solver.Term      { return s.builder.IfThenElse(c, t, e) }
func (s *Session) Select(a, i solver.Term) solver.Term             { return s.builder.Select(a, i) }
func (s *Session) Store(a, i, v solver.Term) solver.Term           { return s.builder.Store(a, i, v) }
func (s *Session) ToInt(t solver.Term) solver.Term                 { return s.builder.ToInt(t) }
func (s *Session) ToReal(t solver.Term) solver.Term                { return s.builder.ToReal(t) }
func (s *Session) Forall(vars []solver.Term, body solver.Term) solver.Term {
	return s.builder.Forall(vars, body)
}
func (s *Session) Exists(vars []solver.Term, body solver.Term) solver.Term {
	return s.builder.Exists(vars, body)
}
func (s *Session) Predicate(name string, argSorts []solver.Sort, args []solver.Term) solver.Term {
	return s.builder.Predicate(name, argSorts, args)
}

func (s *Session) Assert(t solver.Term) {
	s.builder.asserted = append(s.builder.asserted, t.(*node))
}

func (s *Session) Check(ctx context.Context) (solver.Verdict, error) {
	var sb strings.Builder
	declared := map[string]bool{}
	for _, n := range s.builder.asserted {
		for name, sort := range n.consts {
			if !declared[name] {
				declared[name] = true
				sb.WriteString(fmt.Sprintf("(declare-const %s %s)\n", name, sortToSMT(sort)))
			}
		}
	}
	for _, n := range s.builder.asserted {
		sb.WriteString("(assert ")
		sb.WriteString(n.text)
		sb.WriteString(")\n")
	}

	req := dynamic.NewMessage(msgDesc(s.client.fd, "AssertRequest"))
	req.SetFieldByName("session_id", s.sessionID)
	req.SetFieldByName("smtlib", sb.String())
	reply := dynamic.NewMessage(msgDesc(s.client.fd, "AssertReply"))
	if err := s.client.conn.Invoke(ctx, "/verifier.solver.v1.Solver/Assert", req, reply); err != nil {
		return solver.Unknown, fmt.Errorf("grpcclient: Assert: %w", err)
	}

	checkReq := dynamic.NewMessage(msgDesc(s.client.fd, "CheckRequest"))
	checkReq.SetFieldByName("session_id", s.sessionID)
	checkReply := dynamic.NewMessage(msgDesc(s.client.fd, "CheckReply"))
	if err := s.client.conn.Invoke(ctx, "/verifier.solver.v1.Solver/Check", checkReq, checkReply); err != nil {
		return solver.Unknown, fmt.Errorf("grpcclient: Check: %w", err)
	}
	v, _ := checkReply.TryGetFieldByName("verdict")
	switch v {
	case "sat":
		return solver.Sat, nil
	case "unsat":
		return solver.Unsat, nil
	default:
		return solver.Unknown, nil
	}
}

func (s *Session) Model() (solver.Model, error) {
	req := dynamic.NewMessage(msgDesc(s.client.fd, "ModelRequest"))
	req.SetFieldByName("session_id", s.sessionID)
	reply := dynamic.NewMessage(msgDesc(s.client.fd, "ModelReply"))
	if err := s.client.conn.Invoke(context.Background(), "/verifier.solver.v1.Solver/Model", req, reply); err != nil {
		return nil, fmt.Errorf("grpcclient: Model: %w", err)
	}
	entriesField, _ := reply.TryGetFieldByName("entries")
	raw, _ := entriesField.([]interface{})
	entries := make([]solver.ModelEntry, 0, len(raw))
	for _, r := range raw {
		em, ok := r.(*dynamic.Message)
		if !ok {
			continue
		}
		name, _ := em.TryGetFieldByName("name")
		value, _ := em.TryGetFieldByName("value")
		entries = append(entries, solver.ModelEntry{Name: fmt.Sprint(name), Value: fmt.Sprint(value)})
	}
	return modelResult{entries: entries}, nil
}

func (s *Session) Close() error {
	req := dynamic.NewMessage(msgDesc(s.client.fd, "CloseRequest"))
	req.SetFieldByName("session_id", s.sessionID)
	reply := dynamic.NewMessage(msgDesc(s.client.fd, "CloseReply"))
	return s.client.conn.Invoke(context.Background(), "/verifier.solver.v1.Solver/Close", req, reply)
}

type modelResult struct{ entries []solver.ModelEntry }

func (m modelResult) Entries() []solver.ModelEntry { return m.entries }

// HornSession additionally supports FuncInterp, the post-Sat predicate
// interpretation lookup used in Horn mode.
type HornSession struct {
	*Session
}

func (h *HornSession) FuncInterp(name string) (solver.FuncInterp, error) {
	req := dynamic.NewMessage(msgDesc(h.client.fd, "FuncInterpRequest"))
	req.SetFieldByName("session_id", h.sessionID)
	req.SetFieldByName("predicate_name", name)
	reply := dynamic.NewMessage(msgDesc(h.client.fd, "FuncInterpReply"))
	if err := h.client.conn.Invoke(context.Background(), "/verifier.solver.v1.Solver/FuncInterp", req, reply); err != nil {
		return solver.FuncInterp{}, fmt.Errorf("grpcclient: FuncInterp: %w", err)
	}

	entriesField, _ := reply.TryGetFieldByName("entries")
	raw, _ := entriesField.([]interface{})
	entries := make([]solver.FuncInterpEntry, 0, len(raw))
	for _, r := range raw {
		em, ok := r.(*dynamic.Message)
		if !ok {
			continue
		}
		inputsField, _ := em.TryGetFieldByName("inputs")
		inputsRaw, _ := inputsField.([]interface{})
		inputs := make([]string, len(inputsRaw))
		for i, v := range inputsRaw {
			inputs[i] = fmt.Sprint(v)
		}
		value, _ := em.TryGetFieldByName("value")
		entries = append(entries, solver.FuncInterpEntry{Inputs: inputs, Value: fmt.Sprint(value)})
	}

	hasElse, _ := reply.TryGetFieldByName("has_else")
	out := solver.FuncInterp{Name: name, Entries: entries}
	if b, _ := hasElse.(bool); b {
		ev, _ := reply.TryGetFieldByName("else_value")
		s := fmt.Sprint(ev)
		out.Else = &s
	}
	return out, nil
}
