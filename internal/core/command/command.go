// Package command models the outbound commands the margin sends to the
// document server and the transport that carries them.
package command

import (
	"context"
	"encoding/json"
	"maps"
	"strconv"
	"sync"
)

// Arg is one typed argument in a command's argument bag.
type Arg struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// String returns a string argument.
func String(v string) Arg { return Arg{Type: "string", Value: v} }

// Long returns a long argument.
func Long(v int64) Arg { return Arg{Type: "long", Value: v} }

// UnsignedShort returns an unsigned short argument. The server accepts the
// value in its string form.
func UnsignedShort(v string) Arg { return Arg{Type: "unsigned short", Value: v} }

// Bool returns a boolean argument.
func Bool(v bool) Arg { return Arg{Type: "boolean", Value: v} }

// Args is the {FieldName: {type, value}} bag sent with a command.
type Args map[string]Arg

// Command is one outbound request.
type Command struct {
	Name string `json:"name"`
	Args Args   `json:"args,omitempty"`
	// Query marks a read request (for example asking for the full comment
	// list) rather than a mutating command.
	Query bool `json:"query,omitempty"`
}

// New returns a command with an empty argument bag.
func New(name string) Command {
	return Command{Name: name, Args: Args{}}
}

// NewQuery returns a read request.
func NewQuery(name string) Command {
	return Command{Name: name, Query: true}
}

// With returns a copy of c with field set to a.
func (c Command) With(field string, a Arg) Command {
	args := make(Args, len(c.Args)+1)
	maps.Copy(args, c.Args)
	args[field] = a
	c.Args = args
	return c
}

// Arg returns the argument named field.
func (c Command) Arg(field string) (Arg, bool) {
	a, ok := c.Args[field]
	return a, ok
}

// UNO returns the dispatch name the server expects.
func (c Command) UNO() string { return ".uno:" + c.Name }

// Wire renders the command as the text line sent over the socket.
func (c Command) Wire() (string, error) {
	if c.Query {
		return "commandvalues command=" + c.UNO(), nil
	}
	if len(c.Args) == 0 {
		return "uno " + c.UNO(), nil
	}
	b, err := json.Marshal(c.Args)
	if err != nil {
		return "", err
	}
	return "uno " + c.UNO() + " " + string(b), nil
}

func (c Command) String() string {
	s := c.Name
	if len(c.Args) > 0 {
		s += "(" + strconv.Itoa(len(c.Args)) + " args)"
	}
	return s
}

// Transport delivers commands to the server. Sends are fire and forget: a
// nil error only means the command left this process.
type Transport interface {
	Send(ctx context.Context, cmd Command) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, cmd Command) error

// Send implements Transport.
func (f TransportFunc) Send(ctx context.Context, cmd Command) error { return f(ctx, cmd) }

// Recorder is a Transport that keeps every command it is given, optionally
// forwarding to another transport.
type Recorder struct {
	mu   sync.Mutex
	sent []Command
	next Transport
}

// NewRecorder returns a recorder that forwards to next when it is non nil.
func NewRecorder(next Transport) *Recorder {
	return &Recorder{next: next}
}

// Send implements Transport.
func (r *Recorder) Send(ctx context.Context, cmd Command) error {
	r.mu.Lock()
	r.sent = append(r.sent, cmd)
	r.mu.Unlock()

	if r.next != nil {
		return r.next.Send(ctx, cmd)
	}
	return nil
}

// Sent returns a copy of the recorded commands.
func (r *Recorder) Sent() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.sent))
	copy(out, r.sent)
	return out
}

// Last returns the most recent command.
func (r *Recorder) Last() (Command, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return Command{}, false
	}
	return r.sent[len(r.sent)-1], true
}

// Reset forgets recorded commands.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
