// Package protocol decodes the messages that drive a margin: comment and
// tracked change acknowledgments from the server, full imports, view
// lifecycle notices and scripted local actions.
//
// Messages are JSON objects, one per line. Exactly one top level key
// selects the kind:
//
//	{"comment": {"action": "Add", "id": "1", ...}}
//	{"redline": {"action": "Remove", "index": "3", ...}}
//	{"comments": [...]}
//	{"redlines": [...]}
//	{"view": {"viewId": 1, "username": "ann", "color": 4500456}}
//	{"viewRemoved": {"viewId": 1}}
//	{"parts": [{"hash": "h1", "part": 0, "yOffset": 0}]}
//	{"local": {"op": "reply", "id": "1", "text": "ok"}}
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/colonyops/margin/internal/core/comment"
)

// ErrUnknownMessage is returned for a message with no recognised kind.
var ErrUnknownMessage = errors.New("unknown message")

// Kind is the message kind.
type Kind string

const (
	KindComment     Kind = "comment"
	KindRedline     Kind = "redline"
	KindComments    Kind = "comments"
	KindRedlines    Kind = "redlines"
	KindView        Kind = "view"
	KindViewRemoved Kind = "viewRemoved"
	KindParts       Kind = "parts"
	KindLocal       Kind = "local"
)

// View announces a participant of the editing session.
type View struct {
	ViewID    int       `json:"viewId"`
	UserName  string    `json:"username"`
	Color     int       `json:"color"`
	ExtraInfo ExtraInfo `json:"userextrainfo"`
}

// ExtraInfo carries optional per user data.
type ExtraInfo struct {
	Avatar string `json:"avatar,omitempty"`
}

// Part describes one part of a file based view: its hash, index and the
// vertical twips offset at which it starts.
type Part struct {
	Hash    string `json:"hash"`
	Part    int    `json:"part"`
	YOffset int    `json:"yOffset"`
}

// Message is one decoded line.
type Message struct {
	Kind Kind
	// Line is the 1 based line the message was read from, 0 when decoded
	// directly.
	Line int

	Comment  *comment.Payload
	Redline  *comment.Payload
	Comments []comment.Payload
	Redlines []comment.Payload
	View     *View
	Parts    []Part
	Local    *LocalAction
}

// Action returns the action of a comment or redline message.
func (m Message) Action() comment.Action {
	switch {
	case m.Comment != nil:
		return m.Comment.Action
	case m.Redline != nil:
		return m.Redline.Action
	default:
		return ""
	}
}

type envelope struct {
	Comment     *comment.Payload  `json:"comment,omitempty"`
	Redline     *comment.Payload  `json:"redline,omitempty"`
	Comments    []comment.Payload `json:"comments,omitempty"`
	Redlines    []comment.Payload `json:"redlines,omitempty"`
	View        *View             `json:"view,omitempty"`
	ViewRemoved *View             `json:"viewRemoved,omitempty"`
	Parts       []Part            `json:"parts,omitempty"`
	Local       *LocalAction      `json:"local,omitempty"`
}

// Decode parses one message.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}

	switch {
	case env.Comment != nil:
		if !env.Comment.Action.Valid() {
			return Message{}, fmt.Errorf("%w: comment action %q", ErrUnknownMessage, env.Comment.Action)
		}
		return Message{Kind: KindComment, Comment: env.Comment}, nil
	case env.Redline != nil:
		if !env.Redline.Action.Valid() {
			return Message{}, fmt.Errorf("%w: redline action %q", ErrUnknownMessage, env.Redline.Action)
		}
		return Message{Kind: KindRedline, Redline: env.Redline}, nil
	case env.Comments != nil:
		return Message{Kind: KindComments, Comments: env.Comments}, nil
	case env.Redlines != nil:
		return Message{Kind: KindRedlines, Redlines: env.Redlines}, nil
	case env.View != nil:
		return Message{Kind: KindView, View: env.View}, nil
	case env.ViewRemoved != nil:
		return Message{Kind: KindViewRemoved, View: env.ViewRemoved}, nil
	case env.Parts != nil:
		return Message{Kind: KindParts, Parts: env.Parts}, nil
	case env.Local != nil:
		if !env.Local.Op.Valid() {
			return Message{}, fmt.Errorf("%w: local op %q", ErrUnknownMessage, env.Local.Op)
		}
		return Message{Kind: KindLocal, Local: env.Local}, nil
	default:
		return Message{}, ErrUnknownMessage
	}
}

// EncodeComment wraps a payload as a comment message.
func EncodeComment(p comment.Payload) ([]byte, error) {
	return json.Marshal(envelope{Comment: &p})
}

// EncodeRedline wraps a payload as a redline message.
func EncodeRedline(p comment.Payload) ([]byte, error) {
	return json.Marshal(envelope{Redline: &p})
}

// EncodeLocal wraps a local action.
func EncodeLocal(a LocalAction) ([]byte, error) {
	return json.Marshal(envelope{Local: &a})
}
