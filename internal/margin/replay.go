package margin

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/geom"
	"github.com/colonyops/margin/internal/core/protocol"
)

// Apply feeds one protocol message to the section. Edit refusals are not
// errors: they are announced on the bus and the message is dropped.
func (s *Section) Apply(ctx context.Context, m protocol.Message) error {
	err := s.apply(ctx, m)
	if errors.Is(err, ErrEditInProgress) {
		s.log.Info().Err(err).Int("line", m.Line).Msg("local action refused")
		return nil
	}
	return err
}

func (s *Section) apply(ctx context.Context, m protocol.Message) error {
	switch m.Kind {
	case protocol.KindComment:
		return s.HandleComment(ctx, *m.Comment)
	case protocol.KindRedline:
		return s.HandleRedline(ctx, *m.Redline)
	case protocol.KindComments:
		return s.ImportComments(ctx, m.Comments)
	case protocol.KindRedlines:
		return s.ImportChanges(ctx, m.Redlines)
	case protocol.KindView:
		if s.opts.Views == nil {
			return nil
		}
		return s.opts.Views.Add(ctx, *m.View)
	case protocol.KindViewRemoved:
		if s.opts.Views != nil {
			s.opts.Views.Remove(m.View.ViewID)
		}
		return nil
	case protocol.KindParts:
		s.SetParts(m.Parts)
		return nil
	case protocol.KindLocal:
		return s.applyLocal(ctx, *m.Local)
	default:
		return fmt.Errorf("%w: %q", protocol.ErrUnknownMessage, m.Kind)
	}
}

func (s *Section) applyLocal(ctx context.Context, a protocol.LocalAction) error {
	switch a.Op {
	case protocol.OpInsert:
		anchor, ok := geom.ParseRectangle(a.Anchor)
		if !ok {
			return fmt.Errorf("insert: bad anchor %q", a.Anchor)
		}
		_, err := s.Insert(anchor, a.Part, a.Text)
		return err
	case protocol.OpSelect:
		return s.Select(a.ID)
	case protocol.OpUnselect:
		s.Unselect()
		return nil
	case protocol.OpEdit:
		return s.Edit(a.ID)
	case protocol.OpSave:
		return s.Save(ctx, a.ID, a.Text, a.HTML)
	case protocol.OpAutoSave:
		return s.AutoSave(ctx, a.ID, a.Text, a.HTML)
	case protocol.OpReply:
		return s.Reply(ctx, a.ID, a.Text, a.HTML)
	case protocol.OpAutoSaveReply:
		return s.AutoSaveReply(ctx, a.ID, a.Text, a.HTML)
	case protocol.OpRemove:
		return s.Remove(ctx, a.ID)
	case protocol.OpRemoveThread:
		return s.RemoveThread(ctx, a.ID)
	case protocol.OpResolve:
		return s.Resolve(ctx, a.ID)
	case protocol.OpResolveThread:
		return s.ResolveThread(ctx, a.ID)
	case protocol.OpPromote:
		return s.Promote(ctx, a.ID)
	case protocol.OpCancel:
		return s.Cancel(ctx, a.ID)
	case protocol.OpToggleBigger:
		return s.ToggleShowBigger(a.ID)
	case protocol.OpAccept:
		return s.Accept(ctx, a.ID)
	case protocol.OpReject:
		return s.Reject(ctx, a.ID)
	case protocol.OpRejectAll:
		return s.RejectAllTrackedCommentChanges(ctx)
	case protocol.OpPart:
		s.SetPart(a.Part)
		return nil
	case protocol.OpNextPart:
		s.NextPartWithComment()
		return nil
	case protocol.OpPreviousPart:
		s.PreviousPartWithComment()
		return nil
	case protocol.OpShowResolved:
		s.SetViewResolved(a.Show)
		return nil
	case protocol.OpResize:
		vp := s.Viewport()
		vp.AnchorSectionWidth = a.Width
		vp.FileWidth = a.FileWidth
		if vp.SectionLeft == 0 {
			vp.SectionLeft = a.Width
		}
		s.SetViewport(vp)
		return nil
	case protocol.OpScroll:
		s.ScrollTo(a.Top)
		return nil
	default:
		return fmt.Errorf("%w: local op %q", protocol.ErrUnknownMessage, a.Op)
	}
}

// Apply journals m as inbound traffic and feeds it to the section.
func (s *Session) Apply(ctx context.Context, m protocol.Message) error {
	if err := s.Recorder.RecordInbound(ctx, string(m.Kind), messageCommentID(m), inboundPayload(m)); err != nil {
		return err
	}
	return s.Section.Apply(ctx, m)
}

// ReplayOptions controls Replay.
type ReplayOptions struct {
	// KeepGoing logs failing messages and continues instead of stopping.
	KeepGoing bool
}

// ReplayReport summarizes a replay.
type ReplayReport struct {
	Messages int
	Failed   int
}

// Replay applies every message read from r and flushes the final layout.
func (s *Session) Replay(ctx context.Context, r *protocol.Reader, opts ReplayOptions) (ReplayReport, error) {
	var report ReplayReport
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		m, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if !opts.KeepGoing || errors.Is(err, protocol.ErrRead) {
				return report, err
			}
			report.Failed++
			s.log.Warn().Err(err).Msg("skipping undecodable message")
			continue
		}

		report.Messages++
		if err := s.Apply(ctx, m); err != nil {
			if !opts.KeepGoing {
				return report, fmt.Errorf("line %d: %w", m.Line, err)
			}
			report.Failed++
			s.log.Warn().Err(err).Int("line", m.Line).Msg("message failed")
		}
	}

	s.Update(true)
	return report, nil
}

func messageCommentID(m protocol.Message) string {
	switch {
	case m.Comment != nil:
		return m.Comment.ID.String()
	case m.Redline != nil:
		return redlineID(*m.Redline)
	case m.Local != nil:
		return m.Local.ID
	default:
		return ""
	}
}

func inboundPayload(m protocol.Message) any {
	switch m.Kind {
	case protocol.KindComment:
		return m.Comment
	case protocol.KindRedline:
		return m.Redline
	case protocol.KindComments:
		return countPayload(m.Comments)
	case protocol.KindRedlines:
		return countPayload(m.Redlines)
	case protocol.KindView, protocol.KindViewRemoved:
		return m.View
	case protocol.KindParts:
		return m.Parts
	default:
		return m.Local
	}
}

// countPayload keeps bulk imports out of the journal, only their size is
// recorded.
func countPayload(ps []comment.Payload) map[string]int {
	return map[string]int{"count": len(ps)}
}
