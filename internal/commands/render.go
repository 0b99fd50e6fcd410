package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss/tree"

	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/layout"
	"github.com/colonyops/margin/internal/core/styles"
	"github.com/colonyops/margin/pkg/iojson"
)

// commentView is the JSON line written per comment by --json.
type commentView struct {
	Document string `json:"document"`
	ID       string `json:"id"`
	Parent   string `json:"parent"`
	Author   string `json:"author"`
	Text     string `json:"text"`
	Resolved bool   `json:"resolved"`
	Change   bool   `json:"trackedChange,omitempty"`
	Hidden   bool   `json:"hidden,omitempty"`
	Editing  bool   `json:"editing,omitempty"`
	Part     int    `json:"part"`
	X        *int   `json:"x,omitempty"`
	Y        *int   `json:"y,omitempty"`
}

func newCommentView(document string, c *comment.Comment, res layout.Result) commentView {
	v := commentView{
		Document: document,
		ID:       c.ID(),
		Parent:   c.Parent,
		Author:   c.Data.Author,
		Text:     c.Text(),
		Resolved: c.IsResolved(),
		Change:   c.IsTrackedChange(),
		Hidden:   c.Hidden,
		Editing:  c.Editing,
		Part:     c.Data.Part,
	}
	if pl, ok := res.Placement(c.ID()); ok {
		v.X, v.Y = &pl.X, &pl.Y
	}
	return v
}

func writeJSON(w io.Writer, document string, comments []*comment.Comment, res layout.Result) error {
	for _, c := range comments {
		if err := iojson.WriteLine(w, newCommentView(document, c, res)); err != nil {
			return err
		}
	}
	return nil
}

// renderThreads draws the comments as a tree under a document root. The
// comments must be in thread order so parents precede their replies.
func renderThreads(document string, comments []*comment.Comment, res layout.Result) string {
	root := tree.Root(styles.HeaderStyle.Render(document)).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(styles.EnumeratorStyle)

	nodes := make(map[string]*tree.Tree, len(comments))
	for _, c := range comments {
		node := tree.Root(commentLabel(c, res)).
			Enumerator(tree.RoundedEnumerator).
			EnumeratorStyle(styles.EnumeratorStyle)
		nodes[c.ID()] = node

		if parent, ok := nodes[c.Parent]; ok && !c.IsRoot() {
			parent.Child(node)
			continue
		}
		root.Child(node)
	}

	return root.String()
}

func commentLabel(c *comment.Comment, res layout.Result) string {
	var b strings.Builder

	switch {
	case c.IsTrackedChange():
		b.WriteString(styles.ChangeStyle.Render(styles.IconChange) + " ")
	case c.IsResolved():
		b.WriteString(styles.ResolvedStyle.Render(styles.IconResolved) + " ")
	}

	b.WriteString(styles.AuthorStyle.Render(c.Data.Author))
	b.WriteString(" ")

	text := firstLine(c.Text())
	switch {
	case c.Editing:
		b.WriteString(styles.EditingStyle.Render(styles.IconEditing + " " + text))
	case c.IsResolved():
		b.WriteString(styles.ResolvedStyle.Render(text))
	default:
		b.WriteString(styles.CommentStyle.Render(text))
	}

	meta := []string{"#" + c.ID()}
	if pl, ok := res.Placement(c.ID()); ok {
		meta = append(meta, fmt.Sprintf("%d,%d", pl.X, pl.Y))
	}
	if c.Hidden {
		meta = append(meta, styles.IconHidden)
	}
	b.WriteString(" ")
	b.WriteString(styles.MutedStyle.Render(strings.Join(meta, " ")))

	return b.String()
}

const maxLabelWidth = 60

func firstLine(s string) string {
	line, _, cut := strings.Cut(s, "\n")
	if runes := []rune(line); len(runes) > maxLabelWidth {
		return string(runes[:maxLabelWidth-1]) + "…"
	}
	if cut {
		return line + " …"
	}
	return line
}
