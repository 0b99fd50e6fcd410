package margin

import (
	"maps"
	"slices"
	"sync"

	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/layout"
)

// Host is the scene a Section draws into. A Section calls it with its lock
// held, so implementations must not call back into the Section.
type Host interface {
	// AddSection creates the view of c. Returning false skips the comment.
	AddSection(c *comment.Comment) bool
	RemoveSection(id string)
	HasSection(id string) bool
	// PauseDrawing and ResumeDrawing bracket bulk changes.
	PauseDrawing()
	ResumeDrawing()
	ApplyLayout(res layout.Result)
	// FocusDocument hands keyboard focus back to the document.
	FocusDocument()
}

// MemoryHost is a Host that keeps its scene in memory. The replay command
// renders from it and tests assert against it.
type MemoryHost struct {
	mu       sync.Mutex
	sections map[string]*comment.Comment
	result   layout.Result
	paused   int
	layouts  int
	focus    int
}

// NewMemoryHost returns an empty scene.
func NewMemoryHost() *MemoryHost {
	return &MemoryHost{sections: make(map[string]*comment.Comment)}
}

func (h *MemoryHost) AddSection(c *comment.Comment) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sections[c.ID()] = c
	return true
}

func (h *MemoryHost) RemoveSection(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sections, id)
}

func (h *MemoryHost) HasSection(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.sections[id]
	return ok
}

func (h *MemoryHost) PauseDrawing() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paused++
}

func (h *MemoryHost) ResumeDrawing() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.paused > 0 {
		h.paused--
	}
}

func (h *MemoryHost) ApplyLayout(res layout.Result) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.result = res
	h.layouts++
}

func (h *MemoryHost) FocusDocument() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.focus++
}

// SectionIDs returns the ids of the drawn sections, sorted.
func (h *MemoryHost) SectionIDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Sorted(maps.Keys(h.sections))
}

// Result returns the last applied layout.
func (h *MemoryHost) Result() layout.Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result
}

// Layouts returns how many layouts were applied.
func (h *MemoryHost) Layouts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.layouts
}

// Focused returns how often focus went back to the document.
func (h *MemoryHost) Focused() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.focus
}

// Paused reports whether drawing is currently paused.
func (h *MemoryHost) Paused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paused > 0
}
