package thread

// Resolution is the resolved state of a whole thread.
type Resolution int

const (
	// Indeterminate means the state cannot be derived from the list.
	Indeterminate Resolution = iota
	Unresolved
	Resolved
)

func (r Resolution) String() string {
	switch r {
	case Resolved:
		return "resolved"
	case Unresolved:
		return "unresolved"
	default:
		return "indeterminate"
	}
}

// Resolution reports whether the thread under id's sub root is resolved. A
// thread is resolved when every comment from the sub root to the end of the
// thread is resolved. A lone root reports its own flag.
func (l *List) Resolution(id string) Resolution {
	sub := l.SubRootIndexOf(id)
	if sub < 0 {
		return Indeterminate
	}

	head := l.items[sub]
	last := l.LastChildIndexOf(id)
	if last == sub {
		if head.IsResolved() {
			return Resolved
		}
		return Unresolved
	}

	for i := sub; i <= last; i++ {
		if !l.items[i].IsResolved() {
			return Unresolved
		}
	}
	return Resolved
}
