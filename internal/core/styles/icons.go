package styles

var (
	IconSuccess  = "✓"
	IconInfo     = "•"
	IconWarning  = "!"
	IconError    = "✗"
	IconResolved = "✓"
	IconEditing  = "✎"
	IconChange   = "±"
	IconHidden   = "◌"
)
