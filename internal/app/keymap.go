package app

// Key binding constants used in handleKey.
const (
	KeyQuit           = "q"
	KeyQuitUpper      = "Q"
	KeyCtrlC          = "ctrl+c"
	KeySpace          = " "
	KeyTab            = "tab"
	KeyUp             = "up"
	KeyDown           = "down"
	KeyLeft           = "left"
	KeyRight          = "right"
	KeyJ              = "j"
	KeyK              = "k"
	KeyH              = "h"
	KeyL              = "l"
	KeyEnter          = "enter"
	KeyToggleCaptions = "c"
	KeyToggleSummary  = "s"
	KeyCollapseLess   = "-"
	KeyCollapseMore   = "+"
	KeyShareLink      = "y"
)
