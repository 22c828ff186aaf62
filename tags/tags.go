package tags

import "github.com/yohamta/donburi"

var (
	Touchable = donburi.NewTag().SetName("Touchable")
	Local     = donburi.NewTag().SetName("Local")
	Board     = donburi.NewTag().SetName("Board")
	Cell      = donburi.NewTag().SetName("Cell")
	Piece     = donburi.NewTag().SetName("Piece")
	Button    = donburi.NewTag().SetName("Button")
)

// Resolv tags for hit testing
const (
	ResolvTouchable = "touchable"
)
