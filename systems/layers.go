package systems

import "github.com/yohamta/donburi/ecs"

// Renderer layers, drawn bottom first after the entity tree.
const (
	LayerOverlay ecs.LayerID = iota
	LayerHUD
)
