package engine

// Renderer draws an entity tree. Translate calls nest between Save and
// Restore; DrawEntity draws e at the current origin.
type Renderer interface {
	Save()
	Restore()
	Translate(x, y float64)
	DrawEntity(e *Entity)
}
