// Package session holds the per-instance rendering state: the command
// queue that feeds it, the static canvas, the active effect and the frame
// clock.
package session

import "fmt"

// Command is a request to change session state. Commands are values;
// they are never modified after being sent.
type Command interface {
	command()
	String() string
}

// ReplaceCanvas replaces the static canvas with parsed ANSI text.
type ReplaceCanvas struct {
	Text string
}

// CompileEffect compiles Source and makes it the active effect.
type CompileEffect struct {
	Source string
}

// RestartEffect recompiles the last successfully compiled source.
type RestartEffect struct{}

// Resize replaces the canvas with an empty grid of the given size.
type Resize struct {
	Width  int
	Height int
}

// Tick marks a frame. It carries no state change.
type Tick struct{}

func (ReplaceCanvas) command() {}
func (CompileEffect) command() {}
func (RestartEffect) command() {}
func (Resize) command()        {}
func (Tick) command()          {}

func (c ReplaceCanvas) String() string { return fmt.Sprintf("ReplaceCanvas(%d bytes)", len(c.Text)) }
func (c CompileEffect) String() string { return fmt.Sprintf("CompileEffect(%d bytes)", len(c.Source)) }
func (RestartEffect) String() string   { return "RestartEffect" }
func (c Resize) String() string        { return fmt.Sprintf("Resize(%dx%d)", c.Width, c.Height) }
func (Tick) String() string            { return "Tick" }
