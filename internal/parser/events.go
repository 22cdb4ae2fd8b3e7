package parser

import "github.com/mjschmitt/sheetview/internal/model"

// Event is one item of the parse event stream. A full parse emits
// SheetDiscovered for every sheet, MacrosDetected at most once, ChunkReady as
// tiles complete, and finally exactly one of ParseComplete or ParseFailed.
type Event interface {
	isEvent()
}

// SheetDiscovered announces a worksheet found in the workbook part. The sheet
// dimensions are the declared bounds at discovery time and may still grow.
type SheetDiscovered struct {
	Sheet model.Sheet
}

// ChunkReady delivers one completed tile of cells. Cells are sorted by
// (row, col) and fall entirely inside the chunk's band rectangle.
type ChunkReady struct {
	SheetID int
	Key     model.ChunkKey
	Cells   []model.Cell
}

// MacrosDetected is a side-channel warning for macro-enabled containers.
// Parsing continues; macros are never executed.
type MacrosDetected struct {
	Part string
}

// ParseFailed terminates the stream with an error.
type ParseFailed struct {
	Err       error
	Retryable bool
}

// ParseComplete terminates a successful stream.
type ParseComplete struct{}

func (SheetDiscovered) isEvent() {}
func (ChunkReady) isEvent()      {}
func (MacrosDetected) isEvent()  {}
func (ParseFailed) isEvent()     {}
func (ParseComplete) isEvent()   {}

// Sink receives parse events. Returning an error stops the parse; the parser
// yields to the sink between chunks, which keeps cancellation cooperative.
type Sink func(Event) error
