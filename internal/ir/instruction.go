package ir

// Instruction is one node of a Program.
//
// The set of implementations is closed: the unexported marker keeps other
// packages from adding variants, and Accept forces every Visitor to handle
// each variant explicitly.
type Instruction interface {
	// Accept dispatches to the Visitor method for the concrete variant.
	Accept(v Visitor) error

	// Op returns the stable operation name used in JSON and listings.
	Op() string

	instruction()
}

// Visitor is implemented by every consumer of the IR (interpreter, code
// generators, statistics). Adding a variant to the IR adds a method here,
// which breaks the build of each consumer until it handles the new case.
type Visitor interface {
	VisitMovePointer(MovePointer) error
	VisitAddCell(AddCell) error
	VisitOutput(Output) error
	VisitInput(Input) error
	VisitLoop(Loop) error
}

// Operation names.
const (
	OpMove   = "move"
	OpAdd    = "add"
	OpOutput = "output"
	OpInput  = "input"
	OpLoop   = "loop"
)

// MovePointer moves the data pointer by Delta cells.
// The parser emits ±1; coalescing may produce larger magnitudes.
type MovePointer struct {
	Delta int `json:"delta"`
}

// AddCell adds Delta to the current cell, modulo 256.
type AddCell struct {
	Delta int `json:"delta"`
}

// Output writes the current cell as one byte.
type Output struct{}

// Input reads one byte into the current cell.
type Input struct{}

// Loop runs Body while the current cell is nonzero. The cell is tested
// before every iteration, including the first.
type Loop struct {
	Body Program `json:"body"`
}

func (i MovePointer) Accept(v Visitor) error { return v.VisitMovePointer(i) }
func (i AddCell) Accept(v Visitor) error     { return v.VisitAddCell(i) }
func (i Output) Accept(v Visitor) error      { return v.VisitOutput(i) }
func (i Input) Accept(v Visitor) error       { return v.VisitInput(i) }
func (i Loop) Accept(v Visitor) error        { return v.VisitLoop(i) }

func (MovePointer) Op() string { return OpMove }
func (AddCell) Op() string     { return OpAdd }
func (Output) Op() string      { return OpOutput }
func (Input) Op() string       { return OpInput }
func (Loop) Op() string        { return OpLoop }

func (MovePointer) instruction() {}
func (AddCell) instruction()     {}
func (Output) instruction()      {}
func (Input) instruction()       {}
func (Loop) instruction()        {}
