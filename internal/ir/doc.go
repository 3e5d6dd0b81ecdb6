// Package ir provides the program representation shared by the compiler,
// the engine and the lowering backends.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Instruction is a closed set: MovePointer, AddCell, Output, Input, Loop
//   - Every consumer dispatches through Visitor, one method per variant
//   - A Program is never mutated after the parser returns it
//   - All JSON tags use snake_case
package ir
