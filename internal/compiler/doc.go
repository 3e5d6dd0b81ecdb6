// Package compiler turns raw source bytes into an ir.Program.
//
// Every byte is classified directly: the eight operators > < + - . , [ ]
// build instructions and everything else is commentary. There is no token
// stream and no character is ever rejected.
//
// Loops are built with an explicit stack of in-progress frames: '[' pushes a
// frame, ']' pops it and appends a Loop to the parent. This gives the same
// tree as a recursive descent parser without tying nesting depth to the Go
// stack; depth is bounded by Context.MaxDepth instead.
//
// Bracket anomalies are handled like this:
//   - an unmatched '[' becomes a loop running to end of input
//   - an unmatched ']' at top level ends the program; the rest is skipped
//
// Both are recorded as Diagnostics. Context.Brackets decides whether they are
// silent (BracketsLenient), logged (BracketsWarn) or fatal (BracketsStrict).
package compiler
