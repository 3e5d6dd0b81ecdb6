package ir

// Version constants for the IR schema and the toolchain.
const (
	// IRVersion is the IR JSON schema version.
	IRVersion = "1"

	// EngineVersion is the bfc toolchain version.
	EngineVersion = "0.1.0"
)
