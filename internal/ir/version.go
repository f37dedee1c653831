package ir

// Version constants for the command encoding and engine.
const (
	// CodecVersion is the command wire-format version.
	CodecVersion = "1"

	// EngineVersion is the stepviz engine version.
	EngineVersion = "0.1.0"
)
