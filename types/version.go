package types

// Version is the canonical shipbridge version, shared by all commands.
const Version = "0.3.0"
