package concord

// Version is the library version, also reported by the CLI and the MCP
// server.
const Version = "0.1.0"
