// Package config provides configuration loading for the kbchat CLI.
//
// Configuration comes from three layers, later layers winning:
//   - Built-in defaults
//   - An optional TOML file
//   - KBCHAT_* environment variables
//
// Validation happens once at load time so misconfiguration surfaces before
// the chat loop starts rather than deep in a request path.
package config
