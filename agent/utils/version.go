package utils

// Version is the current version of the agent. It's overwritten by the linker
// flags in the release builds.
var Version = "0.1.0-dev"
