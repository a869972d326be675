package main

// Release builds stamp these through -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
