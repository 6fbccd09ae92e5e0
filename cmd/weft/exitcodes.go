package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (no repository, bad config or catalog)
	ExitDataError   = 3 // Data error (malformed workflow, failed validation)
	ExitNotFound    = 4 // Node, edge, port, or history entry not found
	ExitRejected    = 5 // Edit refused by connection policy
)
