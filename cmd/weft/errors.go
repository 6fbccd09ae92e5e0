package main

import (
	"errors"

	"github.com/matsen/weft/internal/canvas"
	"github.com/matsen/weft/internal/catalog"
	"github.com/matsen/weft/internal/connect"
)

// exitCodeFor maps an edit error to an exit code.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, canvas.ErrNodeNotFound),
		errors.Is(err, canvas.ErrEdgeNotFound),
		errors.Is(err, canvas.ErrNoParameter),
		errors.Is(err, connect.ErrUnknownPort),
		errors.Is(err, catalog.ErrUnknownType):
		return ExitNotFound
	case errors.Is(err, connect.ErrSamePortKind),
		errors.Is(err, connect.ErrSameNode),
		errors.Is(err, connect.ErrDuplicateEdge),
		errors.Is(err, connect.ErrIncompatible),
		errors.Is(err, connect.ErrNoSource):
		return ExitRejected
	default:
		return ExitError
	}
}

// mustEdit exits with a mapped code when err is non-nil.
func mustEdit(err error) {
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}
}
