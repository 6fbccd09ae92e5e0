package interaction

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/time/rate"
)

// maxEventLine bounds a single line of a replay script.
const maxEventLine = 64 * 1024

// ReadEvents parses a JSONL replay script. Blank lines and lines starting
// with '#' are skipped.
func ReadEvents(r io.Reader) ([]Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxEventLine)

	var events []Event
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}
	return events, nil
}

// Replay dispatches events in order, waiting on limiter before each one
// when it is non-nil. It returns the number of events dispatched.
func (c *Controller) Replay(ctx context.Context, events []Event, resolve Resolver, limiter *rate.Limiter) (int, error) {
	for i, ev := range events {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return i, fmt.Errorf("rate limiter: %w", err)
			}
		} else if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := c.Dispatch(ev, resolve); err != nil {
			return i, fmt.Errorf("event %d (%s): %w", i+1, ev.Type, err)
		}
	}
	return len(events), nil
}
