// Package clipboard moves node payloads through the system clipboard using
// the platform's clipboard commands.
package clipboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/matsen/weft/internal/workflow"
)

// ErrClipboardUnavailable is returned when clipboard access is not available.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// ErrNotANode is returned when the clipboard holds something other than a
// copied node.
var ErrNotANode = errors.New("clipboard does not contain a weft node")

// payloadKind tags clipboard text written by CopyNode.
const payloadKind = "weft/node"

type payload struct {
	Kind string            `json:"kind"`
	Node workflow.NodeData `json:"node"`
}

// tool is a clipboard command pair.
type tool struct {
	copy  []string
	paste []string
}

func tools() []tool {
	switch runtime.GOOS {
	case "darwin":
		return []tool{{copy: []string{"pbcopy"}, paste: []string{"pbpaste"}}}
	case "linux":
		return []tool{
			{copy: []string{"wl-copy"}, paste: []string{"wl-paste", "--no-newline"}},
			{copy: []string{"xclip", "-selection", "clipboard"}, paste: []string{"xclip", "-selection", "clipboard", "-o"}},
			{copy: []string{"xsel", "--clipboard", "--input"}, paste: []string{"xsel", "--clipboard", "--output"}},
		}
	default:
		return nil
	}
}

func find() (tool, bool) {
	for _, t := range tools() {
		if _, err := exec.LookPath(t.copy[0]); err == nil {
			return t, true
		}
	}
	return tool{}, false
}

// IsAvailable checks if clipboard functionality is available on this system.
func IsAvailable() bool {
	_, ok := find()
	return ok
}

// Copy copies the given text to the system clipboard.
func Copy(text string) error {
	t, ok := find()
	if !ok {
		return ErrClipboardUnavailable
	}
	cmd := exec.Command(t.copy[0], t.copy[1:]...)
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

// Paste returns the current clipboard text.
func Paste() (string, error) {
	t, ok := find()
	if !ok {
		return "", ErrClipboardUnavailable
	}
	var out bytes.Buffer
	cmd := exec.Command(t.paste[0], t.paste[1:]...)
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("reading clipboard: %w", err)
	}
	return out.String(), nil
}

// EncodeNode renders node data as clipboard text.
func EncodeNode(data workflow.NodeData) (string, error) {
	b, err := json.Marshal(payload{Kind: payloadKind, Node: data.Clone()})
	if err != nil {
		return "", fmt.Errorf("encoding node: %w", err)
	}
	return string(b), nil
}

// DecodeNode parses clipboard text written by EncodeNode.
func DecodeNode(text string) (workflow.NodeData, error) {
	var p payload
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &p); err != nil || p.Kind != payloadKind {
		return workflow.NodeData{}, ErrNotANode
	}
	return p.Node, nil
}

// CopyNode places node data on the system clipboard.
func CopyNode(data workflow.NodeData) error {
	text, err := EncodeNode(data)
	if err != nil {
		return err
	}
	return Copy(text)
}

// PasteNode reads node data from the system clipboard.
func PasteNode() (workflow.NodeData, error) {
	text, err := Paste()
	if err != nil {
		return workflow.NodeData{}, err
	}
	return DecodeNode(text)
}
