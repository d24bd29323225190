// Package testdata holds landmark recordings shared by tests.
package testdata

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"io/fs"
)

// Recordings in the replay format, one hand per line.
const (
	// PressRelease is a right hand: open, fist held two frames, open, no
	// hand, fist with the thumb out, open, then a 20 point hand.
	PressRelease = "press_release.jsonl"

	// LeftIndex is a left hand curling and lifting its index finger.
	LeftIndex = "left_index.jsonl"
)

//go:embed recordings/*.jsonl
var recordingsFS embed.FS

// Recording returns the contents of a recording by name.
func Recording(name string) ([]byte, error) {
	data, err := recordingsFS.ReadFile("recordings/" + name)
	if err != nil {
		return nil, fmt.Errorf("load recording %s: %w", name, err)
	}
	return data, nil
}

// OpenRecording returns a reader over a recording.
func OpenRecording(name string) (io.Reader, error) {
	data, err := Recording(name)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// Recordings lists the embedded recording names.
func Recordings() ([]string, error) {
	entries, err := fs.ReadDir(recordingsFS, "recordings")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
