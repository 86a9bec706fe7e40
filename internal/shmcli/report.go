package shmcli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/natefinch/atomic"
)

// Report is the machine-readable result of a shmctl command, written with
// --write-report for callers that script against shmctl instead of parsing
// its human-readable stdout.
type Report struct {
	Command          string `json:"command"`
	Path             string `json:"path,omitempty"`
	Identifier       uint64 `json:"identifier,omitempty"`
	AllocatedBytes   uint64 `json:"allocated_bytes,omitempty"` //nolint:tagliatelle
	UsableBytes      uint64 `json:"usable_bytes,omitempty"`    //nolint:tagliatelle
	Offset           uint64 `json:"offset,omitempty"`
	Length           uint64 `json:"length,omitempty"`
	InTypedMemory    bool   `json:"in_typed_memory,omitempty"` //nolint:tagliatelle
}

// WriteReport marshals r as JSON and writes it to path durably: either the
// full write lands, or the existing file is left untouched, never a
// truncated half-write.
func WriteReport(path string, r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("shmctl: marshal report: %w", err)
	}

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("shmctl: write report %q: %w", path, err)
	}

	return nil
}
