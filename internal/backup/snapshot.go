// Package backup snapshots an app's long-term memory to compressed files
// and restores it from them.
//
// A snapshot file is one JSON header line followed by a gzip-compressed
// JSON payload. The header carries a SHA-256 checksum of the compressed
// bytes so a damaged file is rejected before it is decompressed.
package backup

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nvandessel/farg/internal/ltm"
)

// FormatVersion is the snapshot format written by this package.
const FormatVersion = 1

// MaxPayloadSize bounds the decompressed payload of a snapshot.
const MaxPayloadSize = 64 << 20

// ErrChecksum is returned when a snapshot's payload does not match its header.
var ErrChecksum = errors.New("backup: checksum mismatch")

// Header is the first line of a snapshot file.
type Header struct {
	Version   int       `json:"version"`
	App       string    `json:"app"`
	CreatedAt time.Time `json:"created_at"`
	Checksum  string    `json:"checksum"`
	Records   int       `json:"records"`
}

// Snapshot is the full content of a snapshot file.
type Snapshot struct {
	App       string       `json:"app"`
	CreatedAt time.Time    `json:"created_at"`
	Records   []ltm.Record `json:"records"`
}

// Write stores snap at path, replacing any existing file.
func Write(path string, snap *Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(payload); err != nil {
		return fmt.Errorf("compressing snapshot: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("compressing snapshot: %w", err)
	}

	header := Header{
		Version:   FormatVersion,
		App:       snap.App,
		CreatedAt: snap.CreatedAt,
		Checksum:  checksum(compressed.Bytes()),
		Records:   len(snap.Records),
	}
	headerLine, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshaling header: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	w.Write(headerLine)
	w.WriteByte('\n')
	w.Write(compressed.Bytes())
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return f.Close()
}

// Read loads the snapshot at path after verifying its checksum.
func Read(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	compressed, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}
	if got := checksum(compressed); got != header.Checksum {
		return nil, fmt.Errorf("%w: header has %s, payload is %s", ErrChecksum, header.Checksum, got)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("opening payload: %w", err)
	}
	defer gzr.Close()

	payload, err := io.ReadAll(io.LimitReader(gzr, MaxPayloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("decompressing payload: %w", err)
	}
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("snapshot payload exceeds %d bytes", MaxPayloadSize)
	}

	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	return &snap, nil
}

// ReadHeader returns the header of the snapshot at path without reading
// the payload.
func ReadHeader(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()
	return readHeader(bufio.NewReader(f))
}

func readHeader(r *bufio.Reader) (*Header, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	var header Header
	if err := json.Unmarshal(bytes.TrimSpace(line), &header); err != nil {
		return nil, fmt.Errorf("parsing header: %w", err)
	}
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", header.Version)
	}
	return &header, nil
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}
