// Package archive writes stored runs to portable, checksummed files.
//
// An archive is a plain-text JSON header line followed by the payload: the
// run and its events as JSON, optionally gzip-compressed. The header's
// checksum covers the payload bytes exactly as written.
package archive

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nvandessel/aisim/internal/store"
	"github.com/nvandessel/aisim/internal/world"
)

// FormatVersion is the current archive format version.
const FormatVersion = 1

// MaxPayloadSize is the maximum allowed size of a decoded payload (200MB).
const MaxPayloadSize = 200 * 1024 * 1024

// Header is the plain-text first line of an archive file.
type Header struct {
	Version    int       `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	Checksum   string    `json:"checksum"`
	RunID      string    `json:"run_id"`
	EventCount int       `json:"event_count"`
	Compressed bool      `json:"compressed"`
}

// Archive is the decoded payload.
type Archive struct {
	Run    store.Run     `json:"run"`
	Events []world.Event `json:"events"`
}

// Export writes run and its events to path. With compress set the payload
// is gzip-compressed.
func Export(run store.Run, events []world.Event, path string, compress bool) (*Header, error) {
	payload, err := json.Marshal(Archive{Run: run, Events: events})
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	if compress {
		var compressed bytes.Buffer
		gzw, err := gzip.NewWriterLevel(&compressed, gzip.DefaultCompression)
		if err != nil {
			return nil, fmt.Errorf("creating gzip writer: %w", err)
		}
		if _, err := gzw.Write(payload); err != nil {
			return nil, fmt.Errorf("compressing payload: %w", err)
		}
		if err := gzw.Close(); err != nil {
			return nil, fmt.Errorf("closing gzip writer: %w", err)
		}
		payload = compressed.Bytes()
	}

	header := Header{
		Version:    FormatVersion,
		CreatedAt:  time.Now().UTC(),
		Checksum:   checksum(payload),
		RunID:      run.ID,
		EventCount: len(events),
		Compressed: compress,
	}
	headerBytes, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("marshaling header: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	w.Write(headerBytes)
	w.WriteByte('\n')
	w.Write(payload)
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("writing archive: %w", err)
	}
	return &header, f.Close()
}

// Read reads an archive, verifies its checksum and decodes the payload.
func Read(path string) (*Header, *Archive, error) {
	header, payload, err := readVerified(path)
	if err != nil {
		return nil, nil, err
	}

	var r io.Reader = bytes.NewReader(payload)
	if header.Compressed {
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		defer gzr.Close()
		r = gzr
	}

	decoded, err := io.ReadAll(io.LimitReader(r, MaxPayloadSize+1))
	if err != nil {
		return nil, nil, fmt.Errorf("decoding payload: %w", err)
	}
	if int64(len(decoded)) > MaxPayloadSize {
		return nil, nil, fmt.Errorf("payload exceeds maximum size of %d bytes", MaxPayloadSize)
	}

	var a Archive
	if err := json.Unmarshal(decoded, &a); err != nil {
		return nil, nil, fmt.Errorf("parsing archive data: %w", err)
	}
	if len(a.Events) != header.EventCount {
		return nil, nil, fmt.Errorf("event count mismatch: header says %d, payload has %d", header.EventCount, len(a.Events))
	}
	return header, &a, nil
}

// ReadHeader reads only the header line.
func ReadHeader(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	header, err := readHeader(bufio.NewReader(f))
	if err != nil {
		return nil, err
	}
	return header, nil
}

// VerifyChecksum checks the integrity of an archive without decoding it.
func VerifyChecksum(path string) error {
	_, _, err := readVerified(path)
	return err
}

func readVerified(path string) (*Header, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	header, err := readHeader(reader)
	if err != nil {
		return nil, nil, err
	}

	payload, err := io.ReadAll(io.LimitReader(reader, MaxPayloadSize+1))
	if err != nil {
		return nil, nil, fmt.Errorf("reading payload: %w", err)
	}
	if actual := checksum(payload); actual != header.Checksum {
		return nil, nil, fmt.Errorf("checksum mismatch: expected %s, got %s", header.Checksum, actual)
	}
	return header, payload, nil
}

func readHeader(r *bufio.Reader) (*Header, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("reading header line: %w", err)
	}

	var header Header
	if err := json.Unmarshal(bytes.TrimSpace(line), &header); err != nil {
		return nil, fmt.Errorf("parsing header: %w", err)
	}
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported archive version %d", header.Version)
	}
	return &header, nil
}

func checksum(data []byte) string {
	hash := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(hash[:])
}
