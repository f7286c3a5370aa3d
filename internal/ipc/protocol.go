// Package ipc carries per-step state digests between processes so that two
// peers running the same input script can detect a desync without sharing
// memory. Uses Unix domain sockets on Linux/macOS and TCP localhost on Windows.
package ipc

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const (
	// DefaultSocketPath is the Unix socket path for IPC
	DefaultSocketPath = "/tmp/ring-arena.sock"

	// DefaultTCPPort is used instead of the socket on Windows
	DefaultTCPPort = "127.0.0.1:7071"

	// Message types
	MsgTypeDigest byte = 0x01
	MsgTypePing   byte = 0x02
	MsgTypePong   byte = 0x03
	MsgTypeHello  byte = 0x04

	// Protocol version for compatibility checking
	ProtocolVersion uint16 = 2

	// Connection settings
	MaxMessageSize = 64 * 1024
	WriteTimeout   = 50 * time.Millisecond
	ReadTimeout    = 100 * time.Millisecond
	ReconnectDelay = 500 * time.Millisecond
)

// ErrVersionMismatch is returned when a peer speaks another protocol version
var ErrVersionMismatch = errors.New("ipc: protocol version mismatch")

// Digest is the state summary a peer publishes after every step
type Digest struct {
	Step        uint64
	StepSeed    uint64
	Hash        uint64
	Targets     int
	Projectiles int
}

// Hello describes the session a publisher is running. It is sent once to
// every new subscriber before any digest.
type Hello struct {
	WorldSeed      uint64
	StepsPerSecond int
	Scenario       string
}

// Header is the message header for framing
type Header struct {
	Version  uint16
	Type     byte
	Reserved byte
	Length   uint32
}

const HeaderSize = 8 // 2 + 1 + 1 + 4

// WriteMessage writes a framed message to the connection
func WriteMessage(w io.Writer, msgType byte, data any) error {
	buf := getBuffer()
	defer putBuffer(buf)

	if data != nil {
		if err := gob.NewEncoder(buf).Encode(data); err != nil {
			return fmt.Errorf("gob encode: %w", err)
		}
	}
	if buf.Len() > MaxMessageSize {
		return fmt.Errorf("message too large: %d > %d", buf.Len(), MaxMessageSize)
	}

	var header [HeaderSize]byte
	binary.LittleEndian.PutUint16(header[0:2], ProtocolVersion)
	header[2] = msgType
	binary.LittleEndian.PutUint32(header[4:8], uint32(buf.Len()))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if buf.Len() > 0 {
		if _, err := w.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("write body: %w", err)
		}
	}
	return nil
}

// ReadMessage reads a framed message from the connection
func ReadMessage(r io.Reader) (byte, []byte, error) {
	var headerBuf [HeaderSize]byte
	if _, err := io.ReadFull(r, headerBuf[:]); err != nil {
		return 0, nil, fmt.Errorf("read header: %w", err)
	}

	header := Header{
		Version: binary.LittleEndian.Uint16(headerBuf[0:2]),
		Type:    headerBuf[2],
		Length:  binary.LittleEndian.Uint32(headerBuf[4:8]),
	}

	if header.Version != ProtocolVersion {
		return 0, nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, header.Version, ProtocolVersion)
	}
	if header.Length > MaxMessageSize {
		return 0, nil, fmt.Errorf("message too large: %d > %d", header.Length, MaxMessageSize)
	}

	var body []byte
	if header.Length > 0 {
		body = make([]byte, header.Length)
		if _, err := io.ReadFull(r, body); err != nil {
			return 0, nil, fmt.Errorf("read body: %w", err)
		}
	}
	return header.Type, body, nil
}

// DecodeDigest decodes a digest from gob bytes
func DecodeDigest(data []byte) (Digest, error) {
	var d Digest
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&d); err != nil {
		return Digest{}, fmt.Errorf("gob decode digest: %w", err)
	}
	return d, nil
}

// DecodeHello decodes a session hello from gob bytes
func DecodeHello(data []byte) (Hello, error) {
	var h Hello
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&h); err != nil {
		return Hello{}, fmt.Errorf("gob decode hello: %w", err)
	}
	return h, nil
}

// CleanupSocket removes the socket file if it exists
func CleanupSocket(path string) error {
	if _, err := os.Stat(path); err == nil {
		return os.Remove(path)
	}
	return nil
}

// Buffer pool for encoding
var bufferPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

func getBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putBuffer(buf *bytes.Buffer) {
	bufferPool.Put(buf)
}
