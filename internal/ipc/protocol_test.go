package ipc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestWriteReadDigest(t *testing.T) {
	var buf bytes.Buffer
	want := Digest{Step: 42, StepSeed: 7, Hash: 0xdeadbeef, Targets: 3, Projectiles: 9}
	if err := WriteMessage(&buf, MsgTypeDigest, want); err != nil {
		t.Fatal(err)
	}

	msgType, body, err := ReadMessage(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if msgType != MsgTypeDigest {
		t.Errorf("Expected digest type, got %#x", msgType)
	}
	got, err := DecodeDigest(body)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestEmptyBody(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, MsgTypePing, nil); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != HeaderSize {
		t.Errorf("Expected header only, got %d bytes", buf.Len())
	}
	msgType, body, err := ReadMessage(&buf)
	if err != nil || msgType != MsgTypePing || body != nil {
		t.Errorf("unexpected ping read: %#x %v %v", msgType, body, err)
	}
}

func TestReadRejectsBadHeaders(t *testing.T) {
	tests := []struct {
		name    string
		version uint16
		length  uint32
		wantErr error
	}{
		{"old version", 1, 0, ErrVersionMismatch},
		{"oversize", ProtocolVersion, MaxMessageSize + 1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := make([]byte, HeaderSize)
			binary.LittleEndian.PutUint16(header[0:2], tt.version)
			header[2] = MsgTypeDigest
			binary.LittleEndian.PutUint32(header[4:8], tt.length)

			_, _, err := ReadMessage(bytes.NewReader(header))
			if err == nil {
				t.Fatal("Expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestReadTruncatedBody(t *testing.T) {
	var buf bytes.Buffer
	WriteMessage(&buf, MsgTypeHello, Hello{WorldSeed: 1, StepsPerSecond: 30, Scenario: "default"})
	truncated := buf.Bytes()[:buf.Len()-1]
	if _, _, err := ReadMessage(bytes.NewReader(truncated)); err == nil {
		t.Error("Expected error on truncated body")
	}
}
