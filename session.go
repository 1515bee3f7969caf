package glitchreveal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrRecordTooLarge is returned when the serialized record exceeds the configured MaxRecordBytes.
	ErrRecordTooLarge = errors.New("session record too large")

	// ErrMalformedRecord is returned when a stored record cannot be decoded.
	ErrMalformedRecord = errors.New("malformed session record")

	// ErrStorageUnavailable wraps backend failures that push the session into in-memory mode.
	ErrStorageUnavailable = errors.New("session storage unavailable")
)

// DefaultStorageKey is the fixed identifier the session record is stored under.
const DefaultStorageKey = "nfc_valentine_state"

// Record is the visitor's persisted session state.
type Record struct {
	HasUnlocked bool   `json:"hasUnlocked"`
	ClickCount  int    `json:"clickCount"`
	VisitCount  int    `json:"visitCount"`
	LastCode    string `json:"lastCode,omitempty"`
}

// Store defines the interface for session record persistence.
type Store interface {
	// Get retrieves the record stored under key. It returns nil, nil when absent.
	Get(ctx context.Context, key string) (*Record, error)
	// Save stores the record under key, replacing any previous value.
	Save(ctx context.Context, key string, r *Record) error
	// Delete removes the record stored under key.
	Delete(ctx context.Context, key string) error
	// Close closes the store.
	Close() error
}

// encodeRecord serializes r into buf and enforces the size limit.
// The caller owns buf and must not retain the returned slice after releasing it.
func encodeRecord(buf *bytes.Buffer, r *Record, maxBytes int) ([]byte, error) {
	if err := json.NewEncoder(buf).Encode(r); err != nil {
		return nil, fmt.Errorf("failed to encode session record: %w", err)
	}
	if maxBytes > 0 && buf.Len() > maxBytes {
		return nil, ErrRecordTooLarge
	}
	return buf.Bytes(), nil
}

// decodeRecord parses a stored record. Missing fields keep their zero value;
// anything that is not a JSON object is reported as ErrMalformedRecord.
func decodeRecord(data []byte, maxBytes int) (*Record, error) {
	if maxBytes > 0 && len(data) > maxBytes {
		return nil, ErrRecordTooLarge
	}

	reader := readerPool.Get().(*bytes.Reader)
	reader.Reset(data)
	defer readerPool.Put(reader)

	var r Record
	dec := json.NewDecoder(reader)
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after record", ErrMalformedRecord)
	}
	return &r, nil
}
