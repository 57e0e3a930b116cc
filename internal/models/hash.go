package models

import (
	"encoding/hex"
	"fmt"
)

// HashSize is the byte length of every digest used by the ledger.
const HashSize = 32

// Hash256 is a SHA-256 digest. The zero value is the genesis sentinel.
type Hash256 [HashSize]byte

// ZeroHash is the previous-hash sentinel of the genesis block.
var ZeroHash = Hash256{}

func (h Hash256) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the all-zero sentinel.
func (h Hash256) IsZero() bool {
	return h == ZeroHash
}

// MarshalText implements encoding.TextMarshaler so hashes serialize as hex.
func (h Hash256) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash256) UnmarshalText(text []byte) error {
	decoded, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("invalid hash encoding: %w", err)
	}
	if len(decoded) != HashSize {
		return fmt.Errorf("invalid hash length: got %d bytes, want %d", len(decoded), HashSize)
	}
	copy(h[:], decoded)
	return nil
}

// ParseHash256 decodes a hex-encoded digest.
func ParseHash256(s string) (Hash256, error) {
	var h Hash256
	if err := h.UnmarshalText([]byte(s)); err != nil {
		return Hash256{}, err
	}
	return h, nil
}
