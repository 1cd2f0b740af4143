package pagination

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/narwhalmedia/querykit/pkg/errors"
)

// Cursor is the payload of an opaque page token.
type Cursor struct {
	PageNumber int64     `json:"page"`
	PageSize   int32     `json:"size"`
	Timestamp  time.Time `json:"ts"`
}

// CursorEncoder seals cursors into page tokens with AES-256-GCM.
type CursorEncoder struct {
	aead cipher.AEAD
}

// NewCursorEncoder creates a new cursor encoder with the given key
func NewCursorEncoder(key []byte) (*CursorEncoder, error) {
	if len(key) != 32 {
		return nil, errors.InvalidArgument("key must be 32 bytes for AES-256")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &CursorEncoder{aead: aead}, nil
}

// EncodeCursor encrypts and encodes a cursor to a base64 string
func (e *CursorEncoder) EncodeCursor(cursor *Cursor) (string, error) {
	plaintext, err := json.Marshal(cursor)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}

	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := e.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// DecodeCursor decrypts and decodes a cursor from a base64 string
func (e *CursorEncoder) DecodeCursor(encoded string) (*Cursor, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeInvalidArgument, "invalid page token", err)
	}

	nonceSize := e.aead.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.InvalidArgument("invalid page token: ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]

	plaintext, err := e.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeInvalidArgument, "invalid page token", err)
	}

	var cursor Cursor
	if err := json.Unmarshal(plaintext, &cursor); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeInvalidArgument, "invalid page token", err)
	}
	return &cursor, nil
}

// IsExpired checks if the cursor is older than the given duration
func (c *Cursor) IsExpired(maxAge time.Duration) bool {
	return time.Since(c.Timestamp) > maxAge
}

// NextPageToken returns the token of the page after info, or "" on the last
// page.
func NextPageToken(encoder *CursorEncoder, info PageInfo) (string, error) {
	if !info.HasNext() {
		return "", nil
	}
	return encoder.EncodeCursor(&Cursor{PageNumber: info.PageNumber + 1, PageSize: info.PageSize, Timestamp: time.Now()})
}

// PrevPageToken returns the token of the page before info, or "" on the
// first page. Pages past the end point back to the last page.
func PrevPageToken(encoder *CursorEncoder, info PageInfo) (string, error) {
	if !info.HasPrevious() {
		return "", nil
	}
	prev := min(info.PageNumber-1, max(info.PageCount(), 1))
	return encoder.EncodeCursor(&Cursor{PageNumber: prev, PageSize: info.PageSize, Timestamp: time.Now()})
}

// DecodePageToken resolves a page token into a page number and size. An
// empty token selects the first page with defaultSize.
func DecodePageToken(encoder *CursorEncoder, token string, defaultSize int32, maxAge time.Duration) (int64, int32, error) {
	if token == "" {
		return 1, defaultSize, nil
	}

	cursor, err := encoder.DecodeCursor(token)
	if err != nil {
		return 0, 0, err
	}
	if maxAge > 0 && cursor.IsExpired(maxAge) {
		return 0, 0, errors.InvalidArgument("page token expired")
	}
	if err := validate(cursor.PageNumber, cursor.PageSize); err != nil {
		return 0, 0, err
	}
	return cursor.PageNumber, cursor.PageSize, nil
}

// Config holds page size limits.
type Config struct {
	DefaultPageSize int32
	MaxPageSize     int32
}

// Normalize replaces a missing page size with the default and caps it at
// the maximum. Negative sizes are left for validation to reject.
func (c Config) Normalize(pageSize int32) int32 {
	if pageSize == 0 {
		return c.DefaultPageSize
	}
	if c.MaxPageSize > 0 && pageSize > c.MaxPageSize {
		return c.MaxPageSize
	}
	return pageSize
}
