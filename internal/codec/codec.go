// Package codec turns internal numeric identifiers and ticket tokens into
// opaque hex strings and back.  The transform is AES-256-CBC with a fixed
// key and IV, so the same plaintext always yields the same token.  Tokens
// can therefore be used as lookup keys by clients, but they never reveal
// the sequential IDs stored in MySQL.
package codec

import (
    "bytes"
    "crypto/aes"
    "crypto/cipher"
    "encoding/hex"
    "errors"
    "fmt"
    "strconv"
    "strings"
    "unicode/utf8"
)

// ErrMalformedToken is returned whenever an external token cannot be
// decoded: bad hex, wrong length, broken padding or a plaintext that is
// not of the expected shape.  Handlers map it to 400.
var ErrMalformedToken = errors.New("malformed token")

// Codec encodes and decodes opaque identifiers.  It holds no mutable state
// and is safe for concurrent use.
type Codec struct {
    block cipher.Block
    iv    []byte
}

// New builds a Codec from a 32 byte key and a 16 byte IV.
func New(key, iv []byte) (*Codec, error) {
    if len(key) != 32 {
        return nil, fmt.Errorf("codec: key must be 32 bytes, got %d", len(key))
    }
    if len(iv) != aes.BlockSize {
        return nil, fmt.Errorf("codec: iv must be %d bytes, got %d", aes.BlockSize, len(iv))
    }
    block, err := aes.NewCipher(key)
    if err != nil {
        return nil, err
    }
    ivCopy := make([]byte, len(iv))
    copy(ivCopy, iv)
    return &Codec{block: block, iv: ivCopy}, nil
}

// NewFromHex is New for hex encoded key material as found in APP_KEY and
// APP_IV.
func NewFromHex(keyHex, ivHex string) (*Codec, error) {
    key, err := hex.DecodeString(strings.TrimSpace(keyHex))
    if err != nil {
        return nil, fmt.Errorf("codec: key is not hex: %w", err)
    }
    iv, err := hex.DecodeString(strings.TrimSpace(ivHex))
    if err != nil {
        return nil, fmt.Errorf("codec: iv is not hex: %w", err)
    }
    return New(key, iv)
}

// EncodeID returns the opaque token for a numeric ID.
func (c *Codec) EncodeID(id uint64) string {
    return c.EncodeString(strconv.FormatUint(id, 10))
}

// DecodeID reverses EncodeID.  Anything that does not decrypt to a
// positive decimal integer is ErrMalformedToken.
func (c *Codec) DecodeID(token string) (uint64, error) {
    s, err := c.DecodeString(token)
    if err != nil {
        return 0, err
    }
    id, err := strconv.ParseUint(s, 10, 64)
    if err != nil || id == 0 {
        return 0, ErrMalformedToken
    }
    return id, nil
}

// EncodeString encrypts an arbitrary string (ticket QR tokens, national
// IDs) and returns lowercase hex.
func (c *Codec) EncodeString(plain string) string {
    padded := pkcs7Pad([]byte(plain), aes.BlockSize)
    out := make([]byte, len(padded))
    cipher.NewCBCEncrypter(c.block, c.iv).CryptBlocks(out, padded)
    return hex.EncodeToString(out)
}

// DecodeString reverses EncodeString.
func (c *Codec) DecodeString(token string) (string, error) {
    raw, err := hex.DecodeString(strings.TrimSpace(token))
    if err != nil || len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
        return "", ErrMalformedToken
    }
    out := make([]byte, len(raw))
    cipher.NewCBCDecrypter(c.block, c.iv).CryptBlocks(out, raw)
    plain, ok := pkcs7Unpad(out, aes.BlockSize)
    if !ok || !utf8.Valid(plain) {
        return "", ErrMalformedToken
    }
    return string(plain), nil
}

func pkcs7Pad(b []byte, size int) []byte {
    n := size - len(b)%size
    return append(append([]byte{}, b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, bool) {
    if len(b) == 0 || len(b)%size != 0 {
        return nil, false
    }
    n := int(b[len(b)-1])
    if n == 0 || n > size || n > len(b) {
        return nil, false
    }
    for _, p := range b[len(b)-n:] {
        if int(p) != n {
            return nil, false
        }
    }
    return b[:len(b)-n], true
}
