package license

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/keygate-inc/keygate/internal/shared/id"
)

const (
	keyGroups    = 4
	keyGroupSize = 4
)

var keyPattern = regexp.MustCompile(`^([A-Z0-9]{2,10})-([A-Z0-9]{4})-([A-Z0-9]{4})-([A-Z0-9]{4})-([A-Z0-9]{4})$`)

// KeyGenerator issues brand-prefixed license keys and computes their storage digest.
// The digest is a keyed BLAKE2b-256 so a leaked table cannot be brute-forced
// without the pepper.
type KeyGenerator struct {
	macKey []byte
}

// NewKeyGenerator derives the MAC key from pepper. An empty pepper is rejected.
func NewKeyGenerator(pepper string) (*KeyGenerator, error) {
	if pepper == "" {
		return nil, fmt.Errorf("key pepper is required")
	}
	sum := blake2b.Sum256([]byte(pepper))
	return &KeyGenerator{macKey: sum[:]}, nil
}

// Generate returns a new plaintext key of the form PREFIX-XXXX-XXXX-XXXX-XXXX and its digest.
func (g *KeyGenerator) Generate(prefix string) (plaintext, digest string, err error) {
	random, err := id.GenerateFrom(id.Upper36, keyGroups*keyGroupSize)
	if err != nil {
		return "", "", err
	}

	var b strings.Builder
	b.WriteString(prefix)
	for i := 0; i < keyGroups; i++ {
		b.WriteByte('-')
		b.WriteString(random[i*keyGroupSize : (i+1)*keyGroupSize])
	}

	plaintext = b.String()
	if _, err := ParseKey(plaintext); err != nil {
		return "", "", err
	}
	return plaintext, g.Digest(plaintext), nil
}

// Digest returns the hex digest of a plaintext key. Input is normalized first,
// so lookups are case-insensitive.
func (g *KeyGenerator) Digest(plaintext string) string {
	return g.Sum(NormalizeKey(plaintext))
}

// Sum returns the keyed digest of s without normalizing it. It is used for
// case-sensitive secrets such as API keys.
func (g *KeyGenerator) Sum(s string) string {
	h, err := blake2b.New256(g.macKey)
	if err != nil {
		// only fails for keys longer than 64 bytes
		panic(err)
	}
	h.Write([]byte(s))
	return hex.EncodeToString(h.Sum(nil))
}

// NormalizeKey trims and uppercases a plaintext key.
func NormalizeKey(plaintext string) string {
	return strings.ToUpper(strings.TrimSpace(plaintext))
}

// ParseKey validates the key format and returns its brand prefix.
func ParseKey(plaintext string) (prefix string, err error) {
	m := keyPattern.FindStringSubmatch(NormalizeKey(plaintext))
	if m == nil {
		return "", fmt.Errorf("malformed license key")
	}
	return m[1], nil
}
