// Package password implements the one-way credential transform: Argon2id with
// a fresh random salt per hash, stored as a PHC-encoded string.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"authgate/internal/platform/config"
)

// ErrInvalidHash marks a stored hash that cannot be parsed or whose cost
// parameters fall outside accepted bounds. Callers treat it as a verification
// failure, never a process fault.
var ErrInvalidHash = errors.New("invalid credential hash format")

const (
	saltLength = 16
	keyLength  = 32
)

// Params controls Argon2id hashing cost. MemoryKiB is in KiB as required by
// argon2.IDKey.
type Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams is a conservative interactive-login baseline.
func DefaultParams() Params {
	return Params{
		MemoryKiB:   64 * 1024,
		Iterations:  3,
		Parallelism: 2,
	}
}

// FromConfig builds Params from process configuration, falling back to the
// defaults for zero values.
func FromConfig(cfg config.Argon2Config) Params {
	p := DefaultParams()
	if cfg.MemoryKiB > 0 {
		p.MemoryKiB = cfg.MemoryKiB
	}
	if cfg.Iterations > 0 {
		p.Iterations = cfg.Iterations
	}
	if cfg.Parallelism > 0 {
		p.Parallelism = cfg.Parallelism
	}
	return p
}

// Hasher computes and verifies credential hashes.
type Hasher struct {
	params Params
}

// NewHasher constructs a Hasher with the given cost parameters.
func NewHasher(params Params) *Hasher {
	return &Hasher{params: params}
}

// Hash derives an Argon2id hash of secret with a freshly generated salt.
// Output format: $argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<saltB64>$<keyB64>
func (h *Hasher) Hash(secret string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey(
		[]byte(secret),
		salt,
		h.params.Iterations,
		h.params.MemoryKiB,
		h.params.Parallelism,
		keyLength,
	)

	b64 := base64.RawStdEncoding
	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKiB,
		h.params.Iterations,
		h.params.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	)
	return encoded, nil
}

// Verify reports whether secret matches the encoded hash. It returns
// (false, ErrInvalidHash) for malformed or out-of-bounds hashes and compares
// in constant time otherwise.
func (h *Hasher) Verify(secret, encoded string) (bool, error) {
	params, salt, expected, err := decode(encoded)
	if err != nil {
		return false, err
	}

	// Refuse hashes whose params wildly exceed our own configuration so an
	// attacker-controlled hash string cannot drive pathological memory use.
	if !withinBounds(params, h.params) {
		return false, ErrInvalidHash
	}

	key := argon2.IDKey(
		[]byte(secret),
		salt,
		params.Iterations,
		params.MemoryKiB,
		params.Parallelism,
		uint32(len(expected)),
	)

	if subtle.ConstantTimeCompare(key, expected) == 1 {
		return true, nil
	}
	return false, nil
}

func withinBounds(got, limits Params) bool {
	if got.MemoryKiB > limits.MemoryKiB*2 {
		return false
	}
	if got.Iterations > limits.Iterations*2 {
		return false
	}
	if got.Parallelism > limits.Parallelism*2 {
		return false
	}
	return true
}

// decode parses a PHC-encoded Argon2id hash into params, salt, and key.
func decode(encoded string) (Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, nil, nil, ErrInvalidHash
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return Params{}, nil, nil, ErrInvalidHash
	}

	var mem, it, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &it, &par); err != nil {
		return Params{}, nil, nil, ErrInvalidHash
	}
	if mem == 0 || it == 0 || par == 0 || par > 255 {
		return Params{}, nil, nil, ErrInvalidHash
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) < 8 || len(salt) > 64 {
		return Params{}, nil, nil, ErrInvalidHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil || len(key) < 16 || len(key) > 128 {
		return Params{}, nil, nil, ErrInvalidHash
	}

	return Params{
		MemoryKiB:   mem,
		Iterations:  it,
		Parallelism: uint8(par),
	}, salt, key, nil
}
