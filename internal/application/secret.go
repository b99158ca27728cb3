package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const argon2idPrefix = "$argon2id$"

var (
	ErrInvalidSecretHash         = errors.New("invalid admin secret hash format")
	ErrIncompatibleSecretVersion = errors.New("incompatible admin secret hash version")
)

// Argon2idParams tunes the key derivation used for hashed admin secrets.
type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2idParams is what `timeclock -hash-secret` uses.
var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

func (p Argon2idParams) usable() bool {
	return p.Memory > 0 && p.Iterations > 0 && p.Parallelism > 0
}

// secretHash is a decoded argon2id PHC string:
// $argon2id$v=19$m=<memory>,t=<iterations>,p=<parallelism>$<salt>$<key>
type secretHash struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func (h secretHash) derive(secret string) []byte {
	return argon2.IDKey([]byte(secret), h.salt, h.iterations, h.memory, h.parallelism, uint32(len(h.key)))
}

func (h secretHash) String() string {
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2idPrefix, argon2.Version, h.memory, h.iterations, h.parallelism,
		base64.RawStdEncoding.EncodeToString(h.salt),
		base64.RawStdEncoding.EncodeToString(h.key),
	)
}

func parseSecretHash(encoded string) (secretHash, error) {
	if !IsHashedSecret(encoded) {
		return secretHash{}, ErrInvalidSecretHash
	}
	fields := strings.Split(strings.TrimPrefix(encoded, argon2idPrefix), "$")
	if len(fields) != 4 {
		return secretHash{}, ErrInvalidSecretHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[0], "v=%d", &version); err != nil {
		return secretHash{}, fmt.Errorf("%w: %v", ErrInvalidSecretHash, err)
	}
	if version != argon2.Version {
		return secretHash{}, ErrIncompatibleSecretVersion
	}

	var h secretHash
	if _, err := fmt.Sscanf(fields[1], "m=%d,t=%d,p=%d", &h.memory, &h.iterations, &h.parallelism); err != nil {
		return secretHash{}, fmt.Errorf("%w: %v", ErrInvalidSecretHash, err)
	}
	if !(Argon2idParams{Memory: h.memory, Iterations: h.iterations, Parallelism: h.parallelism}).usable() {
		return secretHash{}, fmt.Errorf("%w: cost parameters must be positive", ErrInvalidSecretHash)
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(fields[2]); err != nil {
		return secretHash{}, fmt.Errorf("%w: salt: %v", ErrInvalidSecretHash, err)
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(fields[3]); err != nil {
		return secretHash{}, fmt.Errorf("%w: key: %v", ErrInvalidSecretHash, err)
	}
	if len(h.key) == 0 {
		return secretHash{}, fmt.Errorf("%w: empty key", ErrInvalidSecretHash)
	}
	return h, nil
}

// IsHashedSecret reports whether a configured secret is an argon2id PHC string.
func IsHashedSecret(configured string) bool {
	return strings.HasPrefix(configured, argon2idPrefix)
}

// HashSecret derives a PHC string suitable for TIMECLOCK_ADMIN_PASS.
func HashSecret(secret string, params Argon2idParams) (string, error) {
	if secret == "" {
		return "", errors.New("secret must not be empty")
	}
	if !params.usable() || params.KeyLength == 0 {
		return "", fmt.Errorf("argon2id parameters must be positive: %+v", params)
	}

	h := secretHash{
		memory:      params.Memory,
		iterations:  params.Iterations,
		parallelism: params.Parallelism,
		salt:        make([]byte, params.SaltLength),
		key:         make([]byte, params.KeyLength),
	}
	if _, err := rand.Read(h.salt); err != nil {
		return "", err
	}
	h.key = h.derive(secret)
	return h.String(), nil
}

// VerifySecret checks presented against a PHC string produced by HashSecret.
// A mismatch is ErrUnauthorized.
func VerifySecret(hashed, presented string) error {
	h, err := parseSecretHash(hashed)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(h.key, h.derive(presented)) != 1 {
		return ErrUnauthorized
	}
	return nil
}
