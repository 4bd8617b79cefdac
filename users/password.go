package users

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidHash         = errors.New("invalid hash format")
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
)

// PasswordHasher is the one-way credential transform used for registration
// and login.
type PasswordHasher interface {
	// Hash returns a salted hash of password. Two calls with the same input
	// return different strings.
	Hash(password string) (string, error)
	// Verify reports whether encodedHash was produced from password. Malformed
	// or foreign hashes verify as false.
	Verify(password, encodedHash string) bool
	// NeedsRehash reports whether encodedHash should be replaced by a fresh
	// Hash of the same password.
	NeedsRehash(encodedHash string) bool
}

type Argon2Config struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Stored hashes asking for more than these are rejected rather than verified.
const (
	MaxArgon2Memory     = 1024 * 1024 // 1 GiB, in KiB
	MaxArgon2Iterations = 64
)

var DefaultArgon2Config = Argon2Config{
	Memory:      64 * 1024, // 64 MB
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// Argon2Hasher hashes with argon2id and still verifies bcrypt hashes written
// by earlier deployments.
type Argon2Hasher struct {
	cfg Argon2Config
}

var _ PasswordHasher = (*Argon2Hasher)(nil)

func NewArgon2Hasher(cfg Argon2Config) *Argon2Hasher {
	return &Argon2Hasher{cfg: cfg}
}

func NewDefaultHasher() *Argon2Hasher {
	return NewArgon2Hasher(DefaultArgon2Config)
}

func (h *Argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.cfg.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.cfg.Iterations, h.cfg.Memory, h.cfg.Parallelism, h.cfg.KeyLength)

	// Format: $argon2id$v=19$m=65536,t=3,p=2$<salt>$<hash>
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.cfg.Memory, h.cfg.Iterations, h.cfg.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Argon2Hasher) Verify(password, encodedHash string) bool {
	if isBcryptHash(encodedHash) {
		return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)) == nil
	}

	cfg, salt, key, err := decodeArgon2Hash(encodedHash)
	if err != nil {
		return false
	}

	otherKey := argon2.IDKey([]byte(password), salt, cfg.Iterations, cfg.Memory, cfg.Parallelism, cfg.KeyLength)
	return subtle.ConstantTimeCompare(key, otherKey) == 1
}

func (h *Argon2Hasher) NeedsRehash(encodedHash string) bool {
	if isBcryptHash(encodedHash) {
		return true
	}
	cfg, _, _, err := decodeArgon2Hash(encodedHash)
	if err != nil {
		return true
	}
	return cfg.Memory != h.cfg.Memory || cfg.Iterations != h.cfg.Iterations || cfg.Parallelism != h.cfg.Parallelism
}

func isBcryptHash(encodedHash string) bool {
	return strings.HasPrefix(encodedHash, "$2a$") ||
		strings.HasPrefix(encodedHash, "$2b$") ||
		strings.HasPrefix(encodedHash, "$2y$")
}

func decodeArgon2Hash(encodedHash string) (*Argon2Config, []byte, []byte, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return nil, nil, nil, ErrIncompatibleVersion
	}

	cfg := &Argon2Config{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &cfg.Memory, &cfg.Iterations, &cfg.Parallelism); err != nil {
		return nil, nil, nil, ErrInvalidHash
	}
	if cfg.Iterations == 0 || cfg.Parallelism == 0 {
		return nil, nil, nil, ErrInvalidHash
	}
	if cfg.Memory > MaxArgon2Memory || cfg.Iterations > MaxArgon2Iterations {
		return nil, nil, nil, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, nil, ErrInvalidHash
	}
	cfg.SaltLength = uint32(len(salt))

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, nil, nil, ErrInvalidHash
	}
	cfg.KeyLength = uint32(len(key))

	return cfg, salt, key, nil
}
