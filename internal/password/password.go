package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// argon2id cost parameters. Changing them only affects newly stored
// hashes; Verify reads the parameters back out of the encoded string.
const (
	timeCost   uint32 = 3
	memoryCost uint32 = 64 * 1024
	threads    uint8  = 2
	keyLen     uint32 = 32
	saltLen           = 32
)

var ErrMalformedHash = errors.New("password: malformed hash")

type params struct {
	version int
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	digest  []byte
}

// Hash derives an argon2id digest from plaintext using a fresh random
// salt and encodes it in PHC string format.
func Hash(plaintext string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	digest := argon2.IDKey([]byte(plaintext), salt, timeCost, memoryCost, threads, keyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, memoryCost, timeCost, threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	), nil
}

// Verify recomputes the digest for plaintext under the parameters stored
// in encoded and compares in constant time.
func Verify(plaintext, encoded string) (bool, error) {
	p, err := decode(encoded)
	if err != nil {
		return false, err
	}
	actual := argon2.IDKey([]byte(plaintext), p.salt, p.time, p.memory, p.threads, uint32(len(p.digest)))
	return subtle.ConstantTimeCompare(actual, p.digest) == 1, nil
}

func decode(encoded string) (params, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return params{}, ErrMalformedHash
	}

	var p params
	if _, err := fmt.Sscanf(parts[2], "v=%d", &p.version); err != nil {
		return params{}, ErrMalformedHash
	}
	if p.version != argon2.Version {
		return params{}, ErrMalformedHash
	}

	var threadCount uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &threadCount); err != nil {
		return params{}, ErrMalformedHash
	}
	if threadCount == 0 || threadCount > 255 {
		return params{}, ErrMalformedHash
	}
	p.threads = uint8(threadCount)

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return params{}, ErrMalformedHash
	}
	if p.digest, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return params{}, ErrMalformedHash
	}
	if len(p.digest) == 0 {
		return params{}, ErrMalformedHash
	}
	return p, nil
}
