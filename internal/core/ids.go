package core

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/dkeye/Cipher/internal/domain"
)

// GenerateRoomID returns an 8 character upper-case hex code.
func GenerateRoomID() domain.RoomID {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return domain.RoomID(strings.ToUpper(hex.EncodeToString(b)))
}

// HashSecret derives the room fingerprint from the shared secret.
func HashSecret(secret string) domain.Fingerprint {
	sum := sha256.Sum256([]byte(secret))
	return domain.Fingerprint(hex.EncodeToString(sum[:]))
}

// SameFingerprint compares in constant time so a wrong secret and a taken
// name cost the same.
func SameFingerprint(a, b domain.Fingerprint) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
