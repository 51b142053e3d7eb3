package security

import (
	"crypto/sha256"
	"encoding/base64"
)

// maxBcryptInput is the number of bytes bcrypt actually reads; longer input is rejected by
// golang.org/x/crypto/bcrypt.
const maxBcryptInput = 72

const digestPrefix = "sha256:"

// prepareSecret returns the bytes fed to bcrypt. Secrets that fit bcrypt's input are used as
// is. Longer ones (every signed refresh token, long passphrases) are reduced to a SHA-256
// digest first so that every byte of the secret affects the fingerprint.
func prepareSecret(plaintext string) []byte {
	if len(plaintext) <= maxBcryptInput {
		return []byte(plaintext)
	}
	return []byte(digestSecret(plaintext))
}

// digestSecret returns "sha256:" followed by the unpadded base64url SHA-256 of s (50 bytes).
func digestSecret(s string) string {
	sum := sha256.Sum256([]byte(s))
	return digestPrefix + base64.RawURLEncoding.EncodeToString(sum[:])
}
