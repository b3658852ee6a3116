package normalize

import (
	"crypto/sha256"
	"encoding/hex"
)

// signatureLength is the hex-encoded length of a signature. 128 bits of
// SHA-256 is plenty for collision resistance at catalog scale while
// keeping signatures readable in logs and CLI output.
const signatureLength = 32

// Signature computes the stable aggregation key for a raw (artist, title)
// pair: a fixed-width hash of the canonical byte encoding
// CleanArtist(artist) + "|" + Clean(title). Two raw pairs that normalize
// identically collapse to the same signature across process restarts.
func Signature(artist, title string) string {
	return SignatureFromCanonical(CleanArtist(artist), Clean(title))
}

// SignatureFromCanonical computes a signature from already-normalized
// artist and title strings. Callers must pass CleanArtist/Clean output.
func SignatureFromCanonical(cleanArtist, cleanTitle string) string {
	sum := sha256.Sum256([]byte(cleanArtist + "|" + cleanTitle))
	return hex.EncodeToString(sum[:])[:signatureLength]
}
