// Package fingerprint - document content fingerprints
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// SHA256HexLength length of a hex encoded SHA-256 fingerprint
const SHA256HexLength = sha256.Size * 2

/*
SHA256Hex fingerprint of raw content

	@param content []byte - the content
	@returns lowercase hex encoded SHA-256 digest
*/
func SHA256Hex(content []byte) string {
	digest := sha256.Sum256(content)
	return hex.EncodeToString(digest[:])
}

/*
SHA256HexString fingerprint of text content, taken over its UTF-8 bytes

	@param content string - the content
	@returns lowercase hex encoded SHA-256 digest
*/
func SHA256HexString(content string) string {
	return SHA256Hex([]byte(content))
}

/*
SHA256HexReader fingerprint of streamed content

	@param content io.Reader - the content
	@returns lowercase hex encoded SHA-256 digest
*/
func SHA256HexReader(content io.Reader) (string, error) {
	hasher := sha256.New()
	if _, err := io.Copy(hasher, content); err != nil {
		return "", fmt.Errorf("failed to read content [%w]", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// IsSHA256Hex whether the value has the shape of a SHA256Hex output
func IsSHA256Hex(value string) bool {
	if len(value) != SHA256HexLength {
		return false
	}
	for _, c := range value {
		if !(('0' <= c && c <= '9') || ('a' <= c && c <= 'f')) {
			return false
		}
	}
	return true
}
