package fingerprint_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/alwitt/notary/fingerprint"
	"github.com/stretchr/testify/assert"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestSHA256Hex(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		fingerprint.SHA256HexString("abc"),
	)
	assert.Equal(
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		fingerprint.SHA256Hex(nil),
	)
	assert.Equal(
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		fingerprint.SHA256Hex([]byte{}),
	)

	content := bytes.Repeat([]byte("notary"), 100000)
	streamed, err := fingerprint.SHA256HexReader(bytes.NewReader(content))
	assert.Nil(err)
	assert.Equal(fingerprint.SHA256Hex(content), streamed)

	_, err = fingerprint.SHA256HexReader(failingReader{})
	assert.NotNil(err)
}

func TestIsSHA256Hex(t *testing.T) {
	assert := assert.New(t)

	assert.True(fingerprint.IsSHA256Hex(fingerprint.SHA256HexString("abc")))
	assert.False(fingerprint.IsSHA256Hex(""))
	assert.False(fingerprint.IsSHA256Hex("abc"))
	assert.False(fingerprint.IsSHA256Hex(strings.ToUpper(fingerprint.SHA256HexString("abc"))))
	assert.False(fingerprint.IsSHA256Hex(strings.Repeat("g", fingerprint.SHA256HexLength)))
}
