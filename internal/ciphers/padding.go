package ciphers

import (
	"crypto/subtle"
	"errors"
)

var errBadPadding = errors.New("invalid padding")

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+n)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errBadPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, errBadPadding
	}

	// Check every padding byte so the result does not depend on where the mismatch is.
	good := 1
	for i := len(data) - n; i < len(data); i++ {
		good &= subtle.ConstantTimeByteEq(data[i], byte(n))
	}
	if good != 1 {
		return nil, errBadPadding
	}
	return data[:len(data)-n], nil
}
