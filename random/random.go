package random

import (
	crand "crypto/rand"
	"math/big"
	mrand "math/rand/v2"
)

const (
	charset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// no 0/O or 1/I, references get read out over the phone
	referenceCharset = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
)

func String(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[mrand.IntN(len(charset))]
	}
	return string(b)
}

func StringSecure(length int) (string, error) {
	return secure(length, charset)
}

// Reference returns an upper case code suitable for order references.
func Reference(length int) (string, error) {
	return secure(length, referenceCharset)
}

func secure(length int, set string) (string, error) {
	b := make([]byte, length)
	l := big.NewInt(int64(len(set)))
	for i := range b {
		num, err := crand.Int(crand.Reader, l)
		if err != nil {
			return "", err
		}
		b[i] = set[num.Int64()]
	}
	return string(b), nil
}
