package core

import (
	"crypto/rand"
)

const passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const passwordLength = 12

// GeneratePassword returns a 12-character alphanumeric password from
// crypto/rand. Rejection sampling keeps the alphabet distribution uniform.
func GeneratePassword() (string, error) {

	// 62 * 4 = 248, so bytes >= 248 are rejected

	var password = make([]byte, 0, passwordLength)
	var buf = make([]byte, passwordLength)

	for len(password) < passwordLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= 248 {
				continue
			}
			password = append(password, passwordAlphabet[int(b)%len(passwordAlphabet)])
			if len(password) == passwordLength {
				break
			}
		}
	}

	return string(password), nil
}
