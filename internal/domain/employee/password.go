package employee

import "crypto/rand"

const passwordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const temporaryPasswordLength = 12

// GenerateTemporaryPassword returns a random first-login password for a
// freshly provisioned employee account. Ambiguous characters are excluded.
func GenerateTemporaryPassword() (string, error) {
	buf := make([]byte, temporaryPasswordLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = passwordAlphabet[int(b)%len(passwordAlphabet)]
	}
	return string(buf), nil
}
