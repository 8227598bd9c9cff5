package security

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a one-way bcrypt hash of a secret. Used for
// guardian PINs: the reference client-side rolling hash was replaced
// with a real password-hashing primitive on purpose.
func HashPassword(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a candidate secret against a stored hash
func CheckPassword(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
