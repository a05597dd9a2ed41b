package pkg

import "golang.org/x/crypto/bcrypt"

// HashPassword applies a slow one-way hash to a room password before
// it is stored. The plaintext must never be persisted.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword checks a plaintext candidate against a stored hash.
// It takes no lifecycle hooks and holds no state; bcrypt's comparison
// is constant-effort with respect to the candidate.
func VerifyPassword(hash string, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}
