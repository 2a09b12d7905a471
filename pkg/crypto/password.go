// Package crypto holds the password hashing used for volunteer and admin
// accounts. Hashes are bcrypt, stored as the raw []byte bcrypt emits.
package crypto

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a plaintext account password with bcrypt at the
// default cost.
func HashPassword(plain string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
}

// ComparePassword checks plaintext against a stored hash, returning
// bcrypt's mismatch error when they differ.
func ComparePassword(hash []byte, plain string) error {
	return bcrypt.CompareHashAndPassword(hash, []byte(plain))
}
