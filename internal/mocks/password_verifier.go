package mocks

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/phrazzld/tasker-api/internal/service/auth"
)

// MockPasswordVerifier accepts exactly one password and records the hashes it
// was asked to compare against.
type MockPasswordVerifier struct {
	Accept string
	Hashes []string
}

var _ auth.PasswordVerifier = (*MockPasswordVerifier)(nil)

// Compare implements auth.PasswordVerifier.
func (m *MockPasswordVerifier) Compare(hashedPassword, password string) error {
	m.Hashes = append(m.Hashes, hashedPassword)
	if m.Accept != "" && password == m.Accept {
		return nil
	}
	return bcrypt.ErrMismatchedHashAndPassword
}
