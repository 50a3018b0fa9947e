package domain

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Password constraints.
const (
	MinPasswordLength = 7
	// MaxPasswordLength is bcrypt's input limit.
	MaxPasswordLength = 72
)

var validate = validator.New()

// User represents a registered account.
// Session tokens and the avatar image are owned by the user but stored and
// loaded separately; neither is part of the JSON representation.
type User struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Age            int       `json:"age"`
	Password       string    `json:"-"` // Plaintext password, used temporarily during registration/updates
	HashedPassword string    `json:"-"` // Never expose password hash in JSON
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewUser creates a new User with normalized fields, a fresh ID and timestamps.
// The plaintext password is kept on the struct; the user store hashes it.
// Returns a *ValidationError if any field is invalid.
func NewUser(name, email, password string, age int) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Age:       age,
		Password:  password,
		CreatedAt: now,
		UpdatedAt: now,
	}
	user.Normalize()

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Normalize trims the name, email and plaintext password and lower-cases the
// email. The trimmed password is what gets hashed.
func (u *User) Normalize() {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = NormalizeEmail(u.Email)
	u.Password = strings.TrimSpace(u.Password)
}

// NormalizeEmail trims and lower-cases an email address so lookups match
// the stored form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks if the User has valid data.
// Either a plaintext Password (new or changing) or a HashedPassword must be present.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return NewValidationError("id", "is required", ErrInvalidID)
	}
	if u.Name == "" {
		return NewValidationError("name", "is required", nil)
	}
	if u.Email == "" {
		return NewValidationError("email", "is required", nil)
	}
	if err := validate.Var(u.Email, "email"); err != nil {
		return NewValidationError("email", "is invalid", nil)
	}
	if u.Age < 0 {
		return NewValidationError("age", "must be a positive number", nil)
	}

	if u.Password != "" {
		return ValidatePassword(u.Password)
	}
	if u.HashedPassword == "" {
		return NewValidationError("password", "is required", nil)
	}

	return nil
}

// ValidatePassword checks a plaintext password against the account rules:
// after trimming, at least MinPasswordLength characters, at most
// MaxPasswordLength bytes, and no occurrence of the word "password" in any case.
func ValidatePassword(password string) error {
	trimmed := strings.TrimSpace(password)
	switch {
	case trimmed == "":
		return NewValidationError("password", "is required", nil)
	case len(trimmed) < MinPasswordLength:
		return NewValidationError("password", "must be at least 7 characters long", nil)
	case len(trimmed) > MaxPasswordLength:
		return NewValidationError("password", "must be at most 72 characters long", nil)
	case strings.Contains(strings.ToLower(trimmed), "password"):
		return NewValidationError("password", `cannot contain "password"`, nil)
	}
	return nil
}
