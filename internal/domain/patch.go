package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Updatable fields. Anything else in an update body is rejected.
var (
	TaskUpdatableFields = []string{"description", "completed"}
	UserUpdatableFields = []string{"name", "email", "password", "age"}
)

// TaskPatch is a validated partial update of a Task. Nil fields are left unchanged.
type TaskPatch struct {
	Description *string
	Completed   *bool
}

// UserPatch is a validated partial update of a User. Nil fields are left unchanged.
type UserPatch struct {
	Name     *string
	Email    *string
	Password *string
	Age      *int
}

// ParseTaskPatch decodes an update body for a task.
// Unknown fields yield ErrInvalidUpdate; wrong types or invalid values yield a
// *ValidationError. An empty body is a valid, empty patch.
func ParseTaskPatch(body []byte) (TaskPatch, error) {
	var patch TaskPatch

	fields, err := decodePatchFields(body, TaskUpdatableFields)
	if err != nil {
		return patch, err
	}

	if raw, ok := fields["description"]; ok {
		var description string
		if err := decodeField(raw, &description); err != nil {
			return patch, NewValidationError("description", "must be a string", nil)
		}
		description = strings.TrimSpace(description)
		if description == "" {
			return patch, NewValidationError("description", "is required", nil)
		}
		patch.Description = &description
	}

	if raw, ok := fields["completed"]; ok {
		var completed bool
		if err := decodeField(raw, &completed); err != nil {
			return patch, NewValidationError("completed", "must be a boolean", nil)
		}
		patch.Completed = &completed
	}

	return patch, nil
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Description == nil && p.Completed == nil
}

// Apply copies the patched fields onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
}

// ParseUserPatch decodes a profile update body.
// Unknown fields yield ErrInvalidUpdate; wrong types or invalid values yield a
// *ValidationError. An empty body is a valid, empty patch.
func ParseUserPatch(body []byte) (UserPatch, error) {
	var patch UserPatch

	fields, err := decodePatchFields(body, UserUpdatableFields)
	if err != nil {
		return patch, err
	}

	if raw, ok := fields["name"]; ok {
		var name string
		if err := decodeField(raw, &name); err != nil {
			return patch, NewValidationError("name", "must be a string", nil)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return patch, NewValidationError("name", "is required", nil)
		}
		patch.Name = &name
	}

	if raw, ok := fields["email"]; ok {
		var email string
		if err := decodeField(raw, &email); err != nil {
			return patch, NewValidationError("email", "must be a string", nil)
		}
		email = NormalizeEmail(email)
		if email == "" {
			return patch, NewValidationError("email", "is required", nil)
		}
		if err := validate.Var(email, "email"); err != nil {
			return patch, NewValidationError("email", "is invalid", nil)
		}
		patch.Email = &email
	}

	if raw, ok := fields["password"]; ok {
		var password string
		if err := decodeField(raw, &password); err != nil {
			return patch, NewValidationError("password", "must be a string", nil)
		}
		if err := ValidatePassword(password); err != nil {
			return patch, err
		}
		password = strings.TrimSpace(password)
		patch.Password = &password
	}

	if raw, ok := fields["age"]; ok {
		var age int
		if err := decodeField(raw, &age); err != nil {
			return patch, NewValidationError("age", "must be an integer", nil)
		}
		if age < 0 {
			return patch, NewValidationError("age", "must be a positive number", nil)
		}
		patch.Age = &age
	}

	return patch, nil
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Password == nil && p.Age == nil
}

// Apply copies the patched fields onto u. A new password is placed in
// u.Password for the store to hash.
func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Password != nil {
		u.Password = *p.Password
	}
	if p.Age != nil {
		u.Age = *p.Age
	}
}

// decodePatchFields splits body into its top-level fields and rejects the
// whole body if any key is outside allowed.
func decodePatchFields(body []byte, allowed []string) (map[string]json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(body)) == 0 {
		return fields, nil
	}

	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, NewValidationError("body", "must be a JSON object", nil)
	}

	var rejected []string
	for key := range fields {
		if !slices.Contains(allowed, key) {
			rejected = append(rejected, key)
		}
	}
	if len(rejected) > 0 {
		sort.Strings(rejected)
		return nil, fmt.Errorf("%w: %s", ErrInvalidUpdate, strings.Join(rejected, ", "))
	}

	return fields, nil
}

// decodeField unmarshals raw into v, treating JSON null as a type error.
func decodeField(raw json.RawMessage, v any) error {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return fmt.Errorf("null value")
	}
	return json.Unmarshal(raw, v)
}
