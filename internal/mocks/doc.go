// Package mocks provides centralized mock implementations for testing.
//
// Two styles are offered. The in-memory stores (MockUserStore, MockTaskStore,
// MockAvatarStore) behave like the real stores, including ownership scoping and
// token sets, and are suitable for end-to-end router tests. The function-field
// mocks (MockJWTService, MockPasswordVerifier, MockMailer) and the testify mocks
// (TestifyMockUserStore, TestifyMockTaskStore) let a test script individual calls.
//
//	users := mocks.NewMockUserStore()
//	users.GetByIDFn = func(ctx context.Context, id uuid.UUID) (*domain.User, error) {
//	    return nil, errors.New("boom")
//	}
package mocks
