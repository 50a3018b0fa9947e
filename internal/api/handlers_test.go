package api_test

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/api"
	"github.com/phrazzld/tasker-api/internal/api/middleware"
	"github.com/phrazzld/tasker-api/internal/config"
	"github.com/phrazzld/tasker-api/internal/mocks"
	"github.com/phrazzld/tasker-api/internal/platform/imaging"
	"github.com/phrazzld/tasker-api/internal/service"
	"github.com/phrazzld/tasker-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testJWTSecret  = "test-secret-that-is-long-enough-for-testing"
	testCookieName = "auth_token"
	testPassword   = "s3cret-pass"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	sqlMock sqlmock.Sqlmock
	users   *mocks.MockUserStore
	tasks   *mocks.MockTaskStore
	avatars *mocks.MockAvatarStore
}

func newTestServer(t *testing.T, maxAvatarBytes int64, mw ...func(http.Handler) http.Handler) *testServer {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ts := &testServer{
		t:       t,
		sqlMock: sqlMock,
		users:   mocks.NewMockUserStore(),
		tasks:   mocks.NewMockTaskStore(),
		avatars: mocks.NewMockAvatarStore(),
	}

	jwtService, err := auth.NewJWTService(config.AuthConfig{JWTSecret: testJWTSecret})
	require.NoError(t, err)

	sessions, err := service.NewSessionService(jwtService, ts.users, nil)
	require.NoError(t, err)

	userService, err := service.NewUserService(service.UserServiceDeps{
		DB:         db,
		Users:      ts.users,
		Tasks:      ts.tasks,
		Avatars:    ts.avatars,
		Sessions:   sessions,
		Passwords:  auth.NewBcryptVerifier(),
		Transcoder: imaging.NewTranscoder(16),
	}, nil)
	require.NoError(t, err)

	taskService, err := service.NewTaskService(ts.tasks, nil)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(mw...)
	api.RegisterRoutes(r,
		api.NewUserHandler(userService, api.SessionCookie{Name: testCookieName}, maxAvatarBytes, nil),
		api.NewTaskHandler(taskService, nil),
		middleware.NewAuthMiddleware(sessions, testCookieName, nil),
	)
	ts.handler = r
	return ts
}

// do sends a JSON request; an empty token sends no credentials.
func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func (ts *testServer) register(email string) (api.AuthResponse, *http.Cookie) {
	ts.t.Helper()
	w := ts.do(http.MethodPost, "/users", "", map[string]any{
		"name":     "Ann",
		"email":    email,
		"password": testPassword,
		"age":      30,
	})
	require.Equal(ts.t, http.StatusCreated, w.Code, w.Body.String())

	var resp api.AuthResponse
	require.NoError(ts.t, json.Unmarshal(w.Body.Bytes(), &resp))

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == testCookieName {
			cookie = c
		}
	}
	return resp, cookie
}

func (ts *testServer) login(email, password string) *httptest.ResponseRecorder {
	ts.t.Helper()
	return ts.do(http.MethodPost, "/users/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (ts *testServer) createTask(token, description string) api.TaskResponse {
	ts.t.Helper()
	w := ts.do(http.MethodPost, "/tasks", token, map[string]any{"description": description})
	require.Equal(ts.t, http.StatusCreated, w.Code, w.Body.String())

	var task api.TaskResponse
	require.NoError(ts.t, json.Unmarshal(w.Body.Bytes(), &task))
	return task
}

func decodeTasks(t *testing.T, w *httptest.ResponseRecorder) []api.TaskResponse {
	t.Helper()
	var tasks []api.TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	return tasks
}

func assertError(t *testing.T, w *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	assert.Equal(t, status, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	assert.Equal(t, message, resp["error"])
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t, 1_000_000)

	reg, cookie := ts.register("ann@example.com")
	require.NotEmpty(t, reg.Token)
	require.NotNil(t, cookie)
	assert.Equal(t, reg.Token, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "ann@example.com", reg.User.Email)

	w := ts.login("ann@example.com", testPassword)
	require.Equal(t, http.StatusOK, w.Code)
	var second api.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	require.NotEqual(t, reg.Token, second.Token)
	assert.Len(t, ts.users.Tokens(reg.User.ID), 2)

	task := ts.createTask(reg.Token, "Buy milk")
	assert.Equal(t, reg.User.ID, task.Owner)
	assert.False(t, task.Completed)

	w = ts.do(http.MethodPost, "/users/logout", second.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodGet, "/tasks", second.Token, nil)
	assertError(t, w, http.StatusUnauthorized, "Please authenticate.")

	w = ts.do(http.MethodGet, "/tasks", reg.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	tasks := decodeTasks(t, w)
	require.Len(t, tasks, 1)
	assert.Equal(t, task.ID, tasks[0].ID)

	w = ts.do(http.MethodPost, "/users/logoutAll", reg.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, ts.users.Tokens(reg.User.ID))

	w = ts.do(http.MethodGet, "/users/me", reg.Token, nil)
	assertError(t, w, http.StatusUnauthorized, "Please authenticate.")
}

func TestCookieAuthentication(t *testing.T) {
	ts := newTestServer(t, 1_000_000)
	reg, cookie := ts.register("ann@example.com")
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var me api.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, reg.User.ID, me.ID)
	assert.NotContains(t, w.Body.String(), "password")
	assert.NotContains(t, w.Body.String(), "token")
}

func TestRegisterAndLoginErrors(t *testing.T) {
	ts := newTestServer(t, 1_000_000)
	ts.register("ann@example.com")

	tests := []struct {
		name    string
		path    string
		body    any
		status  int
		message string
	}{
		{
			name:    "duplicate email",
			path:    "/users",
			body:    map[string]any{"name": "Bob", "email": "ANN@example.com", "password": testPassword},
			status:  http.StatusConflict,
			message: "Email already exists",
		},
		{
			name:    "password containing password",
			path:    "/users",
			body:    map[string]any{"name": "Bob", "email": "bob@example.com", "password": "mypassword1"},
			status:  http.StatusBadRequest,
			message: "",
		},
		{
			name:    "short password",
			path:    "/users",
			body:    map[string]any{"name": "Bob", "email": "bob@example.com", "password": "abc"},
			status:  http.StatusBadRequest,
			message: "",
		},
		{
			name:    "negative age",
			path:    "/users",
			body:    map[string]any{"name": "Bob", "email": "bob@example.com", "password": testPassword, "age": -1},
			status:  http.StatusBadRequest,
			message: "Invalid age: must be a positive number",
		},
		{
			name:    "malformed json",
			path:    "/users",
			body:    `{"name":`,
			status:  http.StatusBadRequest,
			message: "Invalid request format",
		},
		{
			name:    "unknown email",
			path:    "/users/login",
			body:    map[string]string{"email": "nobody@example.com", "password": testPassword},
			status:  http.StatusBadRequest,
			message: "Unable to login",
		},
		{
			name:    "wrong password",
			path:    "/users/login",
			body:    map[string]string{"email": "ann@example.com", "password": "wrong-pass"},
			status:  http.StatusBadRequest,
			message: "Unable to login",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(http.MethodPost, tt.path, "", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.message != "" {
				assertError(t, w, tt.status, tt.message)
			}
		})
	}
}

func TestTaskOwnership(t *testing.T) {
	ts := newTestServer(t, 1_000_000)
	ann, _ := ts.register("ann@example.com")
	bob, _ := ts.register("bob@example.com")

	task := ts.createTask(ann.Token, "Ann's task")
	path := "/tasks/" + task.ID.String()

	for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
		t.Run(method+" foreign task", func(t *testing.T) {
			var body any
			if method == http.MethodPatch {
				body = map[string]any{"completed": true}
			}
			w := ts.do(method, path, bob.Token, body)
			assertError(t, w, http.StatusNotFound, "Task not found")
		})
	}

	t.Run("foreign task is untouched", func(t *testing.T) {
		w := ts.do(http.MethodGet, path, ann.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var got api.TaskResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.False(t, got.Completed)
	})

	t.Run("listing is scoped to the caller", func(t *testing.T) {
		w := ts.do(http.MethodGet, "/tasks", bob.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decodeTasks(t, w))
	})

	t.Run("create ignores a client supplied owner", func(t *testing.T) {
		w := ts.do(http.MethodPost, "/tasks", bob.Token, map[string]any{
			"description": "Bob's task",
			"owner":       ann.User.ID.String(),
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var created api.TaskResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.Equal(t, bob.User.ID, created.Owner)

		w = ts.do(http.MethodGet, "/tasks/"+created.ID.String(), ann.Token, nil)
		assertError(t, w, http.StatusNotFound, "Task not found")

		w = ts.do(http.MethodGet, "/tasks", ann.Token, nil)
		for _, task := range decodeTasks(t, w) {
			assert.NotEqual(t, created.ID, task.ID)
		}
	})

	t.Run("malformed id", func(t *testing.T) {
		w := ts.do(http.MethodGet, "/tasks/not-a-uuid", ann.Token, nil)
		assertError(t, w, http.StatusNotFound, "Task not found")
	})

	t.Run("unauthenticated", func(t *testing.T) {
		w := ts.do(http.MethodGet, path, "", nil)
		assertError(t, w, http.StatusUnauthorized, "Please authenticate.")
	})
}

func TestUpdateTask(t *testing.T) {
	ts := newTestServer(t, 1_000_000)
	ann, _ := ts.register("ann@example.com")
	task := ts.createTask(ann.Token, "Buy milk")
	path := "/tasks/" + task.ID.String()

	t.Run("disallowed field rejects whole update", func(t *testing.T) {
		w := ts.do(http.MethodPatch, path, ann.Token, map[string]any{
			"completed": true,
			"owner":     uuid.New().String(),
		})
		assertError(t, w, http.StatusBadRequest, "Invalid updates")
		assert.Equal(t, 0, ts.tasks.UpdateCalls)
	})

	t.Run("wrong type", func(t *testing.T) {
		w := ts.do(http.MethodPatch, path, ann.Token, map[string]any{"completed": "yes"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("valid update", func(t *testing.T) {
		w := ts.do(http.MethodPatch, path, ann.Token, map[string]any{"completed": true, "description": "Buy oat milk"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var got api.TaskResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.True(t, got.Completed)
		assert.Equal(t, "Buy oat milk", got.Description)
		assert.Equal(t, task.ID, got.ID)
	})
}

func TestListTasksQuery(t *testing.T) {
	ts := newTestServer(t, 1_000_000)
	ann, _ := ts.register("ann@example.com")

	for _, d := range []string{"c", "a", "b"} {
		ts.createTask(ann.Token, d)
	}
	done := ts.createTask(ann.Token, "d")
	w := ts.do(http.MethodPatch, "/tasks/"+done.ID.String(), ann.Token, map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("filter completed", func(t *testing.T) {
		w := ts.do(http.MethodGet, "/tasks?completed=true", ann.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		tasks := decodeTasks(t, w)
		require.Len(t, tasks, 1)
		assert.Equal(t, done.ID, tasks[0].ID)
	})

	t.Run("sort and page", func(t *testing.T) {
		w := ts.do(http.MethodGet, "/tasks?completed=false&sortBy=description:desc&limit=2&skip=1", ann.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		tasks := decodeTasks(t, w)
		require.Len(t, tasks, 2)
		assert.Equal(t, "b", tasks[0].Description)
		assert.Equal(t, "a", tasks[1].Description)
	})

	t.Run("invalid parameters", func(t *testing.T) {
		for _, q := range []string{"limit=-1", "skip=x", "completed=maybe", "sortBy=owner:asc"} {
			w := ts.do(http.MethodGet, "/tasks?"+q, ann.Token, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, q)
		}
	})
}

func TestDeleteTask(t *testing.T) {
	ts := newTestServer(t, 1_000_000)
	ann, _ := ts.register("ann@example.com")
	task := ts.createTask(ann.Token, "Buy milk")
	path := "/tasks/" + task.ID.String()

	w := ts.do(http.MethodDelete, path, ann.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var deleted api.TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &deleted))
	assert.Equal(t, task.ID, deleted.ID)

	w = ts.do(http.MethodDelete, path, ann.Token, nil)
	assertError(t, w, http.StatusNotFound, "Task not found")
}

func TestProfile(t *testing.T) {
	ts := newTestServer(t, 1_000_000)
	ann, _ := ts.register("ann@example.com")
	ts.register("bob@example.com")

	t.Run("update", func(t *testing.T) {
		w := ts.do(http.MethodPatch, "/users/me", ann.Token, map[string]any{"name": "Annie", "age": 31})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var me api.UserResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
		assert.Equal(t, "Annie", me.Name)
		assert.Equal(t, 31, me.Age)
	})

	t.Run("disallowed field", func(t *testing.T) {
		w := ts.do(http.MethodPatch, "/users/me", ann.Token, map[string]any{"name": "X", "tokens": []string{}})
		assertError(t, w, http.StatusBadRequest, "Invalid updates")
	})

	t.Run("email taken", func(t *testing.T) {
		w := ts.do(http.MethodPatch, "/users/me", ann.Token, map[string]any{"email": "bob@example.com"})
		assertError(t, w, http.StatusConflict, "Email already exists")
	})

	t.Run("password change", func(t *testing.T) {
		w := ts.do(http.MethodPatch, "/users/me", ann.Token, map[string]any{"password": "n3w-secret"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		assert.Equal(t, http.StatusBadRequest, ts.login("ann@example.com", testPassword).Code)
		assert.Equal(t, http.StatusOK, ts.login("ann@example.com", "n3w-secret").Code)
	})
}

func TestDeleteAccount(t *testing.T) {
	ts := newTestServer(t, 1_000_000)
	ann, _ := ts.register("ann@example.com")
	ts.createTask(ann.Token, "one")
	ts.createTask(ann.Token, "two")

	ts.sqlMock.ExpectBegin()
	ts.sqlMock.ExpectCommit()

	w := ts.do(http.MethodDelete, "/users/me", ann.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var deleted api.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &deleted))
	assert.Equal(t, ann.User.ID, deleted.ID)
	assert.Equal(t, 0, ts.tasks.Count(ann.User.ID))
	assert.NoError(t, ts.sqlMock.ExpectationsWereMet())

	w = ts.do(http.MethodGet, "/users/me", ann.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.Equal(t, http.StatusBadRequest, ts.login("ann@example.com", testPassword).Code)
}

func pngBytes(t *testing.T, size int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// inflatedPNG returns a small PNG whose header declares w x h pixels.
func inflatedPNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	out := pngBytes(t, 4)
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func (ts *testServer) uploadAvatar(token, filename string, data []byte) *httptest.ResponseRecorder {
	ts.t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(api.AvatarFormField, filename)
	require.NoError(ts.t, err)
	_, err = part.Write(data)
	require.NoError(ts.t, err)
	require.NoError(ts.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/users/me/avatar", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func TestAvatar(t *testing.T) {
	ts := newTestServer(t, 50_000)
	ann, _ := ts.register("ann@example.com")
	avatarPath := "/users/" + ann.User.ID.String() + "/avatar"

	t.Run("missing before upload", func(t *testing.T) {
		w := ts.do(http.MethodGet, avatarPath, "", nil)
		assertError(t, w, http.StatusNotFound, "Avatar not found")
	})

	t.Run("upload and fetch publicly", func(t *testing.T) {
		w := ts.uploadAvatar(ann.Token, "me.png", pngBytes(t, 40))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = ts.do(http.MethodGet, avatarPath, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

		img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, 16, img.Bounds().Dx())
		assert.Equal(t, 16, img.Bounds().Dy())
	})

	t.Run("wrong extension", func(t *testing.T) {
		w := ts.uploadAvatar(ann.Token, "me.gif", pngBytes(t, 4))
		assertError(t, w, http.StatusBadRequest, "Please upload an image with these formats: jpg, jpeg or png")
	})

	t.Run("not an image", func(t *testing.T) {
		w := ts.uploadAvatar(ann.Token, "me.jpg", []byte("definitely not a jpeg"))
		assertError(t, w, http.StatusBadRequest, "Please upload an image with these formats: jpg, jpeg or png")
	})

	t.Run("declared dimensions too large", func(t *testing.T) {
		payload := inflatedPNG(t, 60000, 60000)
		require.Less(t, len(payload), 1000)

		w := ts.uploadAvatar(ann.Token, "bomb.png", payload)
		assertError(t, w, http.StatusBadRequest, "Please upload an image with these formats: jpg, jpeg or png")
	})

	t.Run("too large", func(t *testing.T) {
		w := ts.uploadAvatar(ann.Token, "big.png", bytes.Repeat([]byte{0xff}, 60_000))
		assertError(t, w, http.StatusBadRequest, "File too large")
	})

	t.Run("missing file field", func(t *testing.T) {
		w := ts.do(http.MethodPost, "/users/me/avatar", ann.Token, map[string]string{"avatar": "x"})
		assertError(t, w, http.StatusBadRequest, "Please upload an image")
	})

	t.Run("requires authentication", func(t *testing.T) {
		w := ts.uploadAvatar("", "me.png", pngBytes(t, 4))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := ts.do(http.MethodDelete, "/users/me/avatar", ann.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = ts.do(http.MethodGet, avatarPath, "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed user id", func(t *testing.T) {
		w := ts.do(http.MethodGet, "/users/nope/avatar", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestMeRequiresAuthentication(t *testing.T) {
	ts := newTestServer(t, 1_000_000)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/users/me"},
		{http.MethodPatch, "/users/me"},
		{http.MethodDelete, "/users/me"},
		{http.MethodPost, "/users/logout"},
		{http.MethodPost, "/users/logoutAll"},
		{http.MethodDelete, "/users/me/avatar"},
		{http.MethodPost, "/tasks"},
		{http.MethodGet, "/tasks"},
	} {
		w := ts.do(tc.method, tc.path, "bogus", nil)
		assertError(t, w, http.StatusUnauthorized, "Please authenticate.")
	}
}
