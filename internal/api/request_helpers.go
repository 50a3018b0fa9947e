package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/api/middleware"
	"github.com/phrazzld/tasker-api/internal/api/shared"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/service"
	"github.com/phrazzld/tasker-api/internal/store"
)

// sortFields maps the sortBy names clients may send to task columns. The
// names match the JSON keys of TaskResponse.
var sortFields = map[string]store.TaskSortField{
	"created_at":  store.SortByCreatedAt,
	"updated_at":  store.SortByUpdatedAt,
	"description": store.SortByDescription,
	"completed":   store.SortByCompleted,
}

// requireUser returns the authenticated user and token, writing a 401 when
// the route was reached without the auth middleware having run.
func requireUser(w http.ResponseWriter, r *http.Request) (*domain.User, string, bool) {
	user, ok := middleware.GetUser(r)
	if !ok {
		HandleAPIError(w, r, service.ErrUnauthenticated, "")
		return nil, "", false
	}
	token, _ := middleware.GetToken(r)
	return user, token, true
}

// requireUserID is requireUser for handlers that only need the owner ID.
func requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		HandleAPIError(w, r, service.ErrUnauthenticated, "")
		return uuid.Nil, false
	}
	return userID, true
}

// getPathUUID extracts a UUID from the URL path parameters. A missing or
// malformed value is reported as notFound, so it looks the same as an
// unknown ID.
func getPathUUID(r *http.Request, paramName string, notFound error) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, notFound
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s", notFound, domain.ErrInvalidID)
	}

	return id, nil
}

// parseTaskQuery reads the completed, limit, skip and sortBy parameters of a
// task listing. The owner is filled in by the service.
func parseTaskQuery(values url.Values) (store.TaskQuery, error) {
	var query store.TaskQuery

	if raw := values.Get("completed"); raw != "" {
		switch raw {
		case "true":
			completed := true
			query.Completed = &completed
		case "false":
			completed := false
			query.Completed = &completed
		default:
			return query, domain.NewValidationError("completed", "must be true or false", nil)
		}
	}

	var err error
	if query.Limit, err = parseNonNegative(values, "limit"); err != nil {
		return query, err
	}
	if query.Skip, err = parseNonNegative(values, "skip"); err != nil {
		return query, err
	}

	if raw := values.Get("sortBy"); raw != "" {
		name, direction, _ := strings.Cut(raw, ":")
		field, ok := sortFields[name]
		if !ok {
			return query, domain.NewValidationError("sortBy", "has an unknown field", nil)
		}
		query.SortField = field
		query.SortDesc = direction == "desc"
	}

	return query, nil
}

func parseNonNegative(values url.Values, name string) (int, error) {
	raw := values.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.NewValidationError(name, "must be a non-negative integer", nil)
	}
	return n, nil
}

// decodeAndValidate decodes a JSON body into req and validates it, writing a
// 400 response on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := shared.DecodeJSON(r, req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, msgInvalidRequestBody, err)
		return false
	}
	if err := shared.ValidateRequest(req); err != nil {
		HandleAPIError(w, r, err, "")
		return false
	}
	return true
}
