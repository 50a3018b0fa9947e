package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/phrazzld/tasker-api/internal/api/shared"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/store"
)

// AvatarFormField is the multipart field carrying the uploaded image.
const AvatarFormField = "avatar"

// multipartOverhead leaves room for boundaries and part headers around the file.
const multipartOverhead = 64 << 10

var avatarExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// UploadAvatar handles POST /users/me/avatar.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user, _, ok := requireUser(w, r)
	if !ok {
		return
	}
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxAvatarBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxAvatarBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			shared.RespondWithError(w, r, http.StatusBadRequest, msgAvatarTooLarge)
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, msgAvatarRequired, err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(AvatarFormField)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, msgAvatarRequired)
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > h.maxAvatarBytes {
		shared.RespondWithError(w, r, http.StatusBadRequest, msgAvatarTooLarge)
		return
	}
	if !avatarExtensions[strings.ToLower(filepath.Ext(header.Filename))] {
		shared.RespondWithError(w, r, http.StatusBadRequest, msgUnsupportedAvatar)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxAvatarBytes+1))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to read avatar")
		return
	}
	if int64(len(data)) > h.maxAvatarBytes {
		shared.RespondWithError(w, r, http.StatusBadRequest, msgAvatarTooLarge)
		return
	}

	if err := h.users.SetAvatar(r.Context(), user.ID, data); err != nil {
		HandleAPIError(w, r, err, "Failed to save avatar")
		return
	}

	log.Info("avatar uploaded",
		slog.String("user_id", user.ID.String()),
		slog.Int("bytes", len(data)))
	w.WriteHeader(http.StatusOK)
}

// DeleteAvatar handles DELETE /users/me/avatar.
func (h *UserHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	user, _, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.users.DeleteAvatar(r.Context(), user.ID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete avatar")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// GetAvatar handles the public GET /users/{id}/avatar. Stored avatars are
// always PNG.
func (h *UserHandler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	userID, err := getPathUUID(r, "id", store.ErrUserNotFound)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	data, err := h.users.Avatar(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load avatar")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logger.FromContextOrDefault(r.Context(), h.logger).Debug("failed to write avatar",
			slog.String("error", err.Error()))
	}
}
