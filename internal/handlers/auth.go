package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/uploads"
)

const maxUploadMemory = 32 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// AuthHandler implements the user account and session endpoints.
type AuthHandler struct {
	Sessions  SessionService
	Uploads   AssetUploader
	Limiter   RateLimiter
	UploadDir string
}

type userPayload struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toUserPayload(user models.User) userPayload {
	return userPayload{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		FullName:   user.FullName,
		Avatar:     user.Avatar,
		CoverImage: user.CoverImage,
		CreatedAt:  user.CreatedAt,
	}
}

type registerForm struct {
	Username string `validate:"required"`
	Email    string `validate:"required,email"`
	FullName string `validate:"required"`
	Password string `validate:"required,min=8"`
}

// Register handles POST /api/v1/users/register requests. The avatar file is
// required and must upload successfully before the account is created.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil || h.Uploads == nil {
		logger.Error("registration dependencies unavailable", "hasSessions", h.Sessions != nil, "hasUploads", h.Uploads != nil)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "registration services unavailable"})
		return
	}

	if !allowRequest(h.Limiter, r, "register") {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		logger.Warn("invalid register payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	form := registerForm{
		Username: strings.TrimSpace(r.FormValue("username")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		FullName: strings.TrimSpace(r.FormValue("fullName")),
		Password: r.FormValue("password"),
	}
	if err := validate.Struct(form); err != nil {
		logger.Warn("register validation failed", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "all fields are required and email must be valid"})
		return
	}

	avatarPath, err := receiveFile(r, "avatar", h.UploadDir)
	if err != nil {
		logger.Warn("receive avatar", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "avatar file is required"})
		return
	}
	if avatarPath == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "avatar file is required"})
		return
	}
	defer os.Remove(avatarPath)

	input := uploads.NamedFileSet{Avatar: uploads.SingleFile{Field: "avatar", Path: avatarPath}}

	coverPath, err := receiveFile(r, "coverImage", h.UploadDir)
	if err != nil {
		logger.Warn("receive cover image", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid cover image file"})
		return
	}
	if coverPath != "" {
		defer os.Remove(coverPath)
		input.CoverImage = &uploads.SingleFile{Field: "coverImage", Path: coverPath}
	}

	result, err := h.Uploads.Upload(ctx, input)
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	user, err := h.Sessions.Register(ctx, auth.RegisterInput{
		Username:   form.Username,
		Email:      form.Email,
		FullName:   form.FullName,
		Password:   form.Password,
		Avatar:     result.Avatar,
		CoverImage: result.CoverImage,
	})
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]any{"user": toUserPayload(user)})
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User         userPayload `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// Login handles POST /api/v1/users/login requests. The identifier may be a
// username or an email address.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session service unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "authentication services unavailable"})
		return
	}

	if !allowRequest(h.Limiter, r, "login") {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	identifier := strings.TrimSpace(req.Username)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Email)
	}
	if identifier == "" || req.Password == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username or email and password are required"})
		return
	}

	user, tokens, err := h.Sessions.Login(ctx, identifier, req.Password)
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	setSessionCookies(w, tokens)
	respondJSON(ctx, w, http.StatusOK, sessionResponse{
		User:         toUserPayload(user),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// Logout handles POST /api/v1/users/logout requests.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	if err := h.Sessions.Logout(ctx, identity.UserID); err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	clearSessionCookies(w)
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "logged out"})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh handles POST /api/v1/users/refresh-token requests. The refresh
// token is accepted from the cookie side channel or the request body.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session service unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "session service unavailable"})
		return
	}

	if !allowRequest(h.Limiter, r, "refresh") {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	token := ""
	if cookie, err := r.Cookie("refreshToken"); err == nil {
		token = cookie.Value
	}
	if token == "" && r.Body != nil {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			token = strings.TrimSpace(req.RefreshToken)
		}
	}

	tokens, err := h.Sessions.Refresh(ctx, token)
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	setSessionCookies(w, tokens)
	respondJSON(ctx, w, http.StatusOK, tokens)
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// ChangePassword handles POST /api/v1/users/change-password requests.
func (h AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "old and new passwords are required"})
		return
	}

	if err := h.Sessions.ChangePassword(ctx, identity.UserID, req.OldPassword, req.NewPassword); err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "password changed"})
}

// CurrentUser handles GET /api/v1/users/me requests.
func (h AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	user, err := h.Sessions.CurrentUser(ctx, identity.UserID)
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"user": toUserPayload(user)})
}

type updateAccountRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

// UpdateAccount handles PATCH /api/v1/users/update-account requests.
func (h AuthHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "full name and a valid email are required"})
		return
	}

	user, err := h.Sessions.UpdateProfile(ctx, identity.UserID, req.FullName, req.Email)
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"user": toUserPayload(user)})
}

// UpdateAvatar handles PATCH /api/v1/users/avatar requests.
func (h AuthHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", h.Sessions.UpdateAvatar)
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image requests.
func (h AuthHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", h.Sessions.UpdateCoverImage)
}

func (h AuthHandler) updateImage(w http.ResponseWriter, r *http.Request, field string, apply func(ctx context.Context, userID, url string) (models.User, error)) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		logger.Warn("invalid image payload", "field", field, "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	path, err := receiveFile(r, field, h.UploadDir)
	if err != nil || path == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("%s file is required", field)})
		return
	}
	defer os.Remove(path)

	result, err := h.Uploads.Upload(ctx, uploads.SingleFile{Field: field, Path: path})
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	user, err := apply(ctx, identity.UserID, result.URL)
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"user": toUserPayload(user)})
}

// receiveFile copies the named multipart file to a temporary path in the
// upload directory. A missing file is ("", nil) so optional uploads stay
// optional.
func receiveFile(r *http.Request, field, dir string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil
		}
		return "", fmt.Errorf("read %s file: %w", field, err)
	}
	defer file.Close()

	return saveTempUpload(dir, field, header, file)
}

func saveTempUpload(dir, field string, header *multipart.FileHeader, file multipart.File) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}

	tmp, err := os.CreateTemp(dir, field+"-*"+filepath.Ext(header.Filename))
	if err != nil {
		return "", fmt.Errorf("create temp upload: %w", err)
	}

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write temp upload: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp upload: %w", err)
	}

	return tmp.Name(), nil
}

func setSessionCookies(w http.ResponseWriter, tokens models.SessionTokens) {
	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    tokens.AccessToken,
		Path:     "/",
		Expires:  tokens.AccessExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refreshToken",
		Value:    tokens.RefreshToken,
		Path:     "/",
		Expires:  tokens.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{"accessToken", "refreshToken"} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}
