package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"filedrop-backend/internal/logger"
	"filedrop-backend/internal/models"
	"filedrop-backend/internal/service"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"
)

// maxPathFieldBytes caps the size of the optional "path" multipart field.
const maxPathFieldBytes = 4096

// Pinger is the database round trip behind /ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options carries the HTTP-level settings taken from config.Config.
type Options struct {
	// MaxUploadBytes limits request bodies of /files/upload. 0 means unlimited.
	MaxUploadBytes int64
	// ExposeErrors puts internal error detail into 500 responses.
	ExposeErrors       bool
	CORSAllowedOrigins []string
	// AuthRateLimit is requests per second per client IP on /auth and
	// /register. 0 disables limiting.
	AuthRateLimit float64
	AuthRateBurst int
}

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	userService *service.UserService
	fileService *service.FileService
	db          Pinger
	validate    *validator.Validate
	opts        Options
	authLimiter *ipLimiter
}

// NewHandler creates a Handler.
func NewHandler(userSvc *service.UserService, fileSvc *service.FileService, db Pinger, opts Options) *Handler {
	h := &Handler{
		userService: userSvc,
		fileService: fileSvc,
		db:          db,
		validate:    validator.New(),
		opts:        opts,
	}
	if opts.AuthRateLimit > 0 {
		h.authLimiter = newIPLimiter(rate.Limit(opts.AuthRateLimit), opts.AuthRateBurst)
	}
	return h
}

// === Response helpers ===

func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, map[string]interface{}{
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	})
}

func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Err("encoding JSON response: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"code":500,"message":"Internal error while encoding response"}}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func (h *Handler) respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	h.respondWithError(w, http.StatusUnauthorized, message)
}

// respondWithServiceError maps service errors to HTTP statuses.
func (h *Handler) respondWithServiceError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		h.respondWithError(w, http.StatusRequestEntityTooLarge, "File too large")
	case errors.Is(err, service.ErrDuplicateUsername):
		h.respondWithError(w, http.StatusBadRequest, "Username is already taken")
	case errors.Is(err, service.ErrInvalidCredentials):
		h.respondUnauthorized(w, "Incorrect username or password")
	case errors.Is(err, service.ErrUnauthorized):
		h.respondUnauthorized(w, "Could not validate credentials")
	case errors.Is(err, service.ErrBadRequest):
		h.respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		h.respondWithError(w, http.StatusNotFound, "File not found")
	default:
		msg := "Internal storage error"
		if h.opts.ExposeErrors {
			msg = err.Error()
		}
		h.respondWithError(w, http.StatusInternalServerError, msg)
	}
}

// === Response schemas ===

type (
	RegisterResponse struct {
		Username string `json:"username"`
		ID       int64  `json:"id"`
	}

	TokenResponse struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}

	FileListResponse struct {
		AccountID int64          `json:"account_id"`
		Files     []*models.File `json:"files"`
	}

	PingResponse struct {
		DB float64 `json:"db"`
	}
)

// === Account handlers ===

// handleRegister (POST /register)
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.userService.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, RegisterResponse{
		Username: user.Username,
		ID:       user.ID,
	})
}

// handleLogin (POST /auth), OAuth2 password-flow form body.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid form payload")
		return
	}

	req := struct {
		Username string `validate:"required"`
		Password string `validate:"required"`
	}{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	token, err := h.userService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// === File handlers ===

// handleListFiles (GET /files)
func (h *Handler) handleListFiles(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	files, err := h.fileService.List(r.Context(), user)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, FileListResponse{
		AccountID: user.ID,
		Files:     files,
	})
}

// handleUpload (POST /files/upload)
// The body is streamed part by part; a "path" form field is honoured only
// when it precedes the "file" part. The query parameter wins over both.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	if h.opts.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	}

	dir := r.URL.Query().Get("path")

	mr, err := r.MultipartReader()
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Expected a multipart/form-data body")
		return
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				h.respondWithError(w, http.StatusRequestEntityTooLarge, "File too large")
				return
			}
			h.respondWithError(w, http.StatusBadRequest, "Malformed multipart body")
			return
		}

		switch part.FormName() {
		case "path":
			if !r.URL.Query().Has("path") {
				b, err := io.ReadAll(io.LimitReader(part, maxPathFieldBytes))
				if err != nil {
					part.Close()
					h.respondWithError(w, http.StatusBadRequest, "Malformed multipart body")
					return
				}
				dir = string(b)
			}
			part.Close()

		case "file":
			meta, err := h.fileService.Upload(r.Context(), user, dir, part.FileName(), part)
			part.Close()
			if err != nil {
				h.respondWithServiceError(w, err)
				return
			}
			h.respondWithJSON(w, http.StatusOK, meta)
			return

		default:
			part.Close()
		}
	}

	h.respondWithError(w, http.StatusBadRequest, "Missing file field")
}

// handleDownload (GET /files/download?file_meta_id=... or ?path=...)
func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	q := r.URL.Query()

	file, rc, err := h.fileService.Open(r.Context(), user, q.Get("file_meta_id"), q.Get("path"))
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}
	defer rc.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": file.Name})
	if disposition == "" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	w.WriteHeader(http.StatusOK)

	if n, err := io.Copy(w, rc); err != nil {
		// Headers are already sent.
		logger.Warn("download of %s aborted after %d of %d bytes: %v", file.ID, n, file.Size, err)
	}
}

// === Health ===

// handlePing (GET /ping) reports the database round trip in seconds.
func (h *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := h.db.Ping(r.Context()); err != nil {
		logger.Err("ping: %v", err)
		h.respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondWithJSON(w, http.StatusOK, PingResponse{DB: time.Since(start).Seconds()})
}
