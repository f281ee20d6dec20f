package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"auto_repost_youtube/config"
	"auto_repost_youtube/internal/domain"
	"auto_repost_youtube/internal/logger"
	"auto_repost_youtube/internal/usecase"
)

// Server exposes a lightweight REST API for queue visibility and explicit
// publish/retry actions.
type Server struct {
	cfg       *config.Config
	publisher *usecase.Publisher
	quota     *usecase.QuotaTracker
	videoRepo domain.VideoRepository
	server    *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(cfg *config.Config, publisher *usecase.Publisher, quota *usecase.QuotaTracker, videoRepo domain.VideoRepository) *Server {
	mux := http.NewServeMux()
	s := &Server{
		cfg:       cfg,
		publisher: publisher,
		quota:     quota,
		videoRepo: videoRepo,
	}

	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/videos", s.handleVideos)
	mux.HandleFunc("/api/videos/", s.handleVideoActions)
	mux.HandleFunc("/api/videos/metrics", s.handleVideoMetrics)
	mux.HandleFunc("/api/quota", s.handleQuota)

	s.server = &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: loggingMiddleware(mux),
	}
	return s
}

// Start begins serving HTTP requests in a separate goroutine.
func (s *Server) Start() error {
	if s.cfg.ServerPort == "" {
		return fmt.Errorf("server port is not configured")
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("http api server stopped with error: %v", err)
		}
	}()
	logger.Infof("HTTP API server listening on %s", s.server.Addr)
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleVideos lists a user's videos, optionally filtered by status.
func (s *Server) handleVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	status := domain.VideoStatus(r.URL.Query().Get("status"))
	switch status {
	case "", domain.VideoStatusPending, domain.VideoStatusScheduled, domain.VideoStatusPosted, domain.VideoStatusFailed:
	default:
		respondError(w, http.StatusBadRequest, "unknown status")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			if parsed > 100 {
				parsed = 100
			}
			limit = parsed
		}
	}

	videos, err := s.videoRepo.ListByUser(userID, status, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make([]*videoResponse, 0, len(videos))
	for _, video := range videos {
		resp = append(resp, toVideoResponse(video))
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"videos": resp,
		"count":  len(resp),
	})
}

// handleVideoActions routes /api/videos/{id}/publish and /api/videos/{id}/retry.
func (s *Server) handleVideoActions(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/videos/")
	if path == "" || path == "metrics" {
		http.NotFound(w, r)
		return
	}

	parts := strings.Split(path, "/")
	if len(parts) != 2 || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	videoID := parts[0]

	var payload struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	switch parts[1] {
	case "publish":
		if err := s.publisher.PublishVideo(r.Context(), payload.UserID, videoID); err != nil {
			respondPublishError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "posted"})
	case "retry":
		if err := s.publisher.RetryVideo(payload.UserID, videoID); err != nil {
			respondPublishError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "pending"})
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleVideoMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	counts, err := s.videoRepo.CountByStatus()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make(map[string]int, len(counts))
	for status, count := range counts {
		resp[string(status)] = count
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleQuota reports a user's posted-today count.
func (s *Server) handleQuota(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	posted, err := s.quota.PostedTodayCount(userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":      userID,
		"posted_today": posted,
		"daily_limit":  s.cfg.DailyVideoLimit,
	})
}

// respondPublishError maps the publish error classes onto HTTP statuses.
func respondPublishError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyPosted), errors.Is(err, domain.ErrPublishInProgress):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrQuotaExceeded):
		respondError(w, http.StatusTooManyRequests, err.Error())
	case domain.ConfigProblem(err):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrDownload), errors.Is(err, domain.ErrUpload):
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Infof("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

type videoResponse struct {
	ID                   string     `json:"id"`
	VideoID              string     `json:"video_id"`
	Title                string     `json:"title"`
	Status               string     `json:"status"`
	ScheduledAt          *time.Time `json:"scheduled_at,omitempty"`
	PostedAt             *time.Time `json:"posted_at,omitempty"`
	DestinationChannelID string     `json:"destination_channel_id,omitempty"`
	DestinationVideoID   string     `json:"destination_video_id,omitempty"`
	ErrorMessage         string     `json:"error_message,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func toVideoResponse(video *domain.Video) *videoResponse {
	return &videoResponse{
		ID:                   video.ID,
		VideoID:              video.VideoID,
		Title:                video.Title,
		Status:               string(video.Status),
		ScheduledAt:          video.ScheduledAt,
		PostedAt:             video.PostedAt,
		DestinationChannelID: video.DestinationChannelID,
		DestinationVideoID:   video.DestinationVideoID,
		ErrorMessage:         video.ErrorMessage,
		CreatedAt:            video.CreatedAt,
		UpdatedAt:            video.UpdatedAt,
	}
}
