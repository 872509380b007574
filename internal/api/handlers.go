package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/dispatch"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/skill"
)

// imageSkill needs an uploaded image file.
const imageSkill = "sharaba"

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Skills:        len(s.registry.Names()),
	})
}

// handleExecuteSkill handles POST /execute_skill.
func (s *Server) handleExecuteSkill(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadSize)
	if err := s.parseForm(r); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid form data: %v", err))
		return
	}

	name := r.FormValue("skill")
	if name == "" {
		s.writeError(w, http.StatusBadRequest, "Skill name is required.")
		return
	}

	argsMap, err := DecodeArgs(r.FormValue("args"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON in args field.")
		return
	}

	if !s.registry.Has(name) {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown skill: %s", name))
		return
	}

	if name == imageSkill {
		path, err := s.saveUpload(r, "image")
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				s.writeError(w, http.StatusBadRequest, "Image file is required for sharaba skill.")
				return
			}
			s.logger.Error("failed to store upload", "error", err)
			s.writeError(w, http.StatusInternalServerError, "failed to store uploaded image")
			return
		}
		defer func() {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				s.logger.Warn("failed to remove uploaded image", "path", path, "error", err)
			}
		}()
		argsMap["image_path"] = path
	}

	argv, err := ArgsToArgv(argsMap)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := dispatch.WithSession(r.Context(), uuid.NewString())
	out, err := s.exec.Output(ctx, name, argv)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("skill failed", "skill", name, "kind", skill.KindOf(err).String(), "error", err)
		}
		s.writeError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, ExecuteResponse{Output: out})
}

func (s *Server) parseForm(r *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return r.ParseMultipartForm(s.config.MaxUploadSize)
	}
	return r.ParseForm()
}

// saveUpload copies the named multipart file into a temp file and returns its path.
func (s *Server) saveUpload(r *http.Request, field string) (string, error) {
	if r.MultipartForm == nil {
		return "", http.ErrMissingFile
	}
	src, header, err := r.FormFile(field)
	if err != nil {
		return "", err
	}
	defer src.Close()

	ext := filepath.Ext(header.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	dst, err := os.CreateTemp("", "pai-upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return dst.Name(), nil
}

// statusFor maps a skill failure to an HTTP status.
func statusFor(err error) int {
	if errors.Is(err, skill.ErrUnknownCommand) || skill.KindOf(err) == skill.KindUsage {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// handleEvents handles GET /events?since=N.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	since := parseSince(r.URL.Query().Get("since"))
	respondJSON(w, http.StatusOK, EventsResponse{Events: s.events.SnapshotSince(since)})
}

func parseSince(v string) int64 {
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}
