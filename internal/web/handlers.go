package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mwolter/assetdump/pkg/buildinfo"
	"github.com/mwolter/assetdump/pkg/errors"
	"github.com/mwolter/assetdump/pkg/pipeline"
)

// dumpRequest is the POST /v1/dump body. It is a subset of pipeline.Options:
// the store backend is fixed at server startup and cannot be chosen per
// request.
type dumpRequest struct {
	File      int64    `json:"file"`
	Root      int64    `json:"root,omitempty"`
	Fields    []string `json:"fields"`
	MaxDepth  int      `json:"max_depth,omitempty"`
	RefTokens bool     `json:"ref_tokens,omitempty"`
	Refresh   bool     `json:"refresh,omitempty"`
	Formats   []string `json:"formats,omitempty"`
	Detailed  bool     `json:"detailed,omitempty"`
}

type dumpResponse struct {
	ID        string          `json:"id"`
	Document  json.RawMessage `json:"document"`
	Unmatched []string        `json:"unmatched,omitempty"`
	DOT       string          `json:"dot,omitempty"`
	SVG       []byte          `json:"svg,omitempty"` // base64 in JSON
	Stats     dumpStats       `json:"stats"`
	Cache     cacheInfo       `json:"cache"`
}

type dumpStats struct {
	Objects  int   `json:"objects"`
	LoadMS   int64 `json:"load_ms"`
	DumpMS   int64 `json:"dump_ms"`
	RenderMS int64 `json:"render_ms"`
}

type cacheInfo struct {
	PackageHit bool `json:"package_hit"`
	RenderHit  bool `json:"render_hit"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) handleDump(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	var req dumpRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse request"))
		return
	}

	result, err := s.runner.Execute(r.Context(), pipeline.Options{
		Loader:    s.loader,
		File:      req.File,
		Root:      req.Root,
		Fields:    req.Fields,
		MaxDepth:  req.MaxDepth,
		RefTokens: req.RefTokens,
		Refresh:   req.Refresh,
		Formats:   req.Formats,
		Detailed:  req.Detailed,
		Logger:    s.logger,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := dumpResponse{
		ID:        result.RunID,
		Document:  json.RawMessage(result.Document),
		Unmatched: result.Unmatched,
		DOT:       string(result.Artifacts[pipeline.FormatDOT]),
		SVG:       result.Artifacts[pipeline.FormatSVG],
		Stats: dumpStats{
			Objects:  result.Stats.Objects,
			LoadMS:   result.Stats.LoadTime.Milliseconds(),
			DumpMS:   result.Stats.DumpTime.Milliseconds(),
			RenderMS: result.Stats.RenderTime.Milliseconds(),
		},
		Cache: cacheInfo{
			PackageHit: result.CacheInfo.PackageHit,
			RenderHit:  result.CacheInfo.RenderHit,
		},
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleFile returns the raw package bytes for a file ID.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	fileID, err := strconv.ParseInt(chi.URLParam(r, "fileID"), 10, 64)
	if err != nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "file ID must be an integer"))
		return
	}

	data, err := s.loader.LoadPackage(r.Context(), fileID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
		"built":   buildinfo.Date,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "error", err)
	}
	s.writeJSON(w, status, errorResponse{
		Error: errors.UserMessage(err),
		Code:  string(code),
	})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidProfile,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath,
		errors.ErrCodeMaxDepthExceeded:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeAssetNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
