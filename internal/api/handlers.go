package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"logreader/internal/resolver"
	"logreader/internal/search"
)

type searchResponse struct {
	SN         string             `json:"sn"`
	PN         string             `json:"pn"`
	Candidates []search.Candidate `json:"candidates"`
}

// handleSearch runs a search. Without a pn parameter the product code is
// resolved first.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sn := strings.TrimSpace(q.Get("sn"))
	pn := strings.TrimSpace(q.Get("pn"))
	if sn == "" {
		jsonError(w, "sn query parameter is required", http.StatusBadRequest)
		return
	}

	if pn == "" {
		resolved, code, err := s.resolve(r.Context(), sn)
		if err != nil {
			jsonError(w, "resolve product code: "+err.Error(), code)
			return
		}
		pn = resolved
	}

	cands, err := s.searcher.Search(r.Context(), s.roots, pn, sn)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, search.ErrInvalidProduct) || errors.Is(err, search.ErrMissingQuery) {
			code = http.StatusBadRequest
		}
		jsonError(w, err.Error(), code)
		return
	}
	search.SortByRecency(cands)

	if s.history != nil {
		if err := s.history.RecordSearch(sn, pn, len(cands)); err != nil {
			s.log.Warn("record search failed", zap.String("sn", sn), zap.Error(err))
		}
	}

	if cands == nil {
		cands = []search.Candidate{}
	}
	writeJSON(w, searchResponse{SN: sn, PN: pn, Candidates: cands})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	sn := strings.TrimSpace(r.URL.Query().Get("sn"))
	if sn == "" {
		jsonError(w, "sn query parameter is required", http.StatusBadRequest)
		return
	}
	pn, code, err := s.resolve(r.Context(), sn)
	if err != nil {
		jsonError(w, err.Error(), code)
		return
	}
	writeJSON(w, map[string]string{"sn": sn, "pn": pn})
}

type historyEntry struct {
	SN         string `json:"sn"`
	PN         string `json:"pn"`
	Results    int    `json:"results"`
	SearchedAt string `json:"searched_at"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		jsonError(w, "history unavailable", http.StatusServiceUnavailable)
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	searches, err := s.history.RecentSearches(limit)
	if err != nil {
		jsonError(w, "failed to read history: "+err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]historyEntry, 0, len(searches))
	for _, h := range searches {
		out = append(out, historyEntry{
			SN:         h.SN,
			PN:         h.PN,
			Results:    h.Results,
			SearchedAt: h.SearchedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	writeJSON(w, map[string]any{"searches": out})
}

// resolve maps resolver failures to status codes.
func (s *Server) resolve(ctx context.Context, sn string) (string, int, error) {
	if s.resolver == nil {
		return "", http.StatusServiceUnavailable, resolver.ErrUnavailable
	}
	pn, err := s.resolver.Resolve(ctx, sn)
	switch {
	case err == nil:
		return pn, http.StatusOK, nil
	case errors.Is(err, resolver.ErrNotResolved):
		return "", http.StatusNotFound, err
	case errors.Is(err, resolver.ErrUnavailable):
		return "", http.StatusServiceUnavailable, err
	default:
		return "", http.StatusBadGateway, err
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
