package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/codeGROOVE-dev/cpcompare/pkg/cpcompare"
	"github.com/codeGROOVE-dev/cpcompare/pkg/profile"
	"github.com/codeGROOVE-dev/cpcompare/pkg/session"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error string            `json:"error"`
	Kind  profile.ErrorKind `json:"kind,omitempty"`
}

type compareRequest struct {
	User1 profile.Handles `json:"user1"`
	User2 profile.Handles `json:"user2"`
}

type savedResponse struct {
	ClientID string         `json:"clientId"`
	Pairs    []session.Pair `json:"pairs"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errchkjson // response already committed
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeFetchError(w http.ResponseWriter, fe *profile.FetchError) {
	status := http.StatusBadGateway
	switch fe.Kind {
	case profile.KindValidation:
		status = http.StatusBadRequest
	case profile.KindNotFound:
		status = http.StatusNotFound
	case profile.KindUpstreamUnavailable:
	}
	msg := fe.Error()
	if fe.Err != nil {
		msg = fe.Err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg, Kind: fe.Kind})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// pathTarget reads and checks the {platform}/{username} route variables.
func pathTarget(r *http.Request) (profile.Platform, string, error) {
	vars := mux.Vars(r)
	p, ok := profile.ParsePlatform(vars["platform"])
	if !ok {
		return "", "", fmt.Errorf("unsupported platform %q", vars["platform"])
	}
	username := strings.TrimSpace(vars["username"])
	if username == "" {
		return "", "", errors.New("username is required")
	}
	return p, username, nil
}

func (*Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	p, username, err := pathTarget(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res := s.profiles.Fetch(r.Context(), p, username)
	if fe := res.Err(); fe != nil {
		writeFetchError(w, fe)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleProfileMetrics(w http.ResponseWriter, r *http.Request) {
	p, username, err := pathTarget(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sum, err := s.profiles.Summarize(r.Context(), p, username)
	if fe := sum.Result.Err(); fe != nil {
		writeFetchError(w, fe)
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "metric extraction failed", "platform", p, "username", username, "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("could not derive metrics"))
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cmp, err := s.profiles.Compare(r.Context(), req.User1, req.User2)
	if errors.Is(err, cpcompare.ErrNoUsernames) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "comparison failed", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("comparison failed"))
		return
	}
	s.metrics.ComparisonDone()
	writeJSON(w, http.StatusOK, cmp)
}

func (s *Server) handleListSaved(w http.ResponseWriter, r *http.Request) {
	id := clientID(w, r)
	pairs, err := s.sessions.List(r.Context(), id)
	if err != nil {
		s.writeSessionError(w, r, err)
		return
	}
	s.metrics.SavedPairOp("list")
	writeJSON(w, http.StatusOK, savedResponse{ClientID: id, Pairs: pairs})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	id := clientID(w, r)
	var pair session.Pair
	if err := decodeJSON(r, &pair); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pairs, err := s.sessions.Save(r.Context(), id, pair)
	if err != nil {
		s.writeSessionError(w, r, err)
		return
	}
	s.metrics.SavedPairOp("save")
	writeJSON(w, http.StatusCreated, savedResponse{ClientID: id, Pairs: pairs})
}

func (s *Server) handleDeleteSaved(w http.ResponseWriter, r *http.Request) {
	id := clientID(w, r)
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid index: %w", err))
		return
	}
	pairs, err := s.sessions.Delete(r.Context(), id, index)
	if err != nil {
		s.writeSessionError(w, r, err)
		return
	}
	s.metrics.SavedPairOp("delete")
	writeJSON(w, http.StatusOK, savedResponse{ClientID: id, Pairs: pairs})
}

func (s *Server) writeSessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrEmptyPair), errors.Is(err, session.ErrNoClient):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, session.ErrDuplicatePair):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, session.ErrIndexOutOfRange):
		writeError(w, http.StatusNotFound, err)
	default:
		s.logger.ErrorContext(r.Context(), "saved pair store failed", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("saved pairs unavailable"))
	}
}
