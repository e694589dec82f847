package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/buchstabensalat/salad/internal/game"
	"github.com/buchstabensalat/salad/internal/history"
	"github.com/buchstabensalat/salad/internal/store"
)

// historyKeyPrefix namespaces persisted word history per owner.
const historyKeyPrefix = "buchstabensalat-history:"

func (s *Server) mountGame(r chi.Router) {
	r.Route("/game", func(r chi.Router) {
		r.Post("/new", s.handleNewGame)
		r.With(s.limiter.middleware).Post("/move", s.handleMove)
		r.Post("/solution", s.handleSolution)
		r.Get("/{id}", s.handleGetGame)
	})
}

type gameReq struct {
	GameID string `json:"gameId"`
}

type moveReq struct {
	GameID string `json:"gameId"`
	From   int    `json:"from"`
	To     int    `json:"to"`
}

// handleNewGame deals a new puzzle. An unknown, missing or foreign gameId
// creates a session seeded with the owner's persisted history.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req gameReq
	_ = json.NewDecoder(r.Body).Decode(&req) // empty body is fine

	owner := s.ownerID(w, r)
	sess, err := s.sessions.Get(r.Context(), req.GameID)
	if err != nil || sess.OwnerID != owner {
		hist := history.Load(r.Context(), s.kv, historyKeyPrefix+owner, s.opts.Dict.Contains)
		sess = game.NewSession(uuid.NewString(), owner, s.opts.Dict,
			game.WithHistory(hist),
			game.WithChallengeDuration(s.opts.ChallengeSeconds),
		)
		if err := s.sessions.Save(r.Context(), sess); err != nil {
			log.Error().Err(err).Msg("save session")
			writeError(w, http.StatusInternalServerError, "save_failed")
			return
		}
	}

	v, err := sess.NewPuzzle()
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	// Best effort: a lost history only means repeats.
	if err := history.Save(r.Context(), s.kv, historyKeyPrefix+sess.OwnerID, sess.History()); err != nil {
		log.Warn().Err(err).Str("owner", sess.OwnerID).Msg("persist history")
	}
	writeJSON(w, http.StatusOK, v)
}

// handleMove applies one letter move. A move that solves a challenge
// puzzle is announced on the countdown stream.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	sess, ok := s.session(w, r, req.GameID)
	if !ok {
		return
	}
	res, err := sess.Move(req.From, req.To)
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	if res.SolvedWord != "" && res.Challenge != nil {
		s.hub.broadcast(sess.ID, streamEvent{Type: "solved", Word: res.SolvedWord, Challenge: *res.Challenge})
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSolution(w http.ResponseWriter, r *http.Request) {
	var req gameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	sess, ok := s.session(w, r, req.GameID)
	if !ok {
		return
	}
	v, err := sess.Reveal()
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

// session looks up id and writes 404 when it is unknown or belongs to
// someone else.
func (s *Server) session(w http.ResponseWriter, r *http.Request, id string) (*game.Session, bool) {
	sess, err := s.sessions.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !owns(r, sess)) {
		writeError(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return nil, false
	}
	return sess, true
}

// writeGameError maps game errors onto status codes.
func (s *Server) writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrInvalidMove):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrFinished), errors.Is(err, game.ErrChallengeOver):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Error().Err(err).Msg("game")
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}
