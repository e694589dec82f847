// HTTP routes for challenge mode:
//   - POST /challenge/start       → restart the countdown and deal a puzzle
//   - POST /challenge/stop        → cancel the countdown, back to normal play
//   - GET  /challenge/{id}/ws     → websocket stream of countdown events
//   - GET  /challenge/leaderboard → best runs for today (or ?date=)
//
// Each session has at most one countdown runner. Finished runs are persisted
// to challenge_results when the countdown reaches zero.

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/buchstabensalat/salad/internal/challenge"
	"github.com/buchstabensalat/salad/internal/game"
)

func (s *Server) mountChallenge(r chi.Router) {
	r.Route("/challenge", func(r chi.Router) {
		r.Post("/start", s.handleChallengeStart)
		r.Post("/stop", s.handleChallengeStop)
		r.Get("/leaderboard", s.handleLeaderboard)
	})
}

// runners tracks the live countdown per game. Each game has its own slot
// lock, held across stopping the old runner, changing the challenge and
// installing the new runner, so a game never has two runners.
type runners struct {
	mu sync.Mutex
	m  map[string]*runnerSlot
}

type runnerSlot struct {
	mu sync.Mutex
	r  *challenge.Runner
}

func newRunners() *runners {
	return &runners{m: make(map[string]*runnerSlot)}
}

func (rs *runners) slot(gameID string) *runnerSlot {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	sl, ok := rs.m[gameID]
	if !ok {
		sl = &runnerSlot{}
		rs.m[gameID] = sl
	}
	return sl
}

// halt cancels the slot's runner and waits for it to exit. Callers hold sl.mu.
func (sl *runnerSlot) halt() {
	if sl.r != nil {
		sl.r.Stop()
		<-sl.r.Done()
		sl.r = nil
	}
}

// restart replaces the runner of gameID with the one start returns.
func (rs *runners) restart(gameID string, start func() (*challenge.Runner, error)) error {
	sl := rs.slot(gameID)
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.halt()
	r, err := start()
	if err != nil {
		return err
	}
	sl.r = r
	return nil
}

// stop cancels the runner of gameID, then runs after (if any) under the same
// lock.
func (rs *runners) stop(gameID string, after func()) {
	sl := rs.slot(gameID)
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.halt()
	if after != nil {
		after()
	}
}

// forget stops the runner of gameID and drops its slot.
func (rs *runners) forget(gameID string) {
	rs.stop(gameID, nil)
	rs.mu.Lock()
	delete(rs.m, gameID)
	rs.mu.Unlock()
}

func (rs *runners) stopAll() {
	rs.mu.Lock()
	all := rs.m
	rs.m = make(map[string]*runnerSlot)
	rs.mu.Unlock()
	for _, sl := range all {
		sl.mu.Lock()
		sl.halt()
		sl.mu.Unlock()
	}
}

func (s *Server) handleChallengeStart(w http.ResponseWriter, r *http.Request) {
	var req gameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	sess, ok := s.session(w, r, req.GameID)
	if !ok {
		return
	}

	var v game.View
	err := s.runners.restart(sess.ID, func() (*challenge.Runner, error) {
		var err error
		if v, err = sess.StartChallenge(); err != nil {
			return nil, err
		}
		return s.runCountdown(sess), nil
	})
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	s.hub.broadcast(sess.ID, streamEvent{Type: "started", Challenge: sess.ChallengeSnapshot()})
	writeJSON(w, http.StatusOK, v)
}

// runCountdown ticks sess once per clock second and streams every event.
func (s *Server) runCountdown(sess *game.Session) *challenge.Runner {
	duration := sess.ChallengeDuration()
	var snap challenge.Snapshot
	return challenge.Run(s.opts.Clock,
		func() challenge.Event {
			ev, sn := sess.Tick()
			snap = sn
			return ev
		},
		func(ev challenge.Event) {
			if ev == challenge.EventEnded {
				s.recordResult(sess.OwnerID, snap.Successes, duration)
			}
			s.hub.broadcast(sess.ID, streamEvent{Type: string(ev), Challenge: snap})
		},
	)
}

func (s *Server) recordResult(owner string, successes, duration int) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res := challenge.Result{
		OwnerID:         owner,
		Date:            challenge.DateKey(time.Now()),
		Successes:       successes,
		DurationSeconds: duration,
	}
	if err := s.results.InsertResult(ctx, res); err != nil {
		log.Warn().Err(err).Str("owner", owner).Msg("insert challenge result")
		return
	}
	log.Info().Str("owner", owner).Int("successes", successes).Msg("challenge finished")
}

func (s *Server) handleChallengeStop(w http.ResponseWriter, r *http.Request) {
	var req gameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	sess, ok := s.session(w, r, req.GameID)
	if !ok {
		return
	}
	var v game.View
	s.runners.stop(sess.ID, func() { v = sess.StopChallenge() })
	s.hub.broadcast(sess.ID, streamEvent{Type: "stopped", Challenge: sess.ChallengeSnapshot()})
	writeJSON(w, http.StatusOK, v)
}

// handleChallengeStream upgrades to a websocket and relays countdown events
// of one game until the client goes away.
func (s *Server) handleChallengeStream(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("websocket upgrade")
		return
	}
	c := s.hub.subscribe(sess.ID, conn)
	s.hub.sendTo(sess.ID, c, streamEvent{Type: "snapshot", Challenge: sess.ChallengeSnapshot()})
	c.readPump()
	s.hub.unsubscribe(sess.ID, c)
}

type lbRes struct {
	Date string            `json:"date"`
	Top  []challenge.LBRow `json:"top"`
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = challenge.DateKey(time.Now())
	}
	rows, err := s.results.Leaderboard(r.Context(), date, 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}
