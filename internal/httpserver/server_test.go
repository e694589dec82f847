package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/buchstabensalat/salad/internal/challenge"
	"github.com/buchstabensalat/salad/internal/game"
	"github.com/buchstabensalat/salad/internal/store"
	"github.com/buchstabensalat/salad/internal/words"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	db, err := store.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	dict, err := words.New(words.Fallback)
	if err != nil {
		t.Fatal(err)
	}
	opts.DB = db
	opts.Dict = dict
	opts.Auth.Secret = "test-secret"
	s := New(opts)
	t.Cleanup(s.runners.stopAll)
	return s
}

func do(t *testing.T, h http.Handler, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "192.0.2.1:1234"
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// newGame deals a game and returns it with the cookies that identify its
// owner.
func newGame(t *testing.T, h http.Handler, cookies ...*http.Cookie) (game.View, []*http.Cookie) {
	t.Helper()
	rec := do(t, h, "POST", "/game/new", nil, cookies...)
	if rec.Code != http.StatusOK {
		t.Fatalf("new: %d %s", rec.Code, rec.Body)
	}
	return decode[game.View](t, rec), append(cookies, rec.Result().Cookies()...)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

// solvingMoves returns moves that turn letters into a dictionary word with
// the same letters, placing one letter per move from the left.
func solvingMoves(t *testing.T, dict *words.Dictionary, letters []string) [][2]int {
	t.Helper()
	cur := []rune(strings.Join(letters, ""))
	matches := dict.Anagrams(string(cur))
	if len(matches) == 0 {
		t.Fatalf("no anagram for %q", string(cur))
	}
	target := []rune(matches[0])
	var moves [][2]int
	for i := range target {
		j := i
		for cur[j] != target[i] {
			j++
		}
		if j != i {
			moves = append(moves, [2]int{j, i})
			r := cur[j]
			cur = append(cur[:j], cur[j+1:]...)
			cur = append(cur[:i], append([]rune{r}, cur[i:]...)...)
		}
	}
	return moves
}

func TestHealthAndDebugWords(t *testing.T) {
	s := newTestServer(t, Options{})
	h := s.Router()

	if rec := do(t, h, "GET", "/health", nil); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("health: %d %s", rec.Code, rec.Body)
	}
	rec := do(t, h, "GET", "/debug/words", nil)
	got := decode[map[string]int](t, rec)
	if got["words"] != len(words.Fallback) {
		t.Errorf("words = %d, want %d", got["words"], len(words.Fallback))
	}
	if rec := do(t, h, "GET", "/nope", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown path: %d", rec.Code)
	}
}

func TestGameFlow(t *testing.T) {
	s := newTestServer(t, Options{})
	h := s.Router()

	v, own := newGame(t, h)
	if v.GameID == "" || len(v.Letters) < words.MinLength || v.State != game.StatePlaying {
		t.Fatalf("new view: %+v", v)
	}
	if v.Target != "" {
		t.Fatalf("target leaked before solving: %q", v.Target)
	}

	if rec := do(t, h, "GET", "/game/"+v.GameID, nil, own...); rec.Code != http.StatusOK {
		t.Fatalf("get: %d", rec.Code)
	}
	if rec := do(t, h, "GET", "/game/unknown", nil, own...); rec.Code != http.StatusNotFound {
		t.Fatalf("get unknown: %d", rec.Code)
	}

	rec := do(t, h, "POST", "/game/move", moveReq{GameID: v.GameID, From: 0, To: 99}, own...)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("out of range move: %d", rec.Code)
	}

	rec = do(t, h, "POST", "/game/solution", gameReq{GameID: v.GameID}, own...)
	revealed := decode[game.View](t, rec)
	if revealed.State != game.StateRevealed || strings.Join(revealed.Letters, "") != revealed.Target {
		t.Fatalf("reveal: %+v", revealed)
	}

	rec = do(t, h, "POST", "/game/move", moveReq{GameID: v.GameID, From: 0, To: 1}, own...)
	if rec.Code != http.StatusConflict {
		t.Fatalf("move after reveal: %d", rec.Code)
	}

	// same session, next puzzle
	rec = do(t, h, "POST", "/game/new", gameReq{GameID: v.GameID}, own...)
	next := decode[game.View](t, rec)
	if next.GameID != v.GameID || next.PuzzleID == v.PuzzleID {
		t.Fatalf("next puzzle: %+v", next)
	}
}

func TestSolvingMove(t *testing.T) {
	s := newTestServer(t, Options{})
	h := s.Router()

	v, own := newGame(t, h)
	var last game.MoveResult
	for _, m := range solvingMoves(t, s.opts.Dict, v.Letters) {
		rec := do(t, h, "POST", "/game/move", moveReq{GameID: v.GameID, From: m[0], To: m[1]}, own...)
		if rec.Code != http.StatusOK {
			t.Fatalf("move %v: %d %s", m, rec.Code, rec.Body)
		}
		last = decode[game.MoveResult](t, rec)
		if last.SolvedWord != "" {
			break
		}
	}
	if last.State != game.StateSolved || last.SolvedWord == "" || len(last.Solutions) == 0 {
		t.Fatalf("not solved: %+v", last)
	}
}

func TestHistoryPersistedPerOwner(t *testing.T) {
	s := newTestServer(t, Options{})
	h := s.Router()

	rec := do(t, h, "POST", "/game/new", nil)
	v := decode[game.View](t, rec)
	var anon *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == anonCookieName {
			anon = c
		}
	}
	if anon == nil {
		t.Fatal("no anonymous cookie")
	}

	raw, err := s.kv.Get(context.Background(), historyKeyPrefix+anon.Value)
	if err != nil {
		t.Fatalf("history not stored: %v", err)
	}
	var stored []string
	_ = json.Unmarshal(raw, &stored)
	if len(stored) != 1 {
		t.Fatalf("stored history = %v", stored)
	}

	// A fresh session for the same owner starts from the stored history.
	rec = do(t, h, "POST", "/game/new", nil, anon)
	v2 := decode[game.View](t, rec)
	if v2.GameID == v.GameID {
		t.Fatal("expected a new session")
	}
	sess, _ := s.sessions.Get(context.Background(), v2.GameID)
	if sess.History().Len() != 2 {
		t.Fatalf("history len = %d, want 2", sess.History().Len())
	}
}

func TestMoveRateLimited(t *testing.T) {
	s := newTestServer(t, Options{MoveRPS: 1, MoveBurst: 2})
	h := s.Router()
	v, own := newGame(t, h)

	codes := make([]int, 3)
	for i := range codes {
		codes[i] = do(t, h, "POST", "/game/move", moveReq{GameID: v.GameID, From: 0, To: 99}, own...).Code
	}
	if codes[0] != http.StatusBadRequest || codes[1] != http.StatusBadRequest || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, Options{})
	h := s.Router()

	rec := do(t, h, "POST", "/auth/signup", credentials{Username: "anna", Password: "password1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("signup: %d %s", rec.Code, rec.Body)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no auth cookie")
	}

	if rec := do(t, h, "POST", "/auth/signup", credentials{Username: "Anna", Password: "password1"}); rec.Code != http.StatusConflict {
		t.Errorf("duplicate signup: %d", rec.Code)
	}
	if rec := do(t, h, "POST", "/auth/login", credentials{Username: "anna", Password: "nope-nope"}); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login: %d", rec.Code)
	}
	if rec := do(t, h, "GET", "/auth/me", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("me as guest: %d", rec.Code)
	}
	rec = do(t, h, "GET", "/auth/me", nil, cookies...)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"anna"`) {
		t.Fatalf("me: %d %s", rec.Code, rec.Body)
	}

	// a logged-in player's session is owned by the account
	v := decode[game.View](t, do(t, h, "POST", "/game/new", nil, cookies...))
	sess, _ := s.sessions.Get(context.Background(), v.GameID)
	me := decode[map[string]string](t, do(t, h, "GET", "/auth/me", nil, cookies...))
	if sess.OwnerID != me["id"] {
		t.Errorf("owner = %q, want %q", sess.OwnerID, me["id"])
	}
}

func TestShareQR(t *testing.T) {
	s := newTestServer(t, Options{PublicURL: "https://salad.example"})
	rec := do(t, s.Router(), "GET", "/share.png?game=abc", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("share: %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatal("not a PNG")
	}
}

func TestChallengeStream(t *testing.T) {
	clock := challenge.NewManualClock()
	s := newTestServer(t, Options{Clock: clock, ChallengeSeconds: challenge.WarningAt + 3})
	ts := httptest.NewServer(s.Router())
	defer ts.Close()
	jar, _ := cookiejar.New(nil)
	client := &http.Client{Jar: jar}

	post := func(path string, body any) *http.Response {
		t.Helper()
		b, _ := json.Marshal(body)
		res, err := client.Post(ts.URL+path, "application/json", bytes.NewReader(b))
		if err != nil {
			t.Fatal(err)
		}
		return res
	}
	var v game.View
	res := post("/game/new", nil)
	_ = json.NewDecoder(res.Body).Decode(&v)
	res.Body.Close()

	dialer := websocket.Dialer{Jar: jar, HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/challenge/"+v.GameID+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	read := func() streamEvent {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var ev streamEvent
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read: %v", err)
		}
		return ev
	}
	if ev := read(); ev.Type != "snapshot" || ev.Challenge.State != challenge.StateIdle {
		t.Fatalf("first event: %+v", ev)
	}

	res = post("/challenge/start", gameReq{GameID: v.GameID})
	_ = json.NewDecoder(res.Body).Decode(&v)
	res.Body.Close()
	if ev := read(); ev.Type != "started" || ev.Challenge.Remaining != challenge.WarningAt+3 {
		t.Fatalf("start event: %+v", ev)
	}

	// solve one puzzle inside the challenge
	for _, m := range solvingMoves(t, s.opts.Dict, v.Letters) {
		var mr game.MoveResult
		res := post("/game/move", moveReq{GameID: v.GameID, From: m[0], To: m[1]})
		_ = json.NewDecoder(res.Body).Decode(&mr)
		res.Body.Close()
		if mr.SolvedWord != "" {
			break
		}
	}
	if ev := read(); ev.Type != "solved" || ev.Challenge.Successes != 1 {
		t.Fatalf("solved event: %+v", ev)
	}

	for i := 0; i < 3; i++ {
		clock.Tick()
	}
	for _, want := range []string{"tick", "tick", "warning"} {
		if ev := read(); ev.Type != want {
			t.Fatalf("got %q, want %q", ev.Type, want)
		}
	}

	var last streamEvent
	for i := 0; i < challenge.WarningAt; i++ {
		clock.Tick()
		last = read()
	}
	if last.Type != "ended" || last.Challenge.State != challenge.StateEnded || last.Challenge.Remaining != 0 {
		t.Fatalf("final event: %+v", last)
	}

	// frozen
	res = post("/game/move", moveReq{GameID: v.GameID, From: 0, To: 1})
	res.Body.Close()
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("move after end: %d", res.StatusCode)
	}

	lb, err := http.Get(ts.URL + "/challenge/leaderboard")
	if err != nil {
		t.Fatal(err)
	}
	defer lb.Body.Close()
	var board lbRes
	_ = json.NewDecoder(lb.Body).Decode(&board)
	if len(board.Top) != 1 || board.Top[0].Successes != 1 {
		t.Fatalf("leaderboard: %+v", board)
	}
}

func TestSessionBelongsToOwner(t *testing.T) {
	s := newTestServer(t, Options{})
	h := s.Router()

	v, own := newGame(t, h)
	_, other := newGame(t, h)

	for _, tc := range []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"get", "GET", "/game/" + v.GameID, nil},
		{"move", "POST", "/game/move", moveReq{GameID: v.GameID, From: 0, To: 1}},
		{"solution", "POST", "/game/solution", gameReq{GameID: v.GameID}},
		{"challenge start", "POST", "/challenge/start", gameReq{GameID: v.GameID}},
		{"challenge stop", "POST", "/challenge/stop", gameReq{GameID: v.GameID}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if rec := do(t, h, tc.method, tc.path, tc.body, other...); rec.Code != http.StatusNotFound {
				t.Errorf("other owner: %d, want 404", rec.Code)
			}
			if rec := do(t, h, tc.method, tc.path, tc.body); rec.Code != http.StatusNotFound {
				t.Errorf("no cookie: %d, want 404", rec.Code)
			}
		})
	}

	// the owner's puzzle is untouched
	got := decode[game.View](t, do(t, h, "GET", "/game/"+v.GameID, nil, own...))
	if got.State != game.StatePlaying || strings.Join(got.Letters, "") != strings.Join(v.Letters, "") {
		t.Fatalf("owner view changed: %+v", got)
	}

	// asking for a foreign game on /game/new deals a fresh session instead
	fresh := decode[game.View](t, do(t, h, "POST", "/game/new", gameReq{GameID: v.GameID}, other...))
	if fresh.GameID == v.GameID {
		t.Fatal("foreign gameId was reused")
	}
}

func TestConcurrentChallengeStartsKeepOneCountdown(t *testing.T) {
	clock := challenge.NewManualClock()
	const duration = challenge.WarningAt + 10
	s := newTestServer(t, Options{Clock: clock, ChallengeSeconds: duration})
	h := s.Router()
	v, own := newGame(t, h)

	var wg sync.WaitGroup
	codes := make([]int, 8)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = do(t, h, "POST", "/challenge/start", gameReq{GameID: v.GameID}, own...).Code
		}(i)
	}
	wg.Wait()
	for i, c := range codes {
		if c != http.StatusOK {
			t.Fatalf("start %d: %d", i, c)
		}
	}
	if n := clock.Live(); n != 1 {
		t.Fatalf("live countdowns = %d, want 1", n)
	}

	sess, err := s.sessions.Get(context.Background(), v.GameID)
	if err != nil {
		t.Fatal(err)
	}
	clock.Tick()
	deadline := time.Now().Add(2 * time.Second)
	for sess.ChallengeSnapshot().Remaining == duration && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := sess.ChallengeSnapshot().Remaining; got != duration-1 {
		t.Fatalf("remaining = %d after one tick, want %d", got, duration-1)
	}

	do(t, h, "POST", "/challenge/stop", gameReq{GameID: v.GameID}, own...)
	if n := clock.Live(); n != 0 {
		t.Fatalf("live countdowns after stop = %d, want 0", n)
	}
}
