package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/npc-companion/internal/affinity"
	"github.com/danielpatrickdp/npc-companion/internal/apperrors"
	"github.com/danielpatrickdp/npc-companion/internal/chat"
	"github.com/danielpatrickdp/npc-companion/internal/npc"
	"github.com/danielpatrickdp/npc-companion/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// #region fakes

type fakeChat struct {
	mu   sync.Mutex
	last chat.IncomingMessage
	err  error
}

func (f *fakeChat) HandleMessage(_ context.Context, in chat.IncomingMessage) (chat.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = in
	if f.err != nil {
		return chat.Reply{}, f.err
	}
	return chat.Reply{NPCID: in.NPCID, UserID: in.UserID, Text: "ciao " + in.UserID, Committed: true}, nil
}

type fakeNPCs struct {
	npcs      map[string]store.NPC
	profiles  map[string]*npc.Profile
	groups    map[string]store.Group
	createErr error
}

func newFakeNPCs() *fakeNPCs {
	return &fakeNPCs{
		npcs:     map[string]store.NPC{},
		profiles: map[string]*npc.Profile{},
		groups:   map[string]store.Group{},
	}
}

func (f *fakeNPCs) GetGroup(_ context.Context, id string) (store.Group, error) {
	g, ok := f.groups[id]
	if !ok {
		return store.Group{}, store.ErrNotFound
	}
	return g, nil
}

func (f *fakeNPCs) SaveGroup(_ context.Context, g store.Group) error {
	f.groups[g.ID] = g
	return nil
}

func (f *fakeNPCs) GetNPC(_ context.Context, id string) (store.NPC, error) {
	n, ok := f.npcs[id]
	if !ok {
		return store.NPC{}, store.ErrNotFound
	}
	return n, nil
}

func (f *fakeNPCs) GetProfile(_ context.Context, id string) (*npc.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeNPCs) CreateNPC(_ context.Context, n store.NPC, p *npc.Profile) error {
	if f.createErr != nil {
		return f.createErr
	}
	p.ID, p.Name = n.ID, n.Name
	f.npcs[n.ID] = n
	f.profiles[n.ID] = p
	return nil
}

type testEnv struct {
	router *gin.Engine
	chat   *fakeChat
	npcs   *fakeNPCs
}

func newTestEnv() *testEnv {
	env := &testEnv{chat: &fakeChat{}, npcs: newFakeNPCs()}
	h := NewHandler(env.chat, env.npcs, affinity.NewTracker(), log.New(io.Discard))
	env.router = NewRouter(h)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return w, resp
}

// #endregion fakes

func TestHealthz(t *testing.T) {
	env := newTestEnv()
	w, resp := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, resp.RequestID, w.Header().Get("X-Request-ID"))
}

func TestRequestIDPropagated(t *testing.T) {
	env := newTestEnv()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	assert.Contains(t, w.Body.String(), `"request_id":"req-42"`)
}

func TestPostMessage(t *testing.T) {
	env := newTestEnv()
	w, resp := env.do(t, http.MethodPost, "/v1/messages",
		`{"text":"ciao","npc_id":"luna","userId":"u1","traceId":"t1","language":"en"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	assert.Equal(t, "luna", env.chat.last.NPCID)
	assert.Equal(t, "u1", env.chat.last.UserID)
	assert.Equal(t, "t1", env.chat.last.TraceID)
	assert.Equal(t, "en", env.chat.last.Language)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "ciao u1", data["text"])
}

func TestPostMessage_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		body   string
		status int
		code   string
	}{
		{"bad json", nil, `{"text":`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"not found", apperrors.NotFound("npc ghost not found", store.ErrNotFound), `{"text":"x","npc_id":"ghost"}`, http.StatusNotFound, "NOT_FOUND"},
		{"untyped", errors.New("db exploded at /var/lib"), `{"text":"x","npc_id":"luna"}`, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			env.chat.err = tt.err
			w, resp := env.do(t, http.MethodPost, "/v1/messages", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.NotContains(t, resp.Error.Message, "/var/lib")
		})
	}
}

func TestCreateAndGetNPC(t *testing.T) {
	env := newTestEnv()

	w, resp := env.do(t, http.MethodPost, "/v1/npcs", `{"id":"luna","name":"Luna","persona":"barista"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "barista", env.npcs.npcs["luna"].Persona)
	assert.Equal(t, 1, env.npcs.profiles["luna"].Stats.Level)

	w, resp = env.do(t, http.MethodGet, "/v1/npcs/luna/profile", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Luna", data["name"])

	w, _ = env.do(t, http.MethodPost, "/v1/npcs", `{"id":"luna","name":"Again"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateNPC_Validation(t *testing.T) {
	env := newTestEnv()
	w, _ := env.do(t, http.MethodPost, "/v1/npcs", `{"name":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := env.do(t, http.MethodPost, "/v1/npcs", `{"name":"Sol"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	data := resp.Data.(map[string]interface{})
	assert.NotEmpty(t, data["id"])
}

func TestCreateNPC_ClampsOutOfRangeProfile(t *testing.T) {
	env := newTestEnv()
	body := `{"id":"sol","name":"Sol","profile":{"stats":{"level":0,"intimacy":140},` +
		`"traits":{"warmth":1.2,"empathy":-0.3},"relationship":{"trust":3,"conflict":0.2}}}`

	w, _ := env.do(t, http.MethodPost, "/v1/npcs", body)
	require.Equal(t, http.StatusCreated, w.Code)

	p := env.npcs.profiles["sol"]
	require.NotNil(t, p)
	assert.Equal(t, 1, p.Stats.Level)
	assert.Equal(t, 100.0, p.Stats.Intimacy)
	assert.Equal(t, map[string]float64{"warmth": 1, "empathy": 0}, p.Traits)
	require.NotNil(t, p.Relationship)
	assert.Equal(t, 1.0, p.Relationship.Trust)
	assert.Equal(t, 0.2, p.Relationship.Conflict)
}

func TestCreateNPC_StoreFailure(t *testing.T) {
	env := newTestEnv()
	env.npcs.createErr = errors.New("constraint failed")
	w, resp := env.do(t, http.MethodPost, "/v1/npcs", `{"name":"Sol"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "create npc", resp.Error.Message)
}

func TestGetProfile_NotFound(t *testing.T) {
	env := newTestEnv()
	w, resp := env.do(t, http.MethodGet, "/v1/npcs/ghost/profile", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestAffinity(t *testing.T) {
	env := newTestEnv()

	w, resp := env.do(t, http.MethodGet, "/v1/groups/bar/affinity?from=luna&to=sol", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, resp.Data.(map[string]interface{})["affinity"])

	w, resp = env.do(t, http.MethodPost, "/v1/groups/bar/affinity", `{"from":"luna","to":"sol"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 0.05, resp.Data.(map[string]interface{})["affinity"], 1e-9)

	w, resp = env.do(t, http.MethodPost, "/v1/groups/bar/affinity", `{"from":"luna","to":"sol","delta":3}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, resp.Data.(map[string]interface{})["affinity"])

	// direction matters
	_, resp = env.do(t, http.MethodGet, "/v1/groups/bar/affinity?from=sol&to=luna", "")
	assert.Equal(t, 0.0, resp.Data.(map[string]interface{})["affinity"])

	w, _ = env.do(t, http.MethodGet, "/v1/groups/bar/affinity?from=luna", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = env.do(t, http.MethodPost, "/v1/groups/bar/affinity", `{"from":"luna"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGroups(t *testing.T) {
	env := newTestEnv()
	env.npcs.npcs["luna"] = store.NPC{ID: "luna", Name: "Luna"}
	env.npcs.npcs["sol"] = store.NPC{ID: "sol", Name: "Sol"}

	w, _ := env.do(t, http.MethodGet, "/v1/groups/bar", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = env.do(t, http.MethodPut, "/v1/groups/bar", `{"name":"Bar","members":["luna","ghost"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPut, "/v1/groups/bar", `{"name":" Bar ","members":["luna"," sol","luna",""]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"luna", "sol"}, env.npcs.groups["bar"].Members)
	assert.Equal(t, "Bar", env.npcs.groups["bar"].Name)

	w, resp := env.do(t, http.MethodGet, "/v1/groups/bar", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "bar", data["id"])
}

func TestNoRoute(t *testing.T) {
	env := newTestEnv()
	w, resp := env.do(t, http.MethodGet, "/v2/nothing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)
}

func TestWebSocket(t *testing.T) {
	env := newTestEnv()
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"text":"ciao","npc_id":"luna","userId":"u7"}`)))
	var frame wsFrame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.True(t, frame.Success)
	require.NotNil(t, frame.Data)
	assert.Equal(t, "ciao u7", frame.Data.Text)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	frame = wsFrame{}
	require.NoError(t, conn.ReadJSON(&frame))
	assert.False(t, frame.Success)
	require.NotNil(t, frame.Error)
	assert.Equal(t, "VALIDATION_ERROR", frame.Error.Code)
}

func TestWebSocket_OriginCheck(t *testing.T) {
	env := newTestEnv()
	h := NewHandler(env.chat, env.npcs, affinity.NewTracker(), log.New(io.Discard))
	h.AllowOrigins([]string{"https://app.example"})
	srv := httptest.NewServer(NewRouter(h))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"

	tests := []struct {
		name   string
		origin string
		ok     bool
	}{
		{"listed origin", "https://app.example", true},
		{"listed origin other case", "https://APP.example", true},
		{"no origin header", "", true},
		{"foreign origin", "https://evil.example", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(url, header)
			if tt.ok {
				require.NoError(t, err)
				conn.Close()
				return
			}
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestOriginChecker_Wildcard(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/ws", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	assert.True(t, originChecker(nil)(req))
	assert.True(t, originChecker([]string{"*"})(req))
	assert.False(t, originChecker([]string{"https://app.example"})(req))
}

func TestRespondError_Untyped(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, errors.New("secret"))

	var resp APIResponse
	require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&resp))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal error", resp.Error.Message)
}
