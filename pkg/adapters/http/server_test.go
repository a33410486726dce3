package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/folio"
	folihttp "github.com/aretw0/folio/pkg/adapters/http"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/dsl"
	"github.com/aretw0/folio/pkg/ports"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBot(t *testing.T, opts ...folio.Option) *folio.Bot {
	t.Helper()
	rec := ports.RecognizerFunc(func(ctx context.Context, text string) ([]domain.IntentMatch, error) {
		if text == "hello" {
			return []domain.IntentMatch{{Intent: "Greeting", Confidence: 0.9}}, nil
		}
		return nil, nil
	})
	defs := []domain.Definition{
		dsl.Dialog("/").Triggers("Greeting").Describe("Welcome").Say("Welcome!").Text("What is your name?").
			Then(func(ctx context.Context, s domain.Session, args domain.Args) error {
				name, _ := args.ResponseText()
				s.SendText("Nice to meet you, " + name)
				return nil
			}).MustBuild(),
		dsl.Dialog("/unknown").Say("Sorry, I did not get that.").MustBuild(),
	}
	opts = append([]folio.Option{folio.WithDialogs(defs...), folio.WithRecognizer(rec)}, opts...)
	bot, err := folio.New(folio.DefaultConfig(), opts...)
	require.NoError(t, err)
	return bot
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) domain.TurnResult {
	t.Helper()
	var res domain.TurnResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestPostMessage(t *testing.T) {
	h := folihttp.NewHandler(newBot(t))

	w := post(t, h, "/api/messages", domain.Turn{ConversationID: "c1", Text: "hello"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decodeResult(t, w)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, "Welcome!", res.Messages[0].Text)
	assert.Equal(t, "c1", res.Messages[0].ConversationID)

	w = post(t, h, "/api/messages", domain.Turn{ConversationID: "c1", Text: "Ada"})
	res = decodeResult(t, w)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, "Nice to meet you, Ada", res.Messages[0].Text)
}

func TestPostMessage_AssignsConversationID(t *testing.T) {
	h := folihttp.NewHandler(newBot(t))

	w := post(t, h, "/api/messages", domain.Turn{Text: "hello"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decodeResult(t, w).ConversationID)
}

func TestPostMessage_RejectsInput(t *testing.T) {
	h := folihttp.NewHandler(newBot(t), folihttp.WithMaxInputSize(8))

	w := post(t, h, "/api/messages", domain.Turn{ConversationID: "c1", Text: strings.Repeat("a", 9)})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type failingStore struct {
	ports.StateStore
}

func (failingStore) Load(ctx context.Context, id string) (*domain.ConversationState, error) {
	return nil, errors.New("store down")
}

func TestPostMessage_FailedTurnDeliversFallback(t *testing.T) {
	h := folihttp.NewHandler(newBot(t, folio.WithStore(failingStore{})))

	w := post(t, h, "/api/messages", domain.Turn{ConversationID: "c1", Text: "hello"})
	require.Equal(t, http.StatusOK, w.Code)
	res := decodeResult(t, w)
	assert.True(t, res.Failed)
	require.NotEmpty(t, res.Messages)
	assert.Equal(t, "Sorry, I did not get that.", res.Messages[0].Text)
}

func TestConversationLifecycle(t *testing.T) {
	h := folihttp.NewHandler(newBot(t))

	w := post(t, h, "/api/conversations", map[string]string{"user_id": "u1"})
	require.Equal(t, http.StatusCreated, w.Code)
	res := decodeResult(t, w)
	require.NotEmpty(t, res.ConversationID)
	assert.Equal(t, "/", res.ActiveDialog)

	id := res.ConversationID
	req := httptest.NewRequest(http.MethodGet, "/api/conversations/"+id, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var state domain.ConversationState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "u1", state.UserID)
	require.NotNil(t, state.Top())
	assert.Equal(t, "/", state.Top().DialogID)

	req = httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.JSONEq(t, `{"conversations":["`+id+`"]}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodDelete, "/api/conversations/"+id, nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/conversations/"+id, nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListDialogs(t *testing.T) {
	h := folihttp.NewHandler(newBot(t))

	req := httptest.NewRequest(http.MethodGet, "/api/dialogs", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var dialogs []domain.DialogInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dialogs))
	require.Len(t, dialogs, 2)
	assert.Equal(t, "/", dialogs[0].ID)
	assert.Equal(t, []string{"Greeting"}, dialogs[0].Triggers)
	assert.Equal(t, 3, dialogs[0].Steps)
	assert.Equal(t, "Welcome", dialogs[0].Description)
}

func TestHealthInfoAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("folio_turns_total 1\n"))
	})
	h := folihttp.NewHandler(newBot(t), folihttp.WithMetricsHandler(metrics))

	for path, want := range map[string]string{
		"/health":  `"status":"ok"`,
		"/info":    `"version":"` + folio.Version + `"`,
		"/swagger": "swagger-ui",
		"/metrics": "folio_turns_total",
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), want, path)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/messages", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestInfo_ReportsAPIVersion(t *testing.T) {
	h := folihttp.NewHandler(newBot(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/info", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var info folihttp.Info
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "folio-http", info.App)
	assert.Equal(t, "1.0.0", info.ApiVersion)
}

func TestOpenAPISpec(t *testing.T) {
	h := folihttp.NewHandler(newBot(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	for _, p := range []string{"/api/messages", "/api/conversations", "/api/conversations/{id}", "/api/dialogs"} {
		assert.Contains(t, paths, p)
	}

	swagger, err := folihttp.GetSwagger()
	require.NoError(t, err)
	require.NoError(t, swagger.Validate(context.Background()))
	op := swagger.Paths.Find("/api/messages").Post
	require.NotNil(t, op)
	assert.Equal(t, "PostMessage", op.OperationID)
}

func TestStartConversation_WithoutBody(t *testing.T) {
	h := folihttp.NewHandler(newBot(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/conversations", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	res := decodeResult(t, rec)
	assert.NotEmpty(t, res.ConversationID)
	require.NotEmpty(t, res.Messages)
	assert.Equal(t, "Welcome!", res.Messages[0].Text)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/conversations", strings.NewReader("[")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type recordingBot struct {
	folihttp.Bot
	turn domain.Turn
}

func (b *recordingBot) HandleTurn(ctx context.Context, turn domain.Turn) (*domain.TurnResult, error) {
	b.turn = turn
	return &domain.TurnResult{ConversationID: turn.ConversationID}, nil
}

func TestPostMessage_DecodesAttachments(t *testing.T) {
	bot := &recordingBot{}
	h := folihttp.NewHandler(bot)

	body := `{"conversation_id":"c9","user_id":"u9","text":"cv","attachments":[{"content_type":"application/pdf","content_url":"https://example.com/cv.pdf","name":"cv.pdf"}]}`
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, "c9", bot.turn.ConversationID)
	assert.Equal(t, "u9", bot.turn.UserID)
	assert.Equal(t, "cv", bot.turn.Text)
	require.Len(t, bot.turn.Attachments, 1)
	assert.Equal(t, domain.Attachment{ContentType: "application/pdf", ContentURL: "https://example.com/cv.pdf", Name: "cv.pdf"}, bot.turn.Attachments[0])
}

func TestStreamManager_Send(t *testing.T) {
	sm := folihttp.NewStreamManager(nil)
	ctx := context.Background()

	err := sm.Send(ctx, domain.Message{ConversationID: "c1", Text: "lost"})
	assert.ErrorIs(t, err, folihttp.ErrNotConnected)

	ch, cancel := sm.Subscribe("c1")
	assert.True(t, sm.Connected("c1"))
	require.NoError(t, sm.Send(ctx, domain.Message{ConversationID: "c1", Text: "hi"}))
	assert.Equal(t, "hi", (<-ch).Text)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.False(t, sm.Connected("c1"))
}

func TestSubscribeEvents(t *testing.T) {
	sm := folihttp.NewStreamManager(nil)
	srv := httptest.NewServer(folihttp.NewHandler(newBot(t), folihttp.WithStreams(sm)))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/conversations/c1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return sm.Connected("c1") }, time.Second, 5*time.Millisecond)
	require.ErrorIs(t, sm.Send(ctx, domain.Message{ConversationID: "other"}), folihttp.ErrNotConnected)

	msg := domain.TextMessage("paced")
	msg.ConversationID = "c1"
	require.NoError(t, sm.Send(ctx, msg))

	var lines []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if strings.Contains(scanner.Text(), "paced") {
			break
		}
	}
	body := strings.Join(lines, "\n")
	assert.Contains(t, body, "event: ping")
	assert.Contains(t, body, "event: message")
	assert.Contains(t, body, `"text":"paced"`)
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/chat" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestChat_GreetsAndAnswers(t *testing.T) {
	srv := httptest.NewServer(folihttp.NewHandler(newBot(t)))
	defer srv.Close()

	conn := dial(t, srv, "?conversation=ws-1")

	session := readFrame(t, conn)
	assert.Equal(t, "session", session["type"])
	assert.Equal(t, "ws-1", session["conversation_id"])

	assert.Equal(t, "Welcome!", readFrame(t, conn)["text"])
	assert.Equal(t, "What is your name?", readFrame(t, conn)["text"])

	require.NoError(t, conn.WriteJSON(folihttp.ChatInbound{Type: "ping"}))
	assert.Equal(t, "pong", readFrame(t, conn)["type"])

	require.NoError(t, conn.WriteJSON(folihttp.ChatInbound{Type: "message", Text: "Grace"}))
	assert.Equal(t, "Nice to meet you, Grace", readFrame(t, conn)["text"])
}

func TestChat_ResumedConversationIsNotGreeted(t *testing.T) {
	bot := newBot(t)
	_, err := bot.Greet(context.Background(), "ws-2", "")
	require.NoError(t, err)

	srv := httptest.NewServer(folihttp.NewHandler(bot))
	defer srv.Close()

	conn := dial(t, srv, "?conversation=ws-2")
	assert.Equal(t, "session", readFrame(t, conn)["type"])

	require.NoError(t, conn.WriteJSON(folihttp.ChatInbound{Type: "message", Text: "Linus"}))
	assert.Equal(t, "Nice to meet you, Linus", readFrame(t, conn)["text"])
}

func TestChat_DeliversPacedMessages(t *testing.T) {
	sm := folihttp.NewStreamManager(nil)
	srv := httptest.NewServer(folihttp.NewHandler(newBot(t), folihttp.WithStreams(sm)))
	defer srv.Close()

	conn := dial(t, srv, "?conversation=ws-3")
	readFrame(t, conn) // session
	readFrame(t, conn) // welcome
	readFrame(t, conn) // prompt

	msg := domain.TextMessage("a bit later")
	msg.ConversationID = "ws-3"
	require.Eventually(t, func() bool { return sm.Send(context.Background(), msg) == nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "a bit later", readFrame(t, conn)["text"])
}
