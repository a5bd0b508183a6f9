package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/pkg/logger"
	"maeum-toegeun/backend/pkg/sse"
	pkgws "maeum-toegeun/backend/pkg/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedStreamer struct {
	fragments []string
	err       error
}

func (s *scriptedStreamer) Stream(_ context.Context, _ string, _ models.ChatRequest, h sse.Handler) error {
	for _, f := range s.fragments {
		h.OnFragment(f)
	}
	if s.err != nil {
		h.OnError(s.err)
		return s.err
	}
	h.OnFinish()
	return nil
}

func dial(t *testing.T, streamer Streamer) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(streamer, nil, logger.Discard())
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/chat/ws", func(c *gin.Context) { ServeWs(hub, c) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) pkgws.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg pkgws.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func chatFrame(t *testing.T, text string) pkgws.Message {
	t.Helper()
	raw, err := json.Marshal(models.ChatRequest{
		ConversationID: "c1",
		Messages:       []models.ChatTurn{{Role: "user", Parts: text}},
	})
	require.NoError(t, err)
	return pkgws.Message{Type: pkgws.TypeChat, Content: raw}
}

func TestChatSocketStreamsFragments(t *testing.T) {
	conn := dial(t, &scriptedStreamer{fragments: []string{"안녕", "하세요"}})
	require.NoError(t, conn.WriteJSON(chatFrame(t, "오늘 너무 힘들었어")))

	var text strings.Builder
	for _, want := range []string{pkgws.TypeFragment, pkgws.TypeFragment} {
		msg := readMessage(t, conn)
		require.Equal(t, want, msg.Type)
		var f pkgws.Fragment
		require.NoError(t, json.Unmarshal(msg.Content, &f))
		assert.Equal(t, "c1", f.ConversationID)
		text.WriteString(f.Text)
	}
	assert.Equal(t, "안녕하세요", text.String())
	assert.Equal(t, pkgws.TypeDone, readMessage(t, conn).Type)
}

func TestChatSocketReportsErrors(t *testing.T) {
	conn := dial(t, &scriptedStreamer{err: errors.New("upstream 503")})

	require.NoError(t, conn.WriteJSON(chatFrame(t, "hello")))
	msg := readMessage(t, conn)
	require.Equal(t, pkgws.TypeError, msg.Type)
	var f pkgws.Failure
	require.NoError(t, json.Unmarshal(msg.Content, &f))
	assert.Equal(t, "upstream 503", f.Message)

	require.NoError(t, conn.WriteJSON(chatFrame(t, "   ")))
	assert.Equal(t, pkgws.TypeError, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(pkgws.Message{Type: "dance"}))
	assert.Equal(t, pkgws.TypeError, readMessage(t, conn).Type)
}

func TestChatSocketPing(t *testing.T) {
	conn := dial(t, &scriptedStreamer{})
	require.NoError(t, conn.WriteJSON(pkgws.Message{Type: pkgws.TypePing}))
	assert.Equal(t, pkgws.TypePong, readMessage(t, conn).Type)
}
