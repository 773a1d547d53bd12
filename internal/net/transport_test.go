package net

import (
	"bytes"
	"context"
	"image/png"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PaperPen/internal/export"
	"PaperPen/internal/paint"
	"PaperPen/internal/state"
)

type remote struct {
	t    *testing.T
	conn *websocket.Conn
}

func (r remote) send(m Message) {
	r.t.Helper()
	require.NoError(r.t, r.conn.WriteJSON(m))
}

func (r remote) next() Notice {
	r.t.Helper()
	require.NoError(r.t, r.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var n Notice
	require.NoError(r.t, r.conn.ReadJSON(&n))
	return n
}

func (r remote) await(typ string) Notice {
	r.t.Helper()
	for {
		if n := r.next(); n.Type == typ {
			return n
		}
	}
}

func startHub(t *testing.T, size int) (*state.Session, *Dispatcher, *Hub, string) {
	t.Helper()
	s := newSession(size)
	d := NewDispatcher()
	h := NewHub(s, HubOptions{Exec: d.Do, Export: export.DefaultOptions()})

	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)
	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		h.Close()
		srv.Close()
		cancel()
	})
	return s, d, h, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) remote {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return remote{t: t, conn: conn}
}

func TestHubGreetsWithLayers(t *testing.T) {
	_, _, _, url := startHub(t, 16)
	r := dial(t, url)
	n := r.next()
	assert.Equal(t, NoticeLayers, n.Type)
	assert.Len(t, n.Layers, 5)
	assert.Equal(t, 0, n.Active)
}

func TestHubDrivesSession(t *testing.T) {
	s, d, _, url := startHub(t, 64)
	r := dial(t, url)
	r.await(NoticeLayers)

	r.send(Message{Type: MsgPickPen, Pen: 2})
	tool := r.await(NoticeTool)
	assert.Equal(t, "pen", tool.Tool)
	assert.Equal(t, 2, tool.Pen)

	r.send(Message{Type: MsgDown, UV: &paint.UV{U: 0.25, V: 0.4921875}})
	assert.True(t, r.await(NoticeGesture).Drawing)
	r.send(Message{Type: MsgMove, UV: &paint.UV{U: 0.5, V: 0.4921875}})
	dirty := r.await(NoticeDirty)
	require.NotNil(t, dirty.Rect)
	assert.Greater(t, dirty.Seq, tool.Seq)
	r.send(Message{Type: MsgUp})
	assert.False(t, r.await(NoticeGesture).Drawing)

	// Read the surface on the session goroutine.
	alpha := make(chan uint8)
	d.Do(func() { alpha <- s.Store().Active().Surface.At(24, 32).A })
	assert.NotZero(t, <-alpha)
}

func TestHubExport(t *testing.T) {
	_, _, _, url := startHub(t, 32)
	r := dial(t, url)
	r.await(NoticeLayers)

	r.send(Message{Type: MsgExport, Scale: 2})
	n := r.await(NoticeExport)
	assert.Equal(t, "Layer_1.png", n.File)
	img, err := png.Decode(bytes.NewReader(n.Data))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())

	r.send(Message{Type: "bogus"})
	assert.Contains(t, r.await(NoticeError).Error, "unknown message")
}

func TestHubBroadcastsToEveryone(t *testing.T) {
	_, _, h, url := startHub(t, 16)
	a := dial(t, url)
	b := dial(t, url)
	a.await(NoticeLayers)
	b.await(NoticeLayers)
	require.Eventually(t, func() bool { return h.Clients() == 2 }, time.Second, 10*time.Millisecond)

	a.send(Message{Type: MsgAddLayer, Name: "shared"})
	n := b.await(NoticeLayers)
	assert.Equal(t, "added", n.Change)
	assert.Equal(t, "shared", n.Layers[5].Name)
}

func TestHubForgetsClosedClients(t *testing.T) {
	_, _, h, url := startHub(t, 16)
	r := dial(t, url)
	r.await(NoticeLayers)
	require.NoError(t, r.conn.Close())
	assert.Eventually(t, func() bool { return h.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestDispatcherRunsInOrder(t *testing.T) {
	d := NewDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)

	var got []int
	done := make(chan struct{})
	for i := range 10 {
		d.Do(func() { got = append(got, i) })
	}
	d.Do(func() { close(done) })
	<-done
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)

	cancel()
	<-d.done
	d.Do(func() { t.Error("ran after stop") })
}
