package net

import (
	"encoding/json"
	"image"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PaperPen/internal/export"
	"PaperPen/internal/paint"
	"PaperPen/internal/state"
)

func newSession(size int) *state.Session {
	opts := state.DefaultOptions()
	opts.Width, opts.Height = size, size
	return state.NewSession(opts)
}

func decode(t *testing.T, line string) Message {
	t.Helper()
	var m Message
	require.NoError(t, json.Unmarshal([]byte(line), &m))
	return m
}

func TestApplyStroke(t *testing.T) {
	s := newSession(64)
	def := export.DefaultOptions()
	for _, line := range []string{
		`{"type":"pick_pen","pen":3}`,
		`{"type":"down","uv":{"u":0.25,"v":0.4921875},"point":{"x":-2.5}}`,
		`{"type":"move","uv":{"u":0.5,"v":0.4921875},"point":{"x":0}}`,
		`{"type":"move"}`,
		`{"type":"up"}`,
	} {
		_, err := Apply(s, decode(t, line), def)
		require.NoError(t, err, line)
	}
	assert.False(t, s.Drawing())
	_, pen, ok := s.Tools().Pen()
	require.True(t, ok)
	assert.Equal(t, 3, pen)
	assert.NotZero(t, s.Store().Active().Surface.At(24, 32).A)
}

func TestApplyLayers(t *testing.T) {
	s := newSession(8)
	def := export.DefaultOptions()
	apply := func(line string) error {
		_, err := Apply(s, decode(t, line), def)
		return err
	}
	require.NoError(t, apply(`{"type":"add_layer","name":"ink"}`))
	require.Equal(t, 6, s.Store().Len())
	require.NoError(t, apply(`{"type":"select_layer","layer":5}`))
	assert.Equal(t, "ink", s.Store().Active().Name)
	require.NoError(t, apply(`{"type":"rename_layer","layer":5,"name":"wash"}`))
	assert.Equal(t, "wash", s.Store().Active().Name)
	require.NoError(t, apply(`{"type":"delete_layer","layer":0}`))
	assert.Equal(t, 4, s.Store().ActiveIndex())
	require.NoError(t, apply(`{"type":"clear_layer"}`))

	assert.ErrorIs(t, apply(`{"type":"select_layer","layer":9}`), state.ErrOutOfRange)
	assert.ErrorIs(t, apply(`{"type":"teleport"}`), ErrUnknownMessage)
	assert.ErrorIs(t, apply(`{"type":"down","target":"lamp"}`), ErrUnknownMessage)
}

func TestApplyTools(t *testing.T) {
	s := newSession(8)
	def := export.DefaultOptions()
	_, err := Apply(s, decode(t, `{"type":"toggle_eraser"}`), def)
	require.NoError(t, err)
	assert.Equal(t, state.HoldingEraser, s.Tools().State())
	_, err = Apply(s, decode(t, `{"type":"down","target":"eraser"}`), def)
	require.NoError(t, err)
	assert.Equal(t, state.Idle, s.Tools().State())
	_, err = Apply(s, decode(t, `{"type":"down","target":"pen","pen":1}`), def)
	require.NoError(t, err)
	_, err = Apply(s, decode(t, `{"type":"return_pen"}`), def)
	require.NoError(t, err)
	assert.Equal(t, state.Idle, s.Tools().State())
}

func TestApplyExport(t *testing.T) {
	s := newSession(16)
	def := export.DefaultOptions()
	art, err := Apply(s, decode(t, `{"type":"export","scale":2,"all_layers":false,"format":"jpg"}`), def)
	require.NoError(t, err)
	require.NotNil(t, art)
	assert.Equal(t, 32, art.Width)
	assert.Equal(t, export.JPEG, art.Format)
	assert.Equal(t, "Layer_1.jpg", art.Filename)

	_, err = Apply(s, decode(t, `{"type":"export","format":"gif"}`), def)
	assert.ErrorIs(t, err, export.ErrUnsupportedFormat)
	_, err = Apply(s, decode(t, `{"type":"export","scale":9}`), def)
	assert.ErrorIs(t, err, export.ErrInvalidScale)
}

func TestEventNotice(t *testing.T) {
	s := newSession(8)
	var got []Notice
	s.Subscribe(func(ev state.Event) { got = append(got, EventNotice(s, ev)) })

	s.CreateLayer("")
	s.PickPen(0)
	s.PointerDown(state.Hit{Target: state.TargetPaper, OnPaper: true, UV: paint.UV{U: 0.5, V: 0.5}})
	s.PointerMove(paint.Sample{UV: paint.UV{U: 0.6, V: 0.5}})

	require.Len(t, got, 4)
	assert.Equal(t, NoticeLayers, got[0].Type)
	assert.Equal(t, "added", got[0].Change)
	assert.Len(t, got[0].Layers, 6)
	assert.Equal(t, "Layer 6", got[0].Layers[5].Name)

	assert.Equal(t, NoticeTool, got[1].Type)
	assert.Equal(t, "pen", got[1].Tool)
	assert.Equal(t, 0, got[1].Pen)

	assert.Equal(t, NoticeGesture, got[2].Type)
	assert.True(t, got[2].Drawing)

	assert.Equal(t, NoticeDirty, got[3].Type)
	require.NotNil(t, got[3].Rect)
	r := image.Rect(got[3].Rect.X0, got[3].Rect.Y0, got[3].Rect.X1, got[3].Rect.Y1)
	assert.True(t, r.In(image.Rect(0, 0, 8, 8)))
	assert.False(t, r.Empty())
	for i := range got {
		assert.Equal(t, uint64(i+1), got[i].Seq)
	}
}

func TestShareLink(t *testing.T) {
	assert.Equal(t, "ws://192.168.1.5:8888/ws", ShareLink(net.IPv4(192, 168, 1, 5), 8888))

	p, err := Port(&net.TCPAddr{IP: net.IPv4zero, Port: 8888})
	require.NoError(t, err)
	assert.Equal(t, 8888, p)
}

func TestInstanceName(t *testing.T) {
	assert.Equal(t, "My Laptop", instanceName(`My\ Laptop._paperpen._tcp.local.`))
	assert.Equal(t, "odd", instanceName("odd"))
}
