package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxguide/internal/catalog"
	"voxguide/internal/engine"
)

type idleRecognizer struct{ ch chan engine.Event }

func (r idleRecognizer) Start(context.Context) error { return nil }
func (r idleRecognizer) Stop() error                 { return nil }
func (r idleRecognizer) Events() <-chan engine.Event { return r.ch }
func (r idleRecognizer) Close() error                { return nil }

func TestObserver_EngineFlow(t *testing.T) {
	o := New()
	clock := time.Unix(0, 0)
	o.now = func() time.Time {
		clock = clock.Add(10 * time.Millisecond)
		return clock
	}

	e := engine.New(catalog.Default(),
		engine.WithRecognizer(idleRecognizer{}),
		engine.WithObserver(o),
	)
	ctx := context.Background()

	for _, u := range []string{"go home", "xyz nonsense", "call emergency"} {
		require.NoError(t, e.Toggle(ctx))
		e.Handle(ctx, engine.Event{Kind: engine.EventResult, Transcript: u})
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(o.commands.WithLabelValues("navigate", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.commands.WithLabelValues("emergency", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.unrecognized))
	assert.Equal(t, 3.0, testutil.ToFloat64(o.transitions.WithLabelValues("idle", "listening")))
	assert.Equal(t, 3.0, testutil.ToFloat64(o.transitions.WithLabelValues("processing", "idle")))
	assert.Equal(t, 0.0, testutil.ToFloat64(o.phase))
	assert.Equal(t, 1, testutil.CollectAndCount(o.processing))
}

func TestObserver_Unhandled(t *testing.T) {
	o := New()
	def, err := catalog.New(catalog.Definition{
		Patterns:    []string{"sing"},
		Action:      catalog.GeneralAction{Token: "sing"},
		Description: "Sing a song",
	})
	require.NoError(t, err)

	e := engine.New(def, engine.WithRecognizer(idleRecognizer{}), engine.WithObserver(o))
	require.NoError(t, e.Toggle(context.Background()))
	e.Handle(context.Background(), engine.Event{Kind: engine.EventResult, Transcript: "sing"})

	assert.Equal(t, 1.0, testutil.ToFloat64(o.commands.WithLabelValues("general", "false")))
}

func TestObserver_Handler(t *testing.T) {
	o := New()
	o.PhaseChanged(engine.Idle, engine.Listening)

	rr := httptest.NewRecorder()
	o.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `voxguide_phase_transitions_total{from="idle",to="listening"} 1`)
	assert.Contains(t, string(body), "voxguide_phase 1")
	assert.Contains(t, string(body), "go_goroutines")
}
