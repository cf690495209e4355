package nlu_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	log "log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxguide/internal/catalog"
	"voxguide/internal/logging"
	"voxguide/internal/nlu"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "Make emergency call")

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 0,
			"model":   "gpt-5-nano",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func classifier(srv *httptest.Server, logger ...*log.Logger) *nlu.Classifier {
	client := openai.NewClient(
		option.WithAPIKey("test"),
		option.WithBaseURL(srv.URL+"/"),
		option.WithMaxRetries(0),
	)
	var l *log.Logger
	if len(logger) > 0 {
		l = logger[0]
	}
	return nlu.NewClassifier(client, "", l)
}

func TestClassifier_Resolve(t *testing.T) {
	defs := catalog.Default().List()
	srv := chatServer(t, fmt.Sprintf(`{"command": %d}`, 4))

	m, err := classifier(srv).Resolve(context.Background(), "ring the ambulance", defs)
	require.NoError(t, err)
	require.True(t, m.Found())
	assert.Equal(t, catalog.EmergencyAction{Op: catalog.EmergencyCall}, m.Command.Action)
}

func TestClassifier_UsesGivenLogger(t *testing.T) {
	var buf bytes.Buffer
	srv := chatServer(t, `{"command": 0}`)

	_, err := classifier(srv, logging.New(&buf, "debug")).Resolve(context.Background(), "take me home", catalog.Default().List())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Classified")
	assert.Contains(t, buf.String(), "take me home")
}

func TestClassifier_Unknown(t *testing.T) {
	defs := catalog.Default().List()

	for _, content := range []string{`{"command": -1}`, `{"command": 999}`} {
		srv := chatServer(t, content)
		m, err := classifier(srv).Resolve(context.Background(), "sing me a song", defs)
		require.NoError(t, err)
		assert.False(t, m.Found())
	}
}

func TestClassifier_BadJSON(t *testing.T) {
	srv := chatServer(t, "not json")
	_, err := classifier(srv).Resolve(context.Background(), "hmm", catalog.Default().List())
	assert.Error(t, err)
}
