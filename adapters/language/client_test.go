package language

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/parlez/domain/entities"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, retries int) (*Client, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, MaxRetries: retries}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return client, &calls
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{}, zaptest.NewLogger(t))
	assert.Error(t, err)

	_, err = NewClient(Config{BaseURL: "http://x", MaxRetries: -1}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestClient_Translate(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, translationPath, r.URL.Path)
		var req translationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "good morning", req.Prompt)
		assert.Equal(t, "French", req.Language)
		w.Write([]byte(`{"status":"success","message":"Bonjour.\n\nComment allez-vous?"}`))
	}, 0)

	text, err := client.Translate(context.Background(), "good morning", "French")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour.\n\nComment allez-vous?", text)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestClient_Pronunciation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pronunciationPath, r.URL.Path)
		var req pronunciationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "how do I pronounce r", req.Phoneme)
		w.Write([]byte(`{"message":["Round your lips.","Now try again."]}`))
	}, 0)

	segments, err := client.Pronunciation(context.Background(), "how do I pronounce r", "French")
	require.NoError(t, err)
	assert.Equal(t, []string{"Round your lips.", "Now try again."}, segments)
}

func TestClient_Followup(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, followupPath, r.URL.Path)
		var req followupRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Bonjour.", req.Prev)
		w.Write([]byte(`{"message":"Shall we try another word?"}`))
	}, 0)

	text, err := client.Followup(context.Background(), "Bonjour.")
	require.NoError(t, err)
	assert.Equal(t, "Shall we try another word?", text)
}

func TestClient_ServerErrorIsRetriedThenFails(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status":"error","message":"Failed to generate translation."}`))
	}, 2)

	_, err := client.Translate(context.Background(), "hello", "French")
	require.ErrorIs(t, err, entities.ErrUpstream)
	assert.EqualValues(t, 3, atomic.LoadInt32(calls))
}

func TestClient_TransientFailureRecovers(t *testing.T) {
	var n int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&n, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"message":"Salut."}`))
	}, 1)

	text, err := client.Translate(context.Background(), "hi", "French")
	require.NoError(t, err)
	assert.Equal(t, "Salut.", text)
}

func TestClient_ClientErrorIsNotRetried(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}, 3)

	_, err := client.Translate(context.Background(), "hi", "French")
	require.ErrorIs(t, err, entities.ErrUpstream)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestClient_MalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
		call func(c *Client) error
	}{
		{
			name: "not json",
			body: `<html>oops</html>`,
			call: func(c *Client) error { _, err := c.Translate(context.Background(), "x", "French"); return err },
		},
		{
			name: "translation without message",
			body: `{"status":"success"}`,
			call: func(c *Client) error { _, err := c.Translate(context.Background(), "x", "French"); return err },
		},
		{
			name: "pronunciation message is a string",
			body: `{"message":"not a list"}`,
			call: func(c *Client) error { _, err := c.Pronunciation(context.Background(), "x", "French"); return err },
		},
		{
			name: "pronunciation without message",
			body: `{}`,
			call: func(c *Client) error { _, err := c.Pronunciation(context.Background(), "x", "French"); return err },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}, 2)

			err := tt.call(client)
			require.ErrorIs(t, err, entities.ErrUpstreamMalformed)
			assert.EqualValues(t, 1, atomic.LoadInt32(calls))
		})
	}
}
