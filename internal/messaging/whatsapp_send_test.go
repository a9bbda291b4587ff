package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NiveshSarthi/RealNex-sub001/pkg/logging"
)

func TestSendTextPostsCloudAPIPayload(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/12345/messages", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewWhatsAppSender("test-token", "12345", srv.URL, logging.Default())
	err := s.SendText(context.Background(), "919800000001", "hello")
	require.NoError(t, err)

	assert.Equal(t, "whatsapp", captured["messaging_product"])
	assert.Equal(t, "919800000001", captured["to"])
	assert.Equal(t, "text", captured["type"])
}

func TestSendButtonsRejectsBadCounts(t *testing.T) {
	s := NewWhatsAppSender("token", "12345", "http://unused", nil)

	err := s.SendButtons(context.Background(), "919800000001", "pick", nil)
	assert.Error(t, err)

	four := []Button{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}}
	err = s.SendButtons(context.Background(), "919800000001", "pick", four)
	assert.Error(t, err)
}

func TestSendRetriesOn5xxOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewWhatsAppSender("token", "12345", srv.URL, nil)
	err := s.SendText(context.Background(), "919800000001", "hello")
	assert.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSendDoesNotRetry4xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewWhatsAppSender("token", "12345", srv.URL, nil)
	err := s.SendText(context.Background(), "919800000001", "hello")
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDispatchContinuesPastFailures(t *testing.T) {
	rec := &Recorder{FailNext: errors.New("provider down")}

	Dispatch(context.Background(), rec, logging.Default(), "919800000001", []Outbound{
		Text("first"),
		Text("second"),
	})

	// First send failed, second still went out.
	require.Len(t, rec.Sent, 1)
	assert.Equal(t, "second", rec.Sent[0].Outbound.Body)
}
