package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrevoSender_Send(t *testing.T) {
	var got brevoPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewBrevoSender("secret", "noreply@uni.test", "Counsel Connect")
	s.Endpoint = srv.URL

	err := s.Send(context.Background(), "", "amina@uni.test", "Hello", "<p>hi</p>")
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Subject)
	require.Len(t, got.To, 1)
	assert.Equal(t, "amina", got.To[0]["name"])
	assert.Equal(t, "noreply@uni.test", got.Sender["email"])
}

func TestBrevoSender_SendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"invalid_parameter"}`))
	}))
	defer srv.Close()

	s := NewBrevoSender("secret", "noreply@uni.test", "Counsel Connect")
	s.Endpoint = srv.URL

	err := s.Send(context.Background(), "Amina", "amina@uni.test", "Hello", "<p>hi</p>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestBrevoSender_InvalidRecipient(t *testing.T) {
	s := NewBrevoSender("secret", "noreply@uni.test", "Counsel Connect")
	err := s.Send(context.Background(), "Amina", "not-an-email", "Hello", "<p>hi</p>")
	require.Error(t, err)
}
