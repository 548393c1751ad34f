package smsgateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ArowuTest/lottery-ticketing-backend/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPGateway_SendSMS(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		claims, err := jwt.Parse([]byte("key"), auth)
		if err != nil || claims.Subject != "LOTTERY" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte(`{"messageId":"m-1"}`))
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, "key", "LOTTERY", time.Second)
	id, err := gw.SendSMS(context.Background(), "2348030000000", "hello")
	require.NoError(t, err)
	assert.Equal(t, "m-1", id)
	assert.Contains(t, gotBody, `"phoneNumber":"2348030000000"`)
}

func TestHTTPGateway_SendSMSFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPGateway(srv.URL, "key", "LOTTERY", time.Second).SendSMS(context.Background(), "1", "x")
	assert.Error(t, err)
}
