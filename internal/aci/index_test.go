package aci

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIndexClient_TestCommand(t *testing.T) {
	t.Run("error line becomes IndexError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/DRETEST", r.URL.Path)
			fmt.Fprint(w, "\r\nBad command or file name\r\n")
		}))
		defer server.Close()

		client := NewIndexClient(ClientOptions{}, zap.NewNop())

		err := client.TestCommand(context.Background(), testAddress(t, server))
		require.Error(t, err)

		var indexErr *IndexError
		require.True(t, errors.As(err, &indexErr))
		assert.Equal(t, "Bad command or file name", indexErr.Message)
	})

	t.Run("accepted command returns nil", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "INDEXID=42\r\n")
		}))
		defer server.Close()

		client := NewIndexClient(ClientOptions{}, zap.NewNop())

		assert.NoError(t, client.TestCommand(context.Background(), testAddress(t, server)))
	})

	t.Run("transport failure is not an IndexError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		addr := testAddress(t, server)
		server.Close()

		client := NewIndexClient(ClientOptions{}, zap.NewNop())

		err := client.TestCommand(context.Background(), addr)
		require.Error(t, err)

		var indexErr *IndexError
		assert.False(t, errors.As(err, &indexErr))
	})

	t.Run("empty response is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "\r\n\r\n")
		}))
		defer server.Close()

		client := NewIndexClient(ClientOptions{}, zap.NewNop())

		err := client.TestCommand(context.Background(), testAddress(t, server))
		require.Error(t, err)

		var indexErr *IndexError
		assert.False(t, errors.As(err, &indexErr))
	})
}
