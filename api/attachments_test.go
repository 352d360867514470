package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "shiftsync/errors"
)

// Smallest valid PNG header; enough for content sniffing.
var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}

func TestClient_UploadImage(t *testing.T) {
	req := require.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/conversations/c1/messages/image", r.URL.Path)
		req.Equal("Bearer tok-1", r.Header.Get("Authorization"))

		file, header, err := r.FormFile("file")
		req.NoError(err)
		defer file.Close()
		req.Equal("photo.png", header.Filename)
		sent, err := io.ReadAll(file)
		req.NoError(err)
		req.Equal(pngBytes, sent)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"_id":      "m1",
			"imageUrl": "/uploads/photo.png",
			"type":     "user",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), newStaticTokens("tok-1"), slog.Default())
	msg, err := client.UploadImage(context.Background(), "c1", "photo.png", pngBytes)
	req.NoError(err)
	req.Equal("m1", msg.ID)
	req.Equal("/uploads/photo.png", msg.ImageURL)
}

func TestClient_UploadImage_RejectsNonImageData(t *testing.T) {
	req := require.New(t)

	// No server: the rejection happens before any network call.
	client := NewClient("http://example.invalid", nil, newStaticTokens("tok-1"), slog.Default())
	_, err := client.UploadImage(context.Background(), "c1", "notes.txt", []byte("plain text pretending"))
	req.ErrorIs(err, apperrors.ErrValidation)
}
