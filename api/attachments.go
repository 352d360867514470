package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"shiftsync/domain"
	apperrors "shiftsync/errors"
	"shiftsync/normalize"
)

// UploadImage sends an image attachment as a message. The content type is
// sniffed from the bytes, not the file name; non-image data is rejected
// locally before any network call.
func (c *Client) UploadImage(ctx context.Context, conversationID, fileName string, data []byte) (domain.Message, error) {
	kind := mimetype.Detect(data)
	if !strings.HasPrefix(kind.String(), "image/") {
		return domain.Message{}, fmt.Errorf("%w: %s is %s, not an image", apperrors.ErrValidation, fileName, kind)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return domain.Message{}, err
	}
	if _, err := part.Write(data); err != nil {
		return domain.Message{}, err
	}
	if err := writer.Close(); err != nil {
		return domain.Message{}, err
	}

	path := fmt.Sprintf("/conversations/%s/messages/image", conversationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return domain.Message{}, err
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", apperrors.ErrAuthExpired, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Message{}, fmt.Errorf("upload image: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Message{}, fmt.Errorf("upload image: status %d", resp.StatusCode)
	}

	var raw normalize.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return domain.Message{}, fmt.Errorf("decode upload response: %w", err)
	}
	return c.norm.Message(raw), nil
}
