package handler

import (
	"context"
	"mime"
	"net/http"
	"path"
	"strconv"
)

// responseSaver streams an export straight to the client as an attachment.
type responseSaver struct {
	w       http.ResponseWriter
	written bool
}

func (s *responseSaver) Save(_ context.Context, name, contentType string, data []byte) error {
	h := s.w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(name)}))
	h.Set("Content-Length", strconv.Itoa(len(data)))
	s.w.WriteHeader(http.StatusOK)
	s.written = true
	_, err := s.w.Write(data)
	return err
}
