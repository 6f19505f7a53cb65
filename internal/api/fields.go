package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/conambiente/conambiente-backend/internal/domain"
	"github.com/conambiente/conambiente-backend/internal/upload"
)

const (
	maxFieldsBody   = 1 << 20
	multipartMemory = 1 << 20
)

var (
	errBadBody        = errors.New("malformed request body")
	errBadCoordinates = errors.New("malformed coordinates")
)

// fields is a request body read as either multipart/form-data, urlencoded
// form or a JSON object. A key that is present is "sent", even when its value
// is empty or JSON null.
type fields struct {
	values map[string][]string
	raw    map[string]json.RawMessage
	files  map[string][]*multipart.FileHeader
}

func parseFields(w http.ResponseWriter, r *http.Request) (*fields, error) {
	f := &fields{}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, upload.MaxFileSize+multipartMemory)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return nil, bodyError(err)
		}
		f.values = r.MultipartForm.Value
		f.files = r.MultipartForm.File
	case "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(w, r.Body, maxFieldsBody)
		if err := r.ParseForm(); err != nil {
			return nil, bodyError(err)
		}
		f.values = r.PostForm
	case "application/json":
		r.Body = http.MaxBytesReader(w, r.Body, maxFieldsBody)
		if err := json.NewDecoder(r.Body).Decode(&f.raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, bodyError(err)
		}
	}
	return f, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return upload.ErrPayloadTooLarge
	}
	return fmt.Errorf("%w: %v", errBadBody, err)
}

// lookup returns the value of key and whether it was sent. JSON null reads
// as "", other JSON scalars as their literal text.
func (f *fields) lookup(key string) (string, bool) {
	if vs, ok := f.values[key]; ok && len(vs) > 0 {
		return vs[0], true
	}
	raw, ok := f.raw[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return string(bytes.TrimSpace(raw)), true
}

func (f *fields) str(key string) string {
	v, _ := f.lookup(key)
	return v
}

func (f *fields) trimmed(key string) string {
	return strings.TrimSpace(f.str(key))
}

func (f *fields) isNull(key string) bool {
	raw, ok := f.raw[key]
	return ok && bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func (f *fields) optString(key string) domain.Optional[string] {
	if v, ok := f.lookup(key); ok {
		return domain.Some(v)
	}
	return domain.Optional[string]{}
}

// optNullable reads a nullable text field: JSON null clears it.
func (f *fields) optNullable(key string) domain.Optional[*string] {
	if f.isNull(key) {
		return domain.Some[*string](nil)
	}
	if v, ok := f.lookup(key); ok {
		return domain.Some(&v)
	}
	return domain.Optional[*string]{}
}

// truthy reports whether key was sent with an affirmative value.
func (f *fields) truthy(key string) bool {
	switch strings.ToLower(f.trimmed(key)) {
	case "true", "on", "1", "yes", "si", "sí":
		return true
	}
	return false
}

// coordinates reads {"lat":..,"lng":..} sent either as a JSON object or as
// JSON text in a form field. Empty text counts as not sent.
func (f *fields) coordinates(key string) (domain.Optional[domain.Coordinates], error) {
	if f.isNull(key) {
		return domain.Some(domain.Coordinates{}), nil
	}

	var text []byte
	if raw, ok := f.raw[key]; ok && bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		text = raw
	} else if v, ok := f.lookup(key); ok {
		text = []byte(strings.TrimSpace(v))
	}
	if len(text) == 0 {
		return domain.Optional[domain.Coordinates]{}, nil
	}

	var c domain.Coordinates
	if err := json.Unmarshal(text, &c); err != nil {
		return domain.Optional[domain.Coordinates]{}, fmt.Errorf("%w: %v", errBadCoordinates, err)
	}
	return domain.Some(c), nil
}

func (f *fields) file(key string) *multipart.FileHeader {
	if fhs := f.files[key]; len(fhs) > 0 {
		return fhs[0]
	}
	return nil
}

// fileCount is how many files were posted under key.
func (f *fields) fileCount(key string) int {
	return len(f.files[key])
}
