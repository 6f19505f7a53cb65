// Package upload validates multipart files against per-field allow-lists and
// persists them under collision-resistant names. Stored files are never
// cleaned up; a failed downstream step leaves the file in place.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const (
	// MaxFileSize is the largest accepted file, in bytes.
	MaxFileSize = 10 << 20

	FieldImage = "imagen"
	FieldCV    = "cv"

	// URLPrefix is the public path under which stored files are served.
	URLPrefix = "/uploads/"
)

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrPayloadTooLarge      = errors.New("payload too large")
	ErrNotFound             = errors.New("file not found")
)

// kind ties an accepted extension to the types a client may declare for it
// and the type http.DetectContentType reports for its leading bytes.
type kind struct {
	declared []string
	sniffed  string
}

var imageKinds = map[string]kind{
	".jpg":  {declared: []string{"image/jpeg", "image/jpg"}, sniffed: "image/jpeg"},
	".jpeg": {declared: []string{"image/jpeg", "image/jpg"}, sniffed: "image/jpeg"},
	".png":  {declared: []string{"image/png"}, sniffed: "image/png"},
	".webp": {declared: []string{"image/webp"}, sniffed: "image/webp"},
}

// Legacy .doc files have no sniffing signature; .docx is a zip container.
var cvKinds = map[string]kind{
	".pdf":  {declared: []string{"application/pdf"}, sniffed: "application/pdf"},
	".doc":  {declared: []string{"application/msword"}, sniffed: "application/octet-stream"},
	".docx": {declared: []string{"application/vnd.openxmlformats-officedocument.wordprocessingml.document"}, sniffed: "application/zip"},
}

// sniffLen is how many leading bytes http.DetectContentType considers.
const sniffLen = 512

// File describes an accepted, persisted upload.
type File struct {
	Name         string
	OriginalName string
	ContentType  string
	Size         int64
}

// URL is the relative public path of the stored file.
func (f *File) URL() string {
	return URLPrefix + f.Name
}

// Uploader accepts files into a Store.
type Uploader struct {
	store Store
	now   func() time.Time
	rand  func(n int) int
}

func NewUploader(store Store) *Uploader {
	return &Uploader{store: store, now: time.Now, rand: rand.Intn}
}

// Store returns the backing store, used to read stored files back.
func (u *Uploader) Store() Store {
	return u.store
}

func kindsFor(field string) map[string]kind {
	if field == FieldCV {
		return cvKinds
	}
	return imageKinds
}

// fileExt is the lower-cased extension of the base of filename.
func fileExt(filename string) string {
	return strings.ToLower(filepath.Ext(filepath.Base(filename)))
}

// Check validates a file's name and declared type against the allow-list for
// field and its size against MaxFileSize. The extension must be one the field
// accepts and the declared type must match it.
func Check(field, filename, contentType string, size int64) error {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedMediaType, contentType)
	}
	mediaType = strings.ToLower(mediaType)

	ext := fileExt(filename)
	k, ok := kindsFor(field)[ext]
	if !ok {
		return fmt.Errorf("%w: extension %q for field %s", ErrUnsupportedMediaType, ext, field)
	}
	if !slices.Contains(k.declared, mediaType) {
		return fmt.Errorf("%w: %s does not match extension %s", ErrUnsupportedMediaType, mediaType, ext)
	}
	if size > MaxFileSize {
		return fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, size)
	}
	return nil
}

// CheckContent verifies that the leading bytes of a file look like the type
// its extension claims.
func CheckContent(field, filename string, head []byte) error {
	ext := fileExt(filename)
	k, ok := kindsFor(field)[ext]
	if !ok {
		return fmt.Errorf("%w: extension %q for field %s", ErrUnsupportedMediaType, ext, field)
	}
	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(head))
	if sniffed != k.sniffed {
		return fmt.Errorf("%w: content looks like %s, not %s", ErrUnsupportedMediaType, sniffed, ext)
	}
	return nil
}

// Accept validates fh for field and writes it to the store.
func (u *Uploader) Accept(ctx context.Context, field string, fh *multipart.FileHeader) (*File, error) {
	contentType := fh.Header.Get("Content-Type")
	if err := Check(field, fh.Filename, contentType, fh.Size); err != nil {
		return nil, err
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload: %w", err)
	}
	defer src.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	head = head[:n]
	if err := CheckContent(field, fh.Filename, head); err != nil {
		return nil, err
	}

	f := &File{
		Name:         u.generateName(fileExt(fh.Filename)),
		OriginalName: filepath.Base(fh.Filename),
		ContentType:  contentType,
		Size:         fh.Size,
	}
	body := io.MultiReader(bytes.NewReader(head), src)
	if err := u.store.Save(ctx, f.Name, contentType, body, fh.Size); err != nil {
		return nil, fmt.Errorf("storing upload %s: %w", f.Name, err)
	}
	return f, nil
}

// generateName returns "{unix-millis}-{random}{ext}" for an already validated
// extension.
func (u *Uploader) generateName(ext string) string {
	return fmt.Sprintf("%d-%d%s", u.now().UnixMilli(), u.rand(1_000_000_000), ext)
}
// validName reports whether name is a plain file name with no path elements.
func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}
