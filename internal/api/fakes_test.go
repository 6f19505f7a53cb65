package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/conambiente/conambiente-backend/internal/auth"
	"github.com/conambiente/conambiente-backend/internal/domain"
	"github.com/conambiente/conambiente-backend/internal/mail"
	"github.com/conambiente/conambiente-backend/internal/mail/mailtest"
	"github.com/conambiente/conambiente-backend/internal/upload"
	"github.com/google/uuid"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type memStore struct {
	mu       sync.Mutex
	tick     int
	news     map[string]domain.News
	projects map[string]domain.Project
	subs     map[string]domain.Subscriber
	fail     error
}

func newMemStore() *memStore {
	return &memStore{
		news:     map[string]domain.News{},
		projects: map[string]domain.Project{},
		subs:     map[string]domain.Subscriber{},
	}
}

func (m *memStore) now() time.Time {
	m.tick++
	return baseTime.Add(time.Duration(m.tick) * time.Second)
}

func (m *memStore) CreateNews(_ context.Context, req domain.CreateNewsRequest) (*domain.News, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	now := m.now()
	n := domain.News{
		ID: uuid.NewString(), Titulo: req.Titulo, Resumen: req.Resumen, Contenido: req.Contenido,
		Fecha: req.Fecha, ImagenURL: req.ImagenURL, Categoria: req.Categoria,
		CreatedAt: now, UpdatedAt: now,
	}
	m.news[n.ID] = n
	return &n, nil
}

func (m *memStore) GetNews(_ context.Context, id string) (*domain.News, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	n, ok := m.news[id]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (m *memStore) ListNews(context.Context) ([]domain.News, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	var out []domain.News
	for _, n := range m.news {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) UpdateNews(_ context.Context, id string, req domain.UpdateNewsRequest) (*domain.News, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.news[id]
	if !ok {
		return nil, nil
	}
	n = applyNewsUpdate(n, req)
	n.UpdatedAt = m.now()
	m.news[id] = n
	return &n, nil
}

// or mirrors the SQL partial update: only set fields overwrite the stored value.
func or[T any](o domain.Optional[T], stored T) T {
	if o.Set {
		return o.Value
	}
	return stored
}

func applyNewsUpdate(n domain.News, r domain.UpdateNewsRequest) domain.News {
	n.Titulo = or(r.Titulo, n.Titulo)
	n.Resumen = or(r.Resumen, n.Resumen)
	n.Contenido = or(r.Contenido, n.Contenido)
	n.Fecha = or(r.Fecha, n.Fecha)
	n.ImagenURL = or(r.ImagenURL, n.ImagenURL)
	n.Categoria = or(r.Categoria, n.Categoria)
	return n
}

func applyProjectUpdate(p domain.Project, r domain.UpdateProjectRequest) domain.Project {
	p.Nombre = or(r.Nombre, p.Nombre)
	p.Descripcion = or(r.Descripcion, p.Descripcion)
	p.Departamento = or(r.Departamento, p.Departamento)
	p.Municipio = or(r.Municipio, p.Municipio)
	p.Estado = or(r.Estado, p.Estado)
	p.FechaInicio = or(r.FechaInicio, p.FechaInicio)
	p.FechaFin = or(r.FechaFin, p.FechaFin)
	p.Coordenadas = or(r.Coordenadas, p.Coordenadas)
	p.ImagenURL = or(r.ImagenURL, p.ImagenURL)
	return p
}

func (m *memStore) DeleteNews(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.news[id]
	delete(m.news, id)
	return ok, nil
}

func (m *memStore) CreateProject(_ context.Context, req domain.CreateProjectRequest) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	p := domain.Project{
		ID: uuid.NewString(), Nombre: req.Nombre, Descripcion: req.Descripcion,
		Departamento: req.Departamento, Municipio: req.Municipio, Estado: req.Estado,
		FechaInicio: req.FechaInicio, FechaFin: req.FechaFin, Coordenadas: req.Coordenadas,
		ImagenURL: req.ImagenURL, CreatedAt: now, UpdatedAt: now,
	}
	m.projects[p.ID] = p
	return &p, nil
}

func (m *memStore) GetProject(_ context.Context, id string) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memStore) ListProjects(_ context.Context, departamento string) ([]domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Project
	for _, p := range m.projects {
		if departamento == "" || p.Departamento == departamento {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) UpdateProject(_ context.Context, id string, req domain.UpdateProjectRequest) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, nil
	}
	p = applyProjectUpdate(p, req)
	p.UpdatedAt = m.now()
	m.projects[id] = p
	return &p, nil
}

func (m *memStore) DeleteProject(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.projects[id]
	delete(m.projects, id)
	return ok, nil
}

func (m *memStore) Subscribe(_ context.Context, email string) (*domain.Subscriber, domain.SubscribeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[email]
	switch {
	case !ok:
		now := m.now()
		s = domain.Subscriber{ID: uuid.NewString(), Email: email, Activo: true, CreatedAt: now, UpdatedAt: now}
		m.subs[email] = s
		return &s, domain.SubscribeCreated, nil
	case !s.Activo:
		s.Activo = true
		s.UpdatedAt = m.now()
		m.subs[email] = s
		return &s, domain.SubscribeReactivated, nil
	default:
		return &s, domain.SubscribeAlreadyActive, nil
	}
}

func (m *memStore) Unsubscribe(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[email]
	if !ok {
		return false, nil
	}
	s.Activo = false
	m.subs[email] = s
	return true, nil
}

type recordingAnnouncer struct {
	mu        sync.Mutex
	announced []domain.News
}

func (a *recordingAnnouncer) Announce(n domain.News) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.announced = append(a.announced, n)
}

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

const (
	testAdminEmail    = "admin@conambiente.com"
	testAdminPassword = "s3cret"
)

type testEnv struct {
	handler   http.Handler
	store     *memStore
	mail      *mailtest.Recorder
	announcer *recordingAnnouncer
	auth      *auth.Authenticator
	health    map[string]Pinger
	queue     int64
	logs      *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	disk, err := upload.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	env := &testEnv{
		store:     newMemStore(),
		mail:      &mailtest.Recorder{},
		announcer: &recordingAnnouncer{},
		auth:      auth.NewAuthenticator(testAdminEmail, testAdminPassword, "test-secret"),
		health:    map[string]Pinger{"postgres": pingerFunc(func(context.Context) error { return nil })},
		logs:      &bytes.Buffer{},
	}
	env.handler = NewRouter(Deps{
		News:        env.store,
		Projects:    env.store,
		Subscribers: env.store,
		Announcer:   env.announcer,
		Auth:        env.auth,
		AdminEmail:  testAdminEmail,
		Uploader:    upload.NewUploader(disk),
		Mail:        env.mail,
		Composer:    mail.NewComposer("Conambiente"),
		Recipients: Recipients{
			Contact: "contacto@conambiente.com",
			PQR:     "pqr@conambiente.com",
			Work:    "rrhh@conambiente.com",
		},
		AllowedOrigins: []string{"https://conambiente.com"},
		DBTimeout:      time.Second,
		Health:         env.health,
		QueueDepth:     func(context.Context) (int64, error) { return env.queue, nil },
		Logger:         slog.New(slog.NewJSONHandler(env.logs, nil)),
	})
	return env
}

func (e *testEnv) token(t *testing.T) string {
	t.Helper()
	tok, err := e.auth.Login(testAdminEmail, testAdminPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return tok
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, path string, body any, token string) *http.Request {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

type testFile struct {
	field, name, contentType string
	data                     []byte
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, file *testFile, token string) *http.Request {
	t.Helper()
	var files []testFile
	if file != nil {
		files = append(files, *file)
	}
	return multipartFilesRequest(t, method, path, fields, files, token)
}

func multipartFilesRequest(t *testing.T, method, path string, fields map[string]string, files []testFile, token string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	for _, file := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.field, file.name))
		h.Set("Content-Type", file.contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		part.Write(file.data)
	}
	mw.Close()

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return v
}

var errStoreDown = errors.New("store down")
