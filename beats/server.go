package beats

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Southclaws/fault/ftag"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Repository is the storage the server needs
type Repository interface {
	Create(ctx context.Context, b Beat) (Beat, error)
	Get(ctx context.Context, id int64) (Beat, error)
	List(ctx context.Context) ([]Beat, error)
	Delete(ctx context.Context, id int64, author string) (Beat, error)
}

// Authenticator resolves the author of a request
type Authenticator func(r *http.Request) (author string, ok bool)

// HeaderAuthenticator trusts an author id sent in a header
func HeaderAuthenticator(header string) Authenticator {
	if header == "" {
		header = DefaultAuthorHeader
	}
	return func(r *http.Request) (string, bool) {
		author := strings.TrimSpace(r.Header.Get(header))
		return author, author != ""
	}
}

// Server is the beats REST backend
type Server struct {
	repo          Repository
	authenticate  Authenticator
	validateSound func(string) error
	log           logrus.FieldLogger
	mux           *http.ServeMux
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithAuthenticator replaces the author lookup
func WithAuthenticator(a Authenticator) ServerOption {
	return func(s *Server) { s.authenticate = a }
}

// WithSoundValidator rejects sounds that don't fit the grid
func WithSoundValidator(fn func(string) error) ServerOption {
	return func(s *Server) { s.validateSound = fn }
}

// WithLogger sets the request logger
func WithLogger(l logrus.FieldLogger) ServerOption {
	return func(s *Server) { s.log = l }
}

// NewServer creates the backend and registers its routes
func NewServer(repo Repository, opts ...ServerOption) *Server {
	s := &Server{
		repo:         repo,
		authenticate: HeaderAuthenticator(DefaultAuthorHeader),
		log:          logrus.StandardLogger(),
		mux:          http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("GET /beats", s.handleList)
	s.mux.HandleFunc("POST /beats", s.handleCreate)
	s.mux.HandleFunc("GET /beats/{id}", s.handleGet)
	s.mux.HandleFunc("DELETE /beats/{id}", s.handleDelete)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = uuid.New().String()[:8]
	}
	w.Header().Set("X-Request-ID", reqID)

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)

	s.log.WithFields(logrus.Fields{
		"req":      reqID,
		"method":   r.Method,
		"path":     r.URL.Path,
		"status":   rec.status,
		"duration": time.Since(start).String(),
	}).Info("request")
}

// ListenAndServe runs the server until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("beats server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

type createRequest struct {
	Name  string `json:"name"`
	Sound string `json:"sound"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCreate(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}

	author, authed := s.authenticate(r)

	errs := ErrorPayload{}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs[FieldName] = append(errs[FieldName], MsgBlank)
	}
	if req.Sound == "" {
		errs[FieldSound] = append(errs[FieldSound], MsgBlank)
	} else if s.validateSound != nil {
		if err := s.validateSound(req.Sound); err != nil {
			errs[FieldSound] = append(errs[FieldSound], MsgInvalid)
		}
	}
	if !authed {
		errs[FieldAuthor] = append(errs[FieldAuthor], MsgMissing)
	}
	if len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, errs)
		return
	}

	b := New(name, req.Sound)
	b.AuthorID = author
	saved, err := s.repo.Create(r.Context(), b)
	if err != nil {
		if ftag.Get(err) == ftag.AlreadyExists {
			writeJSON(w, http.StatusUnprocessableEntity, ErrorPayload{FieldName: {MsgTaken}})
			return
		}
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func decodeCreate(r *http.Request) (createRequest, error) {
	var req createRequest
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(&req)
		return req, err
	}
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Name = r.PostForm.Get("name")
	req.Sound = r.PostForm.Get("sound")
	return req, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.repo.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, err := s.repo.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	author, authed := s.authenticate(r)
	if !authed {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorPayload{FieldAuthor: {MsgMissing}})
		return
	}
	b, err := s.repo.Delete(r.Context(), id, author)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return 0, false
	}
	return id, true
}

// fail maps a tagged store error to a status
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch ftag.Get(err) {
	case ftag.NotFound:
		status, msg = http.StatusNotFound, "not found"
	case ftag.PermissionDenied:
		status, msg = http.StatusForbidden, "forbidden"
	case ftag.InvalidArgument:
		status, msg = http.StatusBadRequest, "bad request"
	case ftag.AlreadyExists:
		status, msg = http.StatusConflict, "conflict"
	}
	if status == http.StatusInternalServerError {
		s.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
