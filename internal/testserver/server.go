// Package testserver runs an in-process documentation API for tests. It keeps
// users and documents in memory, signs real HS256 tokens, and can be told to
// fail or stall specific requests.
package testserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	authmodel "techdocs/internal/auth/model"
	docmodel "techdocs/internal/document/model"

	"github.com/gorilla/mux"
)

type Request struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
	Body          []byte
}

type failure struct {
	method, path string
	status       int
	message      string
}

type account struct {
	password string
	user     authmodel.User
}

type Server struct {
	*httptest.Server
	Secret []byte

	mu         sync.Mutex
	accounts   map[string]account
	documents  []docmodel.Document
	nextUserID int64
	nextDocID  int64
	requests   []Request
	failures   []failure
	holds      map[string]chan struct{}
}

// New starts a server that is closed when the test ends.
func New(t testing.TB) *Server {
	s := &Server{
		Secret:   []byte("test-secret"),
		accounts: make(map[string]account),
		holds:    make(map[string]chan struct{}),
	}
	s.Server = httptest.NewServer(s.record(s.routes()))
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/auth/login", s.login).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/register", s.register).Methods(http.MethodPost)
	r.HandleFunc("/api/documents", s.authMiddleware(s.listDocuments)).Methods(http.MethodGet)
	r.HandleFunc("/api/documents", s.authMiddleware(s.createDocument)).Methods(http.MethodPost)
	r.HandleFunc("/api/documents/{id:[0-9]+}", s.authMiddleware(s.getDocument)).Methods(http.MethodGet)
	r.HandleFunc("/api/documents/{id:[0-9]+}", s.authMiddleware(s.updateDocument)).Methods(http.MethodPut)
	r.HandleFunc("/api/documents/{id:[0-9]+}", s.authMiddleware(s.deleteDocument)).Methods(http.MethodDelete)
	return r
}

// AddUser registers an account directly, bypassing the API.
func (s *Server) AddUser(username, email, password string) authmodel.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, email, password)
}

func (s *Server) addUserLocked(username, email, password string) authmodel.User {
	s.nextUserID++
	u := authmodel.User{ID: s.nextUserID, Username: username, Email: email, Role: "user"}
	s.accounts[username] = account{password: password, user: u}
	return u
}

// SeedDocument stores d, assigning the next ID when d.ID is zero.
func (s *Server) SeedDocument(d docmodel.Document) docmodel.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == 0 {
		s.nextDocID++
		d.ID = s.nextDocID
	} else if d.ID > s.nextDocID {
		s.nextDocID = d.ID
	}
	if d.Tags == nil {
		d.Tags = []docmodel.Tag{}
	}
	s.documents = append(s.documents, d)
	return d
}

func (s *Server) Documents() []docmodel.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]docmodel.Document(nil), s.documents...)
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestCount counts recorded requests matching method and path exactly.
func (s *Server) RequestCount(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Fail makes the next request matching method and path answer with status
// and {"error": message}. An empty message sends an empty body.
func (s *Server) Fail(method, path string, status int, message string) {
	s.mu.Lock()
	s.failures = append(s.failures, failure{method: method, path: path, status: status, message: message})
	s.mu.Unlock()
}

// Hold stalls requests matching method and path until release is called.
func (s *Server) Hold(method, path string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.holds[method+" "+path] = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.holds, method+" "+path)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			Body:          body,
		})
		hold := s.holds[r.Method+" "+r.URL.Path]
		var injected *failure
		for i, f := range s.failures {
			if f.method == r.Method && f.path == r.URL.Path {
				injected = &f
				s.failures = append(s.failures[:i], s.failures[i+1:]...)
				break
			}
		}
		s.mu.Unlock()

		if hold != nil {
			<-hold
		}
		if injected != nil {
			if injected.message == "" {
				w.WriteHeader(injected.status)
				return
			}
			writeError(w, injected.status, injected.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds authmodel.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[creds.Username]
	s.mu.Unlock()
	if !ok || acc.password != creds.Password {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	writeJSON(w, http.StatusOK, authmodel.AuthResponse{Token: s.IssueToken(acc.user.ID, time.Hour), User: acc.user})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req authmodel.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Email == "" || len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "username, email and a password of at least 6 characters are required")
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[req.Username]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "username already exists")
		return
	}
	user := s.addUserLocked(req.Username, req.Email, req.Password)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, authmodel.AuthResponse{Token: s.IssueToken(user.ID, time.Hour), User: user})
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Documents())
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		writeJSON(w, http.StatusOK, s.documents[i])
		return
	}
	writeError(w, http.StatusNotFound, "Document not found")
}

func (s *Server) createDocument(w http.ResponseWriter, r *http.Request) {
	var req docmodel.DocumentPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	now := time.Now().UTC()
	doc := applyPayload(docmodel.Document{
		AuthorID:  r.Context().Value(UserIDKey).(int64),
		Version:   1,
		CreatedAt: now,
	}, req, now)

	s.mu.Lock()
	s.nextDocID++
	doc.ID = s.nextDocID
	s.documents = append(s.documents, doc)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) updateDocument(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	var req docmodel.DocumentPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Document not found")
		return
	}
	doc := applyPayload(s.documents[i], req, time.Now().UTC())
	doc.Version++
	s.documents[i] = doc
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Document not found")
		return
	}
	s.documents = append(s.documents[:i], s.documents[i+1:]...)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Document deleted successfully"})
}

func (s *Server) indexLocked(id int64) int {
	for i, d := range s.documents {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func applyPayload(doc docmodel.Document, p docmodel.DocumentPayload, now time.Time) docmodel.Document {
	doc.Title = p.Title
	doc.Content = p.Content
	doc.Category = p.Category
	doc.Tags = append([]docmodel.Tag{}, p.Tags...)
	doc.ServiceID = p.ServiceID
	doc.IsPublished = p.IsPublished
	doc.UpdatedAt = now
	return doc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
