package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"techdocs/internal/document/model"
	"techdocs/internal/document/repository"
	"techdocs/pkg/apiclient"
	"techdocs/pkg/logger"
	"techdocs/socket"

	"github.com/google/uuid"
)

const (
	OpFetchAll  = "fetchAll"
	OpFetchByID = "fetchById"
	OpCreate    = "create"
	OpUpdate    = "update"
	OpDelete    = "delete"
)

var fallbackMessages = map[string]string{
	OpFetchAll:  "Failed to fetch documents",
	OpFetchByID: "Failed to fetch document",
	OpCreate:    "Failed to create document",
	OpUpdate:    "Failed to update document",
	OpDelete:    "Failed to delete document",
}

// OpError is a failed document operation. Message is what the server said,
// or a fixed per-operation fallback when it said nothing.
type OpError struct {
	Op      string
	Message string
	Err     error
}

func (e *OpError) Error() string { return e.Message }

func (e *OpError) Unwrap() error { return e.Err }

// Operation is one in-flight call, identified by its correlation ID.
type Operation struct {
	ID        string
	Op        string
	StartedAt time.Time
}

// DocumentService caches the document collection. The cache only changes
// after the server acknowledged a call.
type DocumentService struct {
	Repo *repository.DocumentRepository
	Hub  *socket.Hub

	mu        sync.RWMutex
	documents []model.Document
	inflight  map[string]Operation
}

func NewDocumentService(repo *repository.DocumentRepository, hub *socket.Hub) *DocumentService {
	return &DocumentService{
		Repo:      repo,
		Hub:       hub,
		documents: []model.Document{},
		inflight:  make(map[string]Operation),
	}
}

// FetchAll replaces the cached collection with the server's.
func (s *DocumentService) FetchAll(ctx context.Context) (docs []model.Document, err error) {
	done := s.begin(ctx, OpFetchAll)
	defer func() { done(err) }()

	docs, err = s.Repo.List(ctx)
	if err != nil {
		return nil, failure(OpFetchAll, err)
	}

	s.mu.Lock()
	s.documents = append([]model.Document{}, docs...)
	s.mu.Unlock()
	return docs, nil
}

// FetchByID retrieves one document without touching the cache. id must be a
// positive integer; anything else fails before a request is made.
func (s *DocumentService) FetchByID(ctx context.Context, id string) (doc *model.Document, err error) {
	docID, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	done := s.begin(ctx, OpFetchByID)
	defer func() { done(err) }()

	doc, err = s.Repo.Get(ctx, docID)
	if err != nil {
		return nil, failure(OpFetchByID, err)
	}
	return doc, nil
}

// Create sends the normalized input and appends the server's copy to the
// cache. Existing IDs are not checked.
func (s *DocumentService) Create(ctx context.Context, in model.DocumentInput) (doc *model.Document, err error) {
	payload, err := in.Normalize()
	if err != nil {
		return nil, err
	}

	done := s.begin(ctx, OpCreate)
	defer func() { done(err) }()

	doc, err = s.Repo.Create(ctx, payload)
	if err != nil {
		return nil, failure(OpCreate, err)
	}

	s.mu.Lock()
	s.documents = append(s.documents, *doc)
	s.mu.Unlock()
	return doc, nil
}

// Update sends the normalized input and replaces the cached entry with the
// same ID. A document that is not cached stays uncached.
func (s *DocumentService) Update(ctx context.Context, in model.DocumentInput) (doc *model.Document, err error) {
	if in.ID == 0 {
		return nil, model.ErrMissingDocumentID
	}
	if in.ID < 0 {
		return nil, model.ErrInvalidDocumentID
	}
	payload, err := in.Normalize()
	if err != nil {
		return nil, err
	}

	done := s.begin(ctx, OpUpdate)
	defer func() { done(err) }()

	doc, err = s.Repo.Update(ctx, in.ID, payload)
	if err != nil {
		return nil, failure(OpUpdate, err)
	}

	s.mu.Lock()
	for i := range s.documents {
		if s.documents[i].ID == in.ID {
			s.documents[i] = *doc
			break
		}
	}
	s.mu.Unlock()
	return doc, nil
}

// Delete removes every cached entry with id once the server confirmed it.
func (s *DocumentService) Delete(ctx context.Context, id int64) (err error) {
	if id <= 0 {
		return model.ErrInvalidDocumentID
	}

	done := s.begin(ctx, OpDelete)
	defer func() { done(err) }()

	if err := s.Repo.Delete(ctx, id); err != nil {
		return failure(OpDelete, err)
	}

	s.mu.Lock()
	kept := s.documents[:0]
	for _, d := range s.documents {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	s.documents = kept
	s.mu.Unlock()
	return nil
}

// Documents returns a copy of the cached collection.
func (s *DocumentService) Documents() []model.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Document{}, s.documents...)
}

// Loading reports whether any operation is in flight.
func (s *DocumentService) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.inflight) > 0
}

// InFlight lists running operations, oldest first.
func (s *DocumentService) InFlight() []Operation {
	s.mu.RLock()
	ops := make([]Operation, 0, len(s.inflight))
	for _, op := range s.inflight {
		ops = append(ops, op)
	}
	s.mu.RUnlock()

	sort.Slice(ops, func(i, j int) bool { return ops[i].StartedAt.Before(ops[j].StartedAt) })
	return ops
}

// begin registers an operation and returns the function that retires it.
func (s *DocumentService) begin(ctx context.Context, op string) func(error) {
	entry := Operation{ID: uuid.NewString(), Op: op, StartedAt: time.Now()}

	s.mu.Lock()
	s.inflight[entry.ID] = entry
	s.mu.Unlock()
	s.Hub.Publish(ctx, socket.Event{Type: socket.OperationType, OpID: entry.ID, Op: op, State: socket.StateStarted})

	return func(err error) {
		s.mu.Lock()
		delete(s.inflight, entry.ID)
		s.mu.Unlock()

		ev := socket.Event{Type: socket.OperationType, OpID: entry.ID, Op: op, State: socket.StateSucceeded}
		if err != nil {
			ev.State = socket.StateFailed
			ev.Message = err.Error()
		}
		s.Hub.Publish(ctx, ev)
	}
}

func failure(op string, err error) error {
	msg := apiclient.Message(err)
	if msg == "" {
		msg = fallbackMessages[op]
	}
	logger.Sugar.Debugf("Document %s failed: %s", op, msg)
	return &OpError{Op: op, Message: msg, Err: err}
}

// ParseID validates a document ID given as text.
func ParseID(id string) (int64, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0, model.ErrMissingDocumentID
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, model.ErrInvalidDocumentID
	}
	return n, nil
}
