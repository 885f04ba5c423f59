package model

import (
	"errors"
	"time"
)

var (
	ErrMissingDocumentID = errors.New("No document ID provided")
	ErrInvalidDocumentID = errors.New("Invalid document ID")
	ErrInvalidServiceID  = errors.New("Invalid service ID format")
)

type Tag struct {
	Name string `json:"name" yaml:"name"`
}

// Document is the server's representation of a managed document.
type Document struct {
	ID          int64     `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Content     string    `json:"content" yaml:"content"`
	Category    string    `json:"category,omitempty" yaml:"category,omitempty"`
	Tags        []Tag     `json:"tags" yaml:"tags"`
	ServiceID   *int64    `json:"serviceId" yaml:"serviceId"`
	AuthorID    int64     `json:"author_id,omitempty" yaml:"author_id,omitempty"`
	Version     int       `json:"version,omitempty" yaml:"version,omitempty"`
	IsPublished bool      `json:"is_published" yaml:"is_published"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// DocumentPayload is the normalized body sent on create and update.
type DocumentPayload struct {
	ID          int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Title       string `json:"title" yaml:"title"`
	Content     string `json:"content" yaml:"content"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	Tags        []Tag  `json:"tags" yaml:"tags"`
	ServiceID   *int64 `json:"serviceId" yaml:"serviceId"`
	IsPublished bool   `json:"is_published" yaml:"is_published"`
}

// DocumentInput is a document as supplied by a caller, before normalization.
// Tags and ServiceID accept several shapes; Normalize reduces them to one.
type DocumentInput struct {
	ID          int64          `json:"id,omitempty" yaml:"id,omitempty"`
	Title       string         `json:"title" yaml:"title"`
	Content     string         `json:"content" yaml:"content"`
	Category    string         `json:"category,omitempty" yaml:"category,omitempty"`
	Tags        []TagInput     `json:"tags" yaml:"tags"`
	ServiceID   ServiceIDInput `json:"serviceId" yaml:"serviceId"`
	IsPublished bool           `json:"is_published" yaml:"is_published"`
}

// Normalize validates the input and returns the body to send. It fails with
// ErrInvalidServiceID before anything leaves the process.
func (in DocumentInput) Normalize() (DocumentPayload, error) {
	serviceID, err := in.ServiceID.Normalize()
	if err != nil {
		return DocumentPayload{}, err
	}

	tags := make([]Tag, 0, len(in.Tags))
	for _, t := range in.Tags {
		tags = append(tags, t.Normalize())
	}

	return DocumentPayload{
		ID:          in.ID,
		Title:       in.Title,
		Content:     in.Content,
		Category:    in.Category,
		Tags:        tags,
		ServiceID:   serviceID,
		IsPublished: in.IsPublished,
	}, nil
}

// InputFrom turns a fetched document back into an input, e.g. to edit it.
func InputFrom(d Document) DocumentInput {
	tags := make([]TagInput, len(d.Tags))
	for i, t := range d.Tags {
		tags[i] = TagObject(t)
	}
	in := DocumentInput{
		ID:          d.ID,
		Title:       d.Title,
		Content:     d.Content,
		Category:    d.Category,
		Tags:        tags,
		IsPublished: d.IsPublished,
	}
	if d.ServiceID != nil {
		in.ServiceID = ServiceIDFromInt(*d.ServiceID)
	}
	return in
}
