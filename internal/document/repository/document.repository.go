package repository

import (
	"context"
	"strconv"

	"techdocs/internal/document/model"
	"techdocs/pkg/apiclient"
	"techdocs/pkg/logger"
)

const documentsPath = "/api/documents"

type DocumentRepository struct {
	API *apiclient.Client
}

func NewDocumentRepository(api *apiclient.Client) *DocumentRepository {
	return &DocumentRepository{API: api}
}

func documentPath(id int64) string {
	return documentsPath + "/" + strconv.FormatInt(id, 10)
}

func (r *DocumentRepository) List(ctx context.Context) ([]model.Document, error) {
	var docs []model.Document
	if err := r.API.Get(ctx, documentsPath, &docs); err != nil {
		logger.Sugar.Errorf("Failed to list documents: %v", err)
		return nil, err
	}
	if docs == nil {
		docs = []model.Document{}
	}
	return docs, nil
}

func (r *DocumentRepository) Get(ctx context.Context, id int64) (*model.Document, error) {
	var doc model.Document
	if err := r.API.Get(ctx, documentPath(id), &doc); err != nil {
		logger.Sugar.Errorf("Failed to get document %d: %v", id, err)
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository) Create(ctx context.Context, payload model.DocumentPayload) (*model.Document, error) {
	var doc model.Document
	if err := r.API.Post(ctx, documentsPath, payload, &doc); err != nil {
		logger.Sugar.Errorf("Failed to create document: %v", err)
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository) Update(ctx context.Context, id int64, payload model.DocumentPayload) (*model.Document, error) {
	var doc model.Document
	if err := r.API.Put(ctx, documentPath(id), payload, &doc); err != nil {
		logger.Sugar.Errorf("Failed to update document %d: %v", id, err)
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id int64) error {
	if err := r.API.Delete(ctx, documentPath(id), nil); err != nil {
		logger.Sugar.Errorf("Failed to delete document %d: %v", id, err)
		return err
	}
	return nil
}
