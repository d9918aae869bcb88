// Package ingest makes a vector store collection converge to the contents of
// a batch source without redundant embedding calls.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/andrew/rag-pipeline/pkg/llm"
	"github.com/andrew/rag-pipeline/pkg/models"
	"github.com/andrew/rag-pipeline/pkg/vector"
)

// Outcome classifies what happened to one record during ingestion.
type Outcome string

const (
	// OutcomeCreated means the record was embedded and written
	OutcomeCreated Outcome = "created"
	// OutcomeSkipped means an item with the same id already existed
	OutcomeSkipped Outcome = "skipped"
)

// ItemResult is the per-record entry of an ingestion report.
type ItemResult struct {
	ID      string  `json:"id"`
	Outcome Outcome `json:"outcome"`
}

// Report summarizes one UpsertBatch call. Results follow the source order of
// the batch.
type Report struct {
	Results []ItemResult `json:"results"`
}

// Created returns the number of records that were embedded and written.
func (r Report) Created() int { return r.count(OutcomeCreated) }

// Skipped returns the number of records that already existed.
func (r Report) Skipped() int { return r.count(OutcomeSkipped) }

func (r Report) count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// ProgressFunc observes per-record progress during a batch. current counts
// from 1 to total. Progress is purely observational and has no effect on the
// outcome of the batch.
type ProgressFunc func(current, total int, result ItemResult)

// Engine ingests records into a vector store through an embedder.
type Engine struct {
	store    vector.Store
	embedder llm.Embedder
	progress ProgressFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithProgress registers a progress callback invoked after each record.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) { e.progress = fn }
}

// NewEngine creates an ingestion engine over the given store and embedder.
func NewEngine(store vector.Store, embedder llm.Embedder, opts ...Option) *Engine {
	e := &Engine{store: store, embedder: embedder}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// UpsertBatch processes records in source order. A record whose id already
// exists in the store is skipped without an embedding call; everything else
// is embedded and written. The first embedding or write failure stops the
// batch; the returned report covers the records processed up to that point.
//
// The existence check fails open: any lookup error, not just a clean
// not-found, classifies the record as missing. A flaky store therefore costs
// redundant embedding calls, never a lost record.
func (e *Engine) UpsertBatch(ctx context.Context, records []models.Record) (Report, error) {
	report := Report{Results: make([]ItemResult, 0, len(records))}
	total := len(records)

	for i, rec := range records {
		outcome, err := e.upsertOne(ctx, rec)
		if err != nil {
			return report, fmt.Errorf("record %q (%d/%d): %w", rec.ID, i+1, total, err)
		}

		result := ItemResult{ID: rec.ID, Outcome: outcome}
		report.Results = append(report.Results, result)
		if e.progress != nil {
			e.progress(i+1, total, result)
		}
	}

	return report, nil
}

func (e *Engine) upsertOne(ctx context.Context, rec models.Record) (Outcome, error) {
	// Request the embedding on lookup to confirm the item was fully
	// materialized, not just partially written.
	if _, err := e.store.Get(ctx, rec.ID, true); err == nil {
		return OutcomeSkipped, nil
	}

	embedding, err := e.embedder.Embed(ctx, rec.Content)
	if err != nil {
		return "", fmt.Errorf("embedding failed: %w", err)
	}

	metadata, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal record metadata: %w", err)
	}

	item := models.StoredItem{
		ID:                 rec.ID,
		Text:               rec.Content,
		Embedding:          embedding,
		Description:        rec.Title,
		AdditionalMetadata: string(metadata),
	}
	if err := e.store.Upsert(ctx, item); err != nil {
		return "", fmt.Errorf("store write failed: %w", err)
	}

	return OutcomeCreated, nil
}
