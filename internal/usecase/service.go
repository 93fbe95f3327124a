package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"

	"resumerag/internal/adapter/analyzer"
	"resumerag/internal/adapter/retriever"
	"resumerag/internal/domain"
	"resumerag/internal/port"
)

// Record metadata keys written at ingest time.
const (
	MetaDocName = "doc_name"
	MetaSource  = "source"
	MetaSection = "section"
	MetaSeq     = "seq"
	MetaPage    = retriever.MetaPage
)

const (
	DefaultTopK              = 6
	DefaultMinRelevanceScore = 0.25
	DefaultGenerationTimeout = 120 * time.Second
)

var pageMarker = regexp.MustCompile(`\[PAGE (\d+)\]`)

// Options tune retrieval and the generation step.
type Options struct {
	TopK              int
	MinRelevanceScore float64
	GenerationTimeout time.Duration
}

// Deps are the collaborators of a Service. Generator may be nil, in which
// case every request ends in the evidence-only fallback. Retriever defaults
// to a semantic retriever over Store and Embedder.
type Deps struct {
	Chunker   port.Chunker
	Embedder  port.Embedder
	Store     port.DocumentStore
	Retriever port.Retriever
	Generator port.Generator
	Logger    *slog.Logger
}

// Service ingests resumes and answers evidence-gated questions about them.
type Service struct {
	chunker   port.Chunker
	embedder  port.Embedder
	store     port.DocumentStore
	retriever port.Retriever
	generator port.Generator
	tokenizer *analyzer.Tokenizer
	opts      Options
	logger    *slog.Logger
}

// NewService creates a new Service.
func NewService(deps Deps, opts Options) *Service {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = DefaultGenerationTimeout
	}
	if deps.Retriever == nil {
		deps.Retriever = retriever.NewSemanticRetriever(deps.Store, deps.Embedder)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return &Service{
		chunker:   deps.Chunker,
		embedder:  deps.Embedder,
		store:     deps.Store,
		retriever: deps.Retriever,
		generator: deps.Generator,
		tokenizer: analyzer.NewTokenizer(),
		opts:      opts,
		logger:    deps.Logger,
	}
}

// HasGenerator reports whether a generation backend is configured.
func (s *Service) HasGenerator() bool {
	return s.generator != nil
}

// GeneratorName returns the backend model name, or "" without a backend.
func (s *Service) GeneratorName() string {
	if s.generator == nil {
		return ""
	}
	return s.generator.ModelName()
}

func (s *Service) Options() Options {
	return s.opts
}

func (s *Service) requestLogger(op string) *slog.Logger {
	return s.logger.With("op", op, "request_id", uuid.NewString())
}

// Ingest segments, embeds and stores rawText as docName and returns the ids
// of the stored chunks. Text that yields no chunks is a no-op.
func (s *Service) Ingest(ctx context.Context, docName, rawText string) ([]string, error) {
	return s.IngestDocument(ctx, domain.Document{Name: docName, Text: rawText})
}

// IngestDocument is Ingest with loader metadata carried onto every record.
// Records of an earlier version of the document that are no longer produced
// are removed in the same write.
func (s *Service) IngestDocument(ctx context.Context, doc domain.Document) ([]string, error) {
	if doc.Name == "" {
		return nil, fmt.Errorf("document name is required")
	}

	chunks := s.chunker.Segment(doc.Text, doc.Name)
	if len(chunks) == 0 {
		s.logger.Debug("document produced no chunks", "doc", doc.Name)
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.Embed(texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %s: %w", doc.Name, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("failed to embed %s: got %d vectors for %d chunks", doc.Name, len(vectors), len(chunks))
	}

	pages := attributePages(chunks)
	records := make([]domain.StoredRecord, len(chunks))
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		records[i] = domain.StoredRecord{
			Chunk:    c,
			Vector:   vectors[i],
			Metadata: recordMetadata(doc, c, pages[i]),
		}
		ids[i] = c.ID
	}

	removed, err := s.store.ReplaceDoc(ctx, doc.Name, records)
	if err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", doc.Name, err)
	}
	s.invalidate()

	s.logger.Info("document ingested", "doc", doc.Name, "chunks", len(ids), "stale_removed", removed)
	return ids, nil
}

func recordMetadata(doc domain.Document, c domain.Chunk, page int) map[string]string {
	meta := make(map[string]string, len(doc.Meta)+5)
	for k, v := range doc.Meta {
		meta[k] = v
	}
	if meta[MetaSource] == "" {
		meta[MetaSource] = doc.Name
	}
	meta[MetaDocName] = doc.Name
	meta[MetaSection] = c.Section
	meta[MetaSeq] = strconv.Itoa(c.Sequence)
	if page > 0 {
		meta[MetaPage] = strconv.Itoa(page)
	}
	return meta
}

// attributePages assigns each chunk the first [PAGE n] marker it contains,
// or else the last page marker seen in an earlier chunk. 0 means unknown.
func attributePages(chunks []domain.Chunk) []int {
	pages := make([]int, len(chunks))
	last := 0
	for i, c := range chunks {
		matches := pageMarker.FindAllStringSubmatch(c.Text, -1)
		if len(matches) == 0 {
			pages[i] = last
			continue
		}
		first, _ := strconv.Atoi(matches[0][1])
		pages[i] = first
		last, _ = strconv.Atoi(matches[len(matches)-1][1])
	}
	return pages
}

// ListDocuments returns the names of all ingested documents, sorted.
func (s *Service) ListDocuments(ctx context.Context) ([]string, error) {
	names, err := s.store.ListDocNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return names, nil
}

// DeleteDocument removes one document and returns how many chunks it had.
func (s *Service) DeleteDocument(ctx context.Context, docName string) (int, error) {
	n, err := s.store.DeleteDoc(ctx, docName)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s: %w", docName, err)
	}
	s.invalidate()
	return n, nil
}

// Reset deletes every stored record.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}
	s.invalidate()
	s.logger.Info("store reset")
	return nil
}

// Count returns the number of stored chunks.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

func (s *Service) invalidate() {
	if inv, ok := s.retriever.(interface{ Invalidate() }); ok {
		inv.Invalidate()
	}
}
