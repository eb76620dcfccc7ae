package memory

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/contractintel/backend/internal/metrics"
	"github.com/contractintel/backend/internal/storage/models"
)

// Metric counter names recognized by Increment.
const (
	MetricIngests     = "total_ingests"
	MetricExtractions = "total_extractions"
	MetricQuestions   = "total_questions"
	MetricAudits      = "total_audits"
)

// Store is a volatile in-memory document store. Contents live for the
// process lifetime only; there is no deletion and no eviction. The documents
// map is guarded by an RWMutex and the counters are atomic, which is all the
// synchronization the store promises.
type Store struct {
	mu    sync.RWMutex
	docs  map[string]*models.Document
	order []string

	ingests     atomic.Int64
	extractions atomic.Int64
	questions   atomic.Int64
	audits      atomic.Int64
}

func NewStore() *Store {
	return &Store{
		docs: make(map[string]*models.Document),
	}
}

// Store creates or overwrites a document and counts an ingest either way.
// Re-ingesting identical content under the same filename silently replaces
// the prior entry.
func (s *Store) Store(id, filename, text string, metadata map[string]string, pageCount int) *models.Document {
	doc := &models.Document{
		ID:         id,
		Filename:   filename,
		Text:       text,
		Metadata:   metadata,
		PageCount:  pageCount,
		UploadedAt: time.Now(),
	}

	s.mu.Lock()
	if _, exists := s.docs[id]; !exists {
		s.order = append(s.order, id)
	}
	s.docs[id] = doc
	s.mu.Unlock()

	s.ingests.Add(1)
	metrics.IngestsTotal.Inc()
	metrics.DocumentsStored.Set(float64(s.count()))

	return doc
}

func (s *Store) Get(id string) (*models.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	return doc, ok
}

func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[id]
	return ok
}

// List returns all documents in insertion order.
func (s *Store) List() []*models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]*models.Document, 0, len(s.order))
	for _, id := range s.order {
		docs = append(docs, s.docs[id])
	}
	return docs
}

// Increment bumps a named counter; unknown names are a no-op.
func (s *Store) Increment(name string) {
	switch name {
	case MetricIngests:
		s.ingests.Add(1)
		metrics.IngestsTotal.Inc()
	case MetricExtractions:
		s.extractions.Add(1)
		metrics.ExtractionsTotal.Inc()
	case MetricQuestions:
		s.questions.Add(1)
		metrics.QuestionsTotal.Inc()
	case MetricAudits:
		s.audits.Add(1)
		metrics.AuditsTotal.Inc()
	}
}

// Metrics returns a snapshot of the counters plus the derived document count.
func (s *Store) Metrics() map[string]int64 {
	return map[string]int64{
		MetricIngests:     s.ingests.Load(),
		MetricExtractions: s.extractions.Load(),
		MetricQuestions:   s.questions.Load(),
		MetricAudits:      s.audits.Load(),
		"total_documents": s.count(),
	}
}

func (s *Store) count() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.docs))
}
