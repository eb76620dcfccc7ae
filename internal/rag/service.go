package rag

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/contractintel/backend/internal/llm"
	"github.com/contractintel/backend/internal/storage/memory"
	"github.com/contractintel/backend/internal/storage/models"
	"github.com/contractintel/backend/pkg/logger"
	"github.com/contractintel/backend/pkg/utils"
)

// contextBudget is the per-document character budget for the context window.
const contextBudget = 5000

const noDocumentsAnswer = "No documents found. Please upload documents first."

const answerConfidence = 0.85

const askPromptTemplate = `
Answer the following question based ONLY on the provided contract documents.
Include specific references to document sections when possible.

QUESTION: %s

DOCUMENTS:
%s

Provide a clear, accurate answer with citations. If the answer is not in the documents, say so.

ANSWER:
`

const askStreamPromptTemplate = `
Answer the following question based ONLY on the provided contract documents.

QUESTION: %s

DOCUMENTS:
%s

ANSWER:
`

var pageMarkerPattern = regexp.MustCompile(`\[PAGE (\d+)\]`)

// Service answers free-text questions over stored documents.
type Service struct {
	store    *memory.Store
	provider llm.Provider
}

func NewService(store *memory.Store, provider llm.Provider) *Service {
	return &Service{store: store, provider: provider}
}

// Answer resolves the requested documents (all of them when ids is empty),
// asks the provider, and attaches heuristic citations. A provider failure
// becomes an answer embedding the error message, never an error to the
// caller.
func (s *Service) Answer(ctx context.Context, question string, documentIDs []string) *models.AskResponse {
	docs := s.resolveDocuments(documentIDs)
	if len(docs) == 0 {
		return &models.AskResponse{
			Answer:    noDocumentsAnswer,
			Citations: []models.Citation{},
		}
	}

	prompt := fmt.Sprintf(askPromptTemplate, question, buildContext(docs))

	answer, err := s.provider.Generate(ctx, llm.Request{
		Prompt:      prompt,
		Temperature: 0.3,
		MaxTokens:   1000,
	})
	if err != nil {
		logger.Error("Question provider call failed", zap.Error(err))
		return &models.AskResponse{
			Answer:    fmt.Sprintf("Error processing question: %s", err.Error()),
			Citations: []models.Citation{},
		}
	}

	confidence := answerConfidence
	return &models.AskResponse{
		Answer:     answer,
		Citations:  extractCitations(answer, docs),
		Confidence: &confidence,
	}
}

// AnswerStream yields incremental answer fragments. With no resolvable
// documents the stream is exactly one fixed-message fragment; a provider
// failure is exactly one fragment carrying the error text. The stream is
// finite and not restartable.
func (s *Service) AnswerStream(ctx context.Context, question string, documentIDs []string) <-chan string {
	out := make(chan string)

	go func() {
		defer close(out)

		docs := s.resolveDocuments(documentIDs)
		if len(docs) == 0 {
			out <- noDocumentsAnswer
			return
		}

		prompt := fmt.Sprintf(askStreamPromptTemplate, question, buildContext(docs))

		chunks, err := s.provider.GenerateStream(ctx, llm.Request{
			Prompt:      prompt,
			Temperature: 0.3,
			MaxTokens:   1000,
		})
		if err != nil {
			logger.Error("Streaming provider call failed", zap.Error(err))
			out <- fmt.Sprintf("Error: %s", err.Error())
			return
		}

		for chunk := range chunks {
			if chunk.Err != nil {
				logger.Error("Provider stream failed", zap.Error(chunk.Err))
				out <- fmt.Sprintf("Error: %s", chunk.Err.Error())
				return
			}
			out <- chunk.Text
		}
	}()

	return out
}

// resolveDocuments maps ids to stored documents, silently dropping unknown
// ids. An empty id list selects every stored document in insertion order.
func (s *Service) resolveDocuments(documentIDs []string) []*models.Document {
	if len(documentIDs) == 0 {
		return s.store.List()
	}

	docs := make([]*models.Document, 0, len(documentIDs))
	for _, id := range documentIDs {
		if doc, ok := s.store.Get(id); ok {
			docs = append(docs, doc)
		}
	}
	return docs
}

func buildContext(docs []*models.Document) string {
	var b strings.Builder
	for _, doc := range docs {
		b.WriteString(fmt.Sprintf("\n\n[DOCUMENT: %s]\n%s\n", doc.ID, utils.TruncateChars(doc.Text, contextBudget)))
	}
	return b.String()
}

// extractCitations is a presence heuristic: a document is cited when its id
// or filename appears verbatim in the answer. The citation always points at
// the first page marker found in the document and snips the document's first
// 200 characters, regardless of where the referenced text actually sits.
// Character offsets are never populated.
func extractCitations(answer string, docs []*models.Document) []models.Citation {
	citations := []models.Citation{}

	for _, doc := range docs {
		if !strings.Contains(answer, doc.ID) && !strings.Contains(answer, doc.Filename) {
			continue
		}

		citation := models.Citation{
			DocumentID:  doc.ID,
			TextSnippet: utils.TruncateChars(doc.Text, 200),
		}
		if m := pageMarkerPattern.FindStringSubmatch(doc.Text); m != nil {
			if page, err := strconv.Atoi(m[1]); err == nil {
				citation.Page = &page
			}
		}
		citations = append(citations, citation)
	}

	return citations
}
