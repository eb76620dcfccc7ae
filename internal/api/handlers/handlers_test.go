package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractintel/backend/internal/audit"
	"github.com/contractintel/backend/internal/extraction"
	"github.com/contractintel/backend/internal/llm"
	"github.com/contractintel/backend/internal/rag"
	"github.com/contractintel/backend/internal/storage/memory"
	"github.com/contractintel/backend/internal/webhook"
)

type fakeProvider struct {
	response string
	err      error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(context.Context, llm.Request) (string, error) {
	return f.response, f.err
}

func (f *fakeProvider) GenerateStream(context.Context, llm.Request) (<-chan llm.StreamChunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(chan llm.StreamChunk, 1)
	out <- llm.StreamChunk{Text: f.response}
	close(out)
	return out, nil
}

type fakeExtractor struct {
	text  string
	pages int
	err   error
}

func (f *fakeExtractor) Extract([]byte) (string, int, error) {
	return f.text, f.pages, f.err
}

func (f *fakeExtractor) SaveUpload(_ []byte, filename string) (string, error) {
	return filename, nil
}

func newTestApp(provider llm.Provider, extractor Extractor, webhookURL string) (*fiber.App, *memory.Store) {
	store := memory.NewStore()

	documentHandler := NewDocumentHandler(store, extractor)
	extractionHandler := NewExtractionHandler(store, extraction.NewService(provider))
	askHandler := NewAskHandler(store, rag.NewService(store, provider))
	auditHandler := NewAuditHandler(store, audit.NewService(store, provider))
	webhookHandler := NewWebhookHandler(webhook.NewDispatcher(webhookURL, 5*time.Second))
	adminHandler := NewAdminHandler(store)

	app := fiber.New()
	app.Post("/ingest", documentHandler.Ingest)
	app.Get("/documents", documentHandler.ListDocuments)
	app.Post("/extract", extractionHandler.ExtractFields)
	app.Post("/ask", askHandler.Ask)
	app.Get("/ask/stream", askHandler.AskStream)
	app.Post("/audit", auditHandler.Audit)
	app.Post("/audit/batch", auditHandler.BatchAudit)
	app.Post("/webhook/events", webhookHandler.TriggerEvent)
	app.Get("/healthz", adminHandler.Health)
	app.Get("/metrics", adminHandler.Metrics)

	return app, store
}

func multipartBody(t *testing.T, filenames ...string) (io.Reader, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, name := range filenames {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4 fake content"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestIngestNoFiles(t *testing.T) {
	app, _ := newTestApp(&fakeProvider{}, &fakeExtractor{}, "")

	req := httptest.NewRequest(http.MethodPost, "/ingest", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestIngestMixedFiles(t *testing.T) {
	extractor := &fakeExtractor{text: "[PAGE 1]\nAgreement text", pages: 1}
	app, store := newTestApp(&fakeProvider{}, extractor, "")

	body, contentType := multipartBody(t, "contract.pdf", "notes.txt")
	req := httptest.NewRequest(http.MethodPost, "/ingest", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result struct {
		DocumentIDs    []string `json:"document_ids"`
		ProcessedCount int      `json:"processed_count"`
		Errors         []string `json:"errors"`
	}
	decodeBody(t, resp, &result)
	assert.Equal(t, 1, result.ProcessedCount)
	require.Len(t, result.DocumentIDs, 1)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "notes.txt")
	assert.True(t, store.Exists(result.DocumentIDs[0]))
}

func TestIngestAllFilesFail(t *testing.T) {
	app, _ := newTestApp(&fakeProvider{}, &fakeExtractor{}, "")

	body, contentType := multipartBody(t, "notes.txt")
	req := httptest.NewRequest(http.MethodPost, "/ingest", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestIngestIsIdempotentPerContent(t *testing.T) {
	extractor := &fakeExtractor{text: "[PAGE 1]\nAgreement text", pages: 1}
	app, store := newTestApp(&fakeProvider{}, extractor, "")

	for i := 0; i < 2; i++ {
		body, contentType := multipartBody(t, "contract.pdf")
		req := httptest.NewRequest(http.MethodPost, "/ingest", body)
		req.Header.Set("Content-Type", contentType)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	// Identical filename and content hash to the same id: one document,
	// two counted ingests.
	assert.Len(t, store.List(), 1)
	assert.Equal(t, int64(2), store.Metrics()["total_ingests"])
}

func TestExtractUnknownDocument(t *testing.T) {
	app, _ := newTestApp(&fakeProvider{response: "{}"}, &fakeExtractor{}, "")

	req := httptest.NewRequest(http.MethodPost, "/extract?document_id=missing", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestExtractProviderFailureIs500(t *testing.T) {
	provider := &fakeProvider{err: assert.AnError}
	app, store := newTestApp(provider, &fakeExtractor{}, "")
	store.Store("doc-1", "contract.pdf", "[PAGE 1]\ntext", nil, 1)

	req := httptest.NewRequest(http.MethodPost, "/extract?document_id=doc-1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestAskRequiresQuestion(t *testing.T) {
	app, _ := newTestApp(&fakeProvider{}, &fakeExtractor{}, "")

	req := httptest.NewRequest(http.MethodPost, "/ask", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAskReturnsAnswer(t *testing.T) {
	provider := &fakeProvider{response: "The term is two years, see doc-1."}
	app, store := newTestApp(provider, &fakeExtractor{}, "")
	store.Store("doc-1", "contract.pdf", "[PAGE 1]\nThe term is two years.", nil, 1)

	req := httptest.NewRequest(http.MethodPost, "/ask?question=What+is+the+term", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result struct {
		Answer    string `json:"answer"`
		Citations []struct {
			DocumentID string `json:"document_id"`
		} `json:"citations"`
	}
	decodeBody(t, resp, &result)
	assert.Equal(t, "The term is two years, see doc-1.", result.Answer)
	require.Len(t, result.Citations, 1)
	assert.Equal(t, "doc-1", result.Citations[0].DocumentID)
}

func TestAskStreamNoDocuments(t *testing.T) {
	app, _ := newTestApp(&fakeProvider{}, &fakeExtractor{}, "")

	req := httptest.NewRequest(http.MethodGet, "/ask/stream?question=anything", nil)
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(data)

	events := strings.Split(strings.TrimSpace(body), "\n\n")
	require.Len(t, events, 2)
	assert.Equal(t, "data: No documents found. Please upload documents first.", events[0])
	assert.Equal(t, "data: [DONE]", events[1])
}

func TestAuditUnknownDocument(t *testing.T) {
	app, _ := newTestApp(&fakeProvider{}, &fakeExtractor{}, "")

	req := httptest.NewRequest(http.MethodPost, "/audit?document_id=missing", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAuditMalformedProviderReply(t *testing.T) {
	provider := &fakeProvider{response: "not json"}
	app, store := newTestApp(provider, &fakeExtractor{}, "")
	store.Store("doc-1", "contract.pdf", "[PAGE 1]\ntext", nil, 1)

	req := httptest.NewRequest(http.MethodPost, "/audit?document_id=doc-1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var findings []struct {
		Severity       string `json:"severity"`
		Recommendation string `json:"recommendation"`
	}
	decodeBody(t, resp, &findings)
	require.Len(t, findings, 1)
	assert.Equal(t, "low", findings[0].Severity)
	assert.Equal(t, "Manual review recommended", findings[0].Recommendation)
}

func TestBatchAuditSkipsUnknownIDs(t *testing.T) {
	provider := &fakeProvider{response: "[]"}
	app, store := newTestApp(provider, &fakeExtractor{}, "")
	store.Store("doc-1", "contract.pdf", "[PAGE 1]\ntext", nil, 1)

	payload, _ := json.Marshal(map[string][]string{"document_ids": {"doc-1", "missing"}})
	req := httptest.NewRequest(http.MethodPost, "/audit/batch", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var results map[string]json.RawMessage
	decodeBody(t, resp, &results)
	assert.Contains(t, results, "doc-1")
	assert.NotContains(t, results, "missing")
}

func TestDocumentsListingIsRedacted(t *testing.T) {
	app, store := newTestApp(&fakeProvider{}, &fakeExtractor{}, "")
	store.Store("doc-1", "contract.pdf", "[PAGE 1]\nsensitive text", nil, 1)

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result struct {
		Total     int              `json:"total"`
		Documents []map[string]any `json:"documents"`
	}
	decodeBody(t, resp, &result)
	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, "contract.pdf", result.Documents[0]["filename"])
	assert.NotContains(t, result.Documents[0], "text")
}

func TestMetricsAfterOneOfEachCall(t *testing.T) {
	provider := &fakeProvider{response: "{}"}
	extractor := &fakeExtractor{text: "[PAGE 1]\nAgreement text", pages: 1}
	app, store := newTestApp(provider, extractor, "")

	body, contentType := multipartBody(t, "contract.pdf")
	ingest := httptest.NewRequest(http.MethodPost, "/ingest", body)
	ingest.Header.Set("Content-Type", contentType)
	resp, err := app.Test(ingest)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	docID := store.List()[0].ID

	for _, r := range []*http.Request{
		httptest.NewRequest(http.MethodPost, "/extract?document_id="+docID, nil),
		httptest.NewRequest(http.MethodPost, "/ask?question=term", nil),
		httptest.NewRequest(http.MethodPost, "/audit?document_id="+docID, nil),
	} {
		resp, err := app.Test(r)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)

	var metrics map[string]int64
	decodeBody(t, resp, &metrics)
	assert.Equal(t, int64(1), metrics["total_ingests"])
	assert.Equal(t, int64(1), metrics["total_extractions"])
	assert.Equal(t, int64(1), metrics["total_questions"])
	assert.Equal(t, int64(1), metrics["total_audits"])
	assert.Equal(t, int64(1), metrics["total_documents"])
}

func TestHealthz(t *testing.T) {
	app, _ := newTestApp(&fakeProvider{}, &fakeExtractor{}, "")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var health struct {
		Status string `json:"status"`
	}
	decodeBody(t, resp, &health)
	assert.Equal(t, "healthy", health.Status)
}

func TestWebhookNotConfigured(t *testing.T) {
	app, _ := newTestApp(&fakeProvider{}, &fakeExtractor{}, "")

	req := httptest.NewRequest(http.MethodPost, "/webhook/events?event_type=ingested&document_id=doc-1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result struct {
		Message string `json:"message"`
	}
	decodeBody(t, resp, &result)
	assert.Equal(t, "Webhook URL not configured", result.Message)
}

func TestWebhookQueuesDelivery(t *testing.T) {
	received := make(chan []byte, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		received <- data
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	app, _ := newTestApp(&fakeProvider{}, &fakeExtractor{}, server.URL)

	payload := []byte(`{"note": "audit complete"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/events?event_type=audited&document_id=doc-1", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result struct {
		Message string `json:"message"`
		Payload struct {
			ID         string         `json:"id"`
			EventType  string         `json:"event_type"`
			DocumentID string         `json:"document_id"`
			Data       map[string]any `json:"data"`
		} `json:"payload"`
	}
	decodeBody(t, resp, &result)
	assert.Equal(t, "Webhook event queued", result.Message)
	assert.Equal(t, "audited", result.Payload.EventType)
	assert.Equal(t, "doc-1", result.Payload.DocumentID)
	assert.NotEmpty(t, result.Payload.ID)
	assert.Equal(t, "audit complete", result.Payload.Data["note"])

	select {
	case data := <-received:
		assert.Contains(t, string(data), `"event_type":"audited"`)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook delivery not received")
	}
}
