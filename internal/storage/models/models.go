package models

import "time"

// Document is one ingested contract: its page-marked extracted text plus
// metadata, keyed by a content-derived identifier. Immutable after creation.
type Document struct {
	ID         string            `json:"id"`
	Filename   string            `json:"filename"`
	Text       string            `json:"text"`
	Metadata   map[string]string `json:"metadata"`
	PageCount  int               `json:"page_count"`
	UploadedAt time.Time         `json:"uploaded_at"`
}

type Party struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

type Signatory struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
}

type LiabilityCap struct {
	Amount   *float64 `json:"amount"`
	Currency string   `json:"currency,omitempty"`
}

// ExtractedFields is the fixed schema the extraction prompt asks the provider
// to fill. Every field may independently be absent; absence means "not found
// in contract", not empty string.
type ExtractedFields struct {
	Parties         []Party       `json:"parties"`
	EffectiveDate   string        `json:"effective_date,omitempty"`
	Term            string        `json:"term,omitempty"`
	GoverningLaw    string        `json:"governing_law,omitempty"`
	PaymentTerms    string        `json:"payment_terms,omitempty"`
	Termination     string        `json:"termination,omitempty"`
	AutoRenewal     string        `json:"auto_renewal,omitempty"`
	Confidentiality string        `json:"confidentiality,omitempty"`
	Indemnity       string        `json:"indemnity,omitempty"`
	LiabilityCap    *LiabilityCap `json:"liability_cap,omitempty"`
	Signatories     []Signatory   `json:"signatories"`
}

// Citation points an answer back to a source document. CharStart/CharEnd are
// part of the schema but the presence heuristic never fills them.
type Citation struct {
	DocumentID  string `json:"document_id"`
	Page        *int   `json:"page,omitempty"`
	CharStart   *int   `json:"char_start,omitempty"`
	CharEnd     *int   `json:"char_end,omitempty"`
	TextSnippet string `json:"text_snippet"`
}

type AskResponse struct {
	Answer     string     `json:"answer"`
	Citations  []Citation `json:"citations"`
	Confidence *float64   `json:"confidence,omitempty"`
}

// Audit finding severities.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// AuditFinding is one detected risk clause.
type AuditFinding struct {
	Severity       string `json:"severity"`
	ClauseType     string `json:"clause_type"`
	Description    string `json:"description"`
	Evidence       string `json:"evidence"`
	DocumentID     string `json:"document_id"`
	Page           *int   `json:"page,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

type IngestResponse struct {
	DocumentIDs    []string `json:"document_ids"`
	Message        string   `json:"message"`
	ProcessedCount int      `json:"processed_count"`
	Errors         []string `json:"errors,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// DocumentSummary is the redacted listing entry: never carries document text.
type DocumentSummary struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
	PageCount  int       `json:"page_count"`
}

// WebhookEvent is the payload POSTed to the configured webhook URL.
type WebhookEvent struct {
	ID         string         `json:"id"`
	EventType  string         `json:"event_type"`
	DocumentID string         `json:"document_id"`
	Timestamp  string         `json:"timestamp"`
	Data       map[string]any `json:"data"`
}
