package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractintel/backend/internal/llm"
	"github.com/contractintel/backend/internal/storage/memory"
	"github.com/contractintel/backend/internal/storage/models"
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
	ch := make(chan llm.StreamChunk)
	close(ch)
	return ch, nil
}

func newStoreWithDoc(id string) *memory.Store {
	store := memory.NewStore()
	store.Store(id, id+".pdf", "[PAGE 1]\nThis agreement auto-renews with 10 days notice.", nil, 1)
	return store
}

func TestAuditFindings(t *testing.T) {
	provider := &fakeProvider{response: `[
		{
			"severity": "high",
			"clause_type": "auto_renewal",
			"description": "Auto-renewal notice period is only 10 days",
			"evidence": "auto-renews with 10 days notice",
			"recommendation": "Negotiate at least 30 days notice"
		}
	]`}
	svc := NewService(newStoreWithDoc("doc-1"), provider)

	findings := svc.Audit(context.Background(), "doc-1")
	require.Len(t, findings, 1)
	assert.Equal(t, models.SeverityHigh, findings[0].Severity)
	assert.Equal(t, "auto_renewal", findings[0].ClauseType)
	assert.Equal(t, "doc-1", findings[0].DocumentID)
	assert.Equal(t, "Negotiate at least 30 days notice", findings[0].Recommendation)
}

func TestAuditFillsMissingSeverityAndClauseType(t *testing.T) {
	provider := &fakeProvider{response: `[{"description": "something odd"}]`}
	svc := NewService(newStoreWithDoc("doc-1"), provider)

	findings := svc.Audit(context.Background(), "doc-1")
	require.Len(t, findings, 1)
	assert.Equal(t, models.SeverityLow, findings[0].Severity)
	assert.Equal(t, "other", findings[0].ClauseType)
}

func TestAuditUnknownDocumentReturnsEmpty(t *testing.T) {
	svc := NewService(memory.NewStore(), &fakeProvider{response: "[]"})

	findings := svc.Audit(context.Background(), "missing")
	assert.Empty(t, findings)
}

func TestAuditMalformedReplyDegradesToPlaceholder(t *testing.T) {
	provider := &fakeProvider{response: "The contract looks mostly fine to me."}
	svc := NewService(newStoreWithDoc("doc-1"), provider)

	findings := svc.Audit(context.Background(), "doc-1")
	require.Len(t, findings, 1)
	assert.Equal(t, models.SeverityLow, findings[0].Severity)
	assert.Equal(t, "other", findings[0].ClauseType)
	assert.Equal(t, "Unable to complete full audit analysis", findings[0].Description)
	assert.Equal(t, "Analysis incomplete", findings[0].Evidence)
	assert.Equal(t, "Manual review recommended", findings[0].Recommendation)
}

func TestAuditProviderFailureDegradesToErrorFinding(t *testing.T) {
	provider := &fakeProvider{err: errors.New("upstream timeout")}
	svc := NewService(newStoreWithDoc("doc-1"), provider)

	findings := svc.Audit(context.Background(), "doc-1")
	require.Len(t, findings, 1)
	assert.Equal(t, models.SeverityLow, findings[0].Severity)
	assert.Contains(t, findings[0].Description, "upstream timeout")
	assert.Empty(t, findings[0].Evidence)
	assert.Empty(t, findings[0].Recommendation)
}

func TestBatchAuditSkipsUnknownIDs(t *testing.T) {
	provider := &fakeProvider{response: "[]"}
	store := newStoreWithDoc("doc-1")
	store.Store("doc-2", "doc-2.pdf", "[PAGE 1]\ntext", nil, 1)
	svc := NewService(store, provider)

	results := svc.BatchAudit(context.Background(), []string{"doc-1", "missing", "doc-2"})
	assert.Len(t, results, 2)
	assert.Contains(t, results, "doc-1")
	assert.Contains(t, results, "doc-2")
	assert.NotContains(t, results, "missing")
}
