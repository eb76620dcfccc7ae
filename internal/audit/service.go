package audit

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/contractintel/backend/internal/llm"
	"github.com/contractintel/backend/internal/storage/memory"
	"github.com/contractintel/backend/internal/storage/models"
	"github.com/contractintel/backend/pkg/logger"
	"github.com/contractintel/backend/pkg/utils"
)

const promptBudget = 8000

const auditPromptTemplate = `
You are a legal contract auditor. Analyze this contract for risky clauses.

RISK CATEGORIES TO CHECK:
1. Auto-renewal with less than 30 days notice
2. Unlimited liability or no liability cap
3. Broad indemnity clauses
4. One-sided termination rights
5. Unfavorable payment terms
6. Lack of confidentiality protections
7. Unclear dispute resolution

For each risk found, return a JSON array with this structure:
[
  {
    "severity": "high|medium|low",
    "clause_type": "auto_renewal|liability|indemnity|termination|payment|confidentiality|other",
    "description": "Brief description of the risk",
    "evidence": "Exact quote from contract (keep it short)",
    "recommendation": "How to mitigate this risk"
  }
]

CONTRACT TEXT:
%s

Return ONLY the JSON array, no other text.

JSON OUTPUT:
`

// Service audits stored contracts for risky clauses.
type Service struct {
	store    *memory.Store
	provider llm.Provider
}

func NewService(store *memory.Store, provider llm.Provider) *Service {
	return &Service{store: store, provider: provider}
}

// Audit returns the provider's findings for one document. An unknown id
// yields an empty slice; the HTTP layer validates existence first. Failures
// degrade to a single low-severity finding so callers always get a
// well-formed, non-empty result.
func (s *Service) Audit(ctx context.Context, documentID string) []models.AuditFinding {
	doc, ok := s.store.Get(documentID)
	if !ok {
		return []models.AuditFinding{}
	}

	prompt := fmt.Sprintf(auditPromptTemplate, utils.TruncateChars(doc.Text, promptBudget))

	raw, err := s.provider.Generate(ctx, llm.Request{
		Prompt:      prompt,
		Temperature: 0.1,
		MaxTokens:   2000,
	})
	if err != nil {
		logger.Error("Audit provider call failed", zap.String("document_id", documentID), zap.Error(err))
		return []models.AuditFinding{
			{
				Severity:    models.SeverityLow,
				ClauseType:  "other",
				Description: fmt.Sprintf("Audit error: %s", err.Error()),
				Evidence:    "",
				DocumentID:  documentID,
			},
		}
	}

	var parsed []struct {
		Severity       string `json:"severity"`
		ClauseType     string `json:"clause_type"`
		Description    string `json:"description"`
		Evidence       string `json:"evidence"`
		Recommendation string `json:"recommendation"`
	}
	if err := llm.ParseJSON(raw, &parsed); err != nil {
		logger.Warn("Provider returned malformed audit JSON", zap.String("document_id", documentID), zap.Error(err))
		return []models.AuditFinding{
			{
				Severity:       models.SeverityLow,
				ClauseType:     "other",
				Description:    "Unable to complete full audit analysis",
				Evidence:       "Analysis incomplete",
				DocumentID:     documentID,
				Recommendation: "Manual review recommended",
			},
		}
	}

	findings := make([]models.AuditFinding, 0, len(parsed))
	for _, f := range parsed {
		severity := f.Severity
		if severity == "" {
			severity = models.SeverityLow
		}
		clauseType := f.ClauseType
		if clauseType == "" {
			clauseType = "other"
		}
		findings = append(findings, models.AuditFinding{
			Severity:       severity,
			ClauseType:     clauseType,
			Description:    f.Description,
			Evidence:       f.Evidence,
			DocumentID:     documentID,
			Recommendation: f.Recommendation,
		})
	}

	return findings
}

// BatchAudit audits several documents; ids that do not exist are skipped
// rather than reported.
func (s *Service) BatchAudit(ctx context.Context, documentIDs []string) map[string][]models.AuditFinding {
	results := make(map[string][]models.AuditFinding)
	for _, id := range documentIDs {
		if s.store.Exists(id) {
			results[id] = s.Audit(ctx, id)
		}
	}
	return results
}
