package extraction

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/contractintel/backend/internal/llm"
	"github.com/contractintel/backend/internal/storage/models"
	"github.com/contractintel/backend/pkg/logger"
	"github.com/contractintel/backend/pkg/utils"
)

// promptBudget bounds provider token cost and latency. Fields that only
// appear beyond this point in very long contracts are missed; that is a
// known limitation, not a bug.
const promptBudget = 8000

const fieldsPromptTemplate = `
You are a contract analysis expert. Extract the following information from the contract below.
Return ONLY a valid JSON object with these exact fields:

{
  "parties": [
    {"name": "Party Name", "role": "Buyer/Seller/etc"}
  ],
  "effective_date": "date or null",
  "term": "contract duration or null",
  "governing_law": "jurisdiction or null",
  "payment_terms": "summary or null",
  "termination": "termination conditions or null",
  "auto_renewal": "auto-renewal terms or null",
  "confidentiality": "confidentiality terms or null",
  "indemnity": "indemnity terms or null",
  "liability_cap": {"amount": number, "currency": "USD/EUR/etc"},
  "signatories": [
    {"name": "Signatory Name", "title": "Title"}
  ]
}

If any field is not found, use null or empty array [].

CONTRACT TEXT:
%s

JSON OUTPUT:
`

// Service extracts structured contract fields through the provider.
type Service struct {
	provider llm.Provider
}

func NewService(provider llm.Provider) *Service {
	return &Service{provider: provider}
}

// ExtractFields asks the provider for the fixed-schema field object. A
// malformed provider reply degrades to an all-empty ExtractedFields; only a
// failed provider call is an error.
func (s *Service) ExtractFields(ctx context.Context, text string) (*models.ExtractedFields, error) {
	prompt := fmt.Sprintf(fieldsPromptTemplate, utils.TruncateChars(text, promptBudget))

	raw, err := s.provider.Generate(ctx, llm.Request{
		Prompt:      prompt,
		Temperature: 0.1,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	var fields models.ExtractedFields
	if err := llm.ParseJSON(raw, &fields); err != nil {
		logger.Warn("Provider returned malformed extraction JSON", zap.Error(err))
		return &models.ExtractedFields{}, nil
	}

	return &fields, nil
}
