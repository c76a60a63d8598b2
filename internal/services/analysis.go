package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/medcheck/api/internal/apperrors"
	"github.com/medcheck/api/internal/llm"
	"github.com/medcheck/api/internal/models"
)

const suitabilitySystemPrompt = `You are a medical AI assistant specializing in medication suitability and safety. Provide thorough, evidence-based assessments while maintaining clear and understandable explanations.`

// historyStore is the slice of the user service the analysis pipeline
// needs for best-effort recording.
type historyStore interface {
	AppendHistory(ctx context.Context, identity models.Identity, entry models.HistoryEntry) error
}

// AnalysisService runs the clinical-query pipeline: validate, build
// prompt, call inference, extract the structured result, then record
// history best-effort while the result goes back to the caller.
type AnalysisService struct {
	client llm.Client
	store  historyStore
	logger *zap.Logger
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(client llm.Client, store historyStore, logger *zap.Logger) *AnalysisService {
	return &AnalysisService{
		client: client,
		store:  store,
		logger: logger,
	}
}

// AnalyzeInteractions checks a set of medications against each other
// and optional conditions.
func (s *AnalysisService) AnalyzeInteractions(ctx context.Context, identity models.Identity, req *models.InteractionRequest) (*models.InteractionAnalysis, error) {
	medications := filterNonEmpty(req.Medications)
	conditions := filterNonEmpty(req.Conditions)

	if len(medications) < 2 {
		return nil, apperrors.New(apperrors.KindInvalidInput, "at least two medications are required")
	}

	prompt := buildInteractionPrompt(medications, conditions)

	raw, err := s.client.Generate(ctx, prompt, "")
	if err != nil {
		return nil, err
	}

	result := &models.InteractionAnalysis{}
	if err := llm.ExtractJSON(raw, result); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, identity, models.HistoryKindInteraction, models.InteractionDetails{
		Medications: medications,
		Conditions:  conditions,
		Results:     result,
	})

	return result, nil
}

// CheckSuitability assesses a single medication against the caller's
// conditions, symptoms, allergies and current medications.
func (s *AnalysisService) CheckSuitability(ctx context.Context, identity models.Identity, req *models.SuitabilityRequest) (*models.SuitabilityAnalysis, error) {
	medication := strings.TrimSpace(req.Medication)
	conditions := filterNonEmpty(req.Conditions)
	currentMeds := filterNonEmpty(req.CurrentMedications)

	if medication == "" || len(conditions) == 0 {
		return nil, apperrors.New(apperrors.KindInvalidInput, "medication and at least one condition are required")
	}

	prompt := buildSuitabilityPrompt(medication, conditions, req.Symptoms, req.Allergies, currentMeds)

	raw, err := s.client.Generate(ctx, prompt, suitabilitySystemPrompt)
	if err != nil {
		return nil, err
	}

	result := &models.SuitabilityAnalysis{}
	if err := llm.ExtractJSON(raw, result); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, identity, models.HistoryKindSuitability, models.SuitabilityDetails{
		Medication:         medication,
		Conditions:         conditions,
		Symptoms:           req.Symptoms,
		Allergies:          req.Allergies,
		CurrentMedications: currentMeds,
		Results:            result,
	})

	return result, nil
}

// recordHistory appends the completed analysis to the caller's history.
// Failures here never reach the caller: a user record that resolves by
// neither ID nor email is skipped, and a failed write is logged and
// swallowed so the analysis result is not lost to a persistence hiccup.
func (s *AnalysisService) recordHistory(ctx context.Context, identity models.Identity, kind string, details any) {
	payload, err := json.Marshal(details)
	if err != nil {
		s.logger.Error("Failed to encode history details", zap.Error(err), zap.String("kind", kind))
		return
	}

	entry := models.HistoryEntry{
		Type:    kind,
		Date:    time.Now().UTC(),
		Details: payload,
	}

	if err := s.store.AppendHistory(ctx, identity, entry); err != nil {
		if apperrors.KindOf(err) == apperrors.KindUserNotFound {
			s.logger.Warn("User not found by ID or email, skipping history entry",
				zap.String("user_id", identity.ID.String()))
			return
		}
		s.logger.Error("Failed to save history entry", zap.Error(err), zap.String("kind", kind))
	}
}

// filterNonEmpty drops empty and whitespace-only entries
func filterNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func buildInteractionPrompt(medications, conditions []string) string {
	var b strings.Builder

	b.WriteString("You are a medical AI assistant. Analyze the interactions between these medications:\n")
	b.WriteString(strings.Join(medications, ", "))
	b.WriteString("\n")
	if len(conditions) > 0 {
		fmt.Fprintf(&b, "\nConsidering these conditions: %s\n", strings.Join(conditions, ", "))
	}

	b.WriteString(`
Provide your response in this exact JSON format:
{
  "interactions": [
    {
      "medications": ["drug1", "drug2"],
      "severity": "high|medium|low",
      "description": "Description of the interaction",
      "recommendations": ["recommendation1", "recommendation2"]
    }
  ],
  "overallAssessment": "Overall assessment of all interactions",
  "alternativeOptions": ["alternative1", "alternative2"],
  "precautions": ["precaution1", "precaution2"]
}

Important: Your entire response must be valid JSON that matches this exact structure.
`)

	return b.String()
}

func buildSuitabilityPrompt(medication string, conditions []string, symptoms, allergies string, currentMeds []string) string {
	var b strings.Builder

	b.WriteString("Analyze the suitability of the following medication:\n\n")
	fmt.Fprintf(&b, "Medication to Check: %s\n", medication)
	fmt.Fprintf(&b, "Medical Conditions: %s\n", strings.Join(conditions, ", "))
	if symptoms != "" {
		fmt.Fprintf(&b, "Current Symptoms: %s\n", symptoms)
	}
	if allergies != "" {
		fmt.Fprintf(&b, "Allergies: %s\n", allergies)
	}
	if len(currentMeds) > 0 {
		fmt.Fprintf(&b, "Current Medications: %s\n", strings.Join(currentMeds, ", "))
	}

	b.WriteString(`
Provide your response in this exact JSON format:
{
  "suitable": boolean,
  "suitabilityScore": number (0-100),
  "concerns": ["concern1", "concern2"] or [] if no concerns,
  "alternatives": ["alternative1", "alternative2"] or [] if no alternatives needed,
  "recommendations": ["recommendation1", "recommendation2"],
  "explanation": "detailed explanation of the assessment"
}

Important: Your entire response must be valid JSON that matches this exact structure.
Consider:
- Effectiveness for the conditions
- Potential contraindications
- Impact of any allergies
- Interaction with current medications
- Relevance to current symptoms
`)

	return b.String()
}
