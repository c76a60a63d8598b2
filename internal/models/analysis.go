package models

// InteractionRequest is the body of POST /api/analyze-interactions
type InteractionRequest struct {
	Medications []string `json:"medications"`
	Conditions  []string `json:"conditions"`
}

// SuitabilityRequest is the body of POST /api/check-suitability
type SuitabilityRequest struct {
	Medication         string   `json:"medication"`
	Conditions         []string `json:"conditions"`
	Symptoms           string   `json:"symptoms"`
	Allergies          string   `json:"allergies"`
	CurrentMedications []string `json:"currentMedications"`
}

// DrugInteraction is one pairwise interaction reported by the model
type DrugInteraction struct {
	Medications     []string `json:"medications"`
	Severity        string   `json:"severity"` // high|medium|low
	Description     string   `json:"description"`
	Recommendations []string `json:"recommendations"`
}

// InteractionAnalysis is the structured result of an interaction check.
// The shape is dictated to the model field-by-field in the prompt; the
// extractor parses it but does not validate field semantics, so a
// syntactically valid object with unexpected values passes through.
type InteractionAnalysis struct {
	Interactions       []DrugInteraction `json:"interactions"`
	OverallAssessment  string            `json:"overallAssessment"`
	AlternativeOptions []string          `json:"alternativeOptions"`
	Precautions        []string          `json:"precautions"`
}

// SuitabilityAnalysis is the structured result of a suitability check
type SuitabilityAnalysis struct {
	Suitable         bool     `json:"suitable"`
	SuitabilityScore int      `json:"suitabilityScore"`
	Concerns         []string `json:"concerns"`
	Alternatives     []string `json:"alternatives"`
	Recommendations  []string `json:"recommendations"`
	Explanation      string   `json:"explanation"`
}
