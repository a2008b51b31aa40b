package models

import "time"

// Trend represents one market trend identified by the trend analysis stage.
type Trend struct {
	Name               string `json:"trend_name"`
	Description        string `json:"description"`
	SupportingEvidence string `json:"supporting_evidence"`
	EstimatedImpact    string `json:"estimated_impact"` // High, Medium, Low
	Timeframe          string `json:"timeframe"`        // Short-term, Medium-term, Long-term
}

// Opportunity represents one market opportunity.
type Opportunity struct {
	Name                 string `json:"opportunity_name"`
	Description          string `json:"description"`
	TargetSegment        string `json:"target_segment"`
	CompetitiveAdvantage string `json:"competitive_advantage"`
	EstimatedPotential   string `json:"estimated_potential"` // High, Medium, Low
	TimeframeToCapture   string `json:"timeframe_to_capture"`
}

// Strategy represents one strategic recommendation.
type Strategy struct {
	Title                string   `json:"strategy_title"`
	Description          string   `json:"description"`
	ImplementationSteps  []string `json:"implementation_steps"`
	ExpectedOutcome      string   `json:"expected_outcome"`
	ResourceRequirements string   `json:"resource_requirements"`
	PriorityLevel        string   `json:"priority_level"`
	SuccessMetrics       string   `json:"success_metrics"`
}

// CustomerSegment represents one customer segment. Segments are kept on the
// analysis state and additionally persisted to their own store keyed by state
// identifier so they can be queried independently.
type CustomerSegment struct {
	ID                 string    `json:"id,omitempty"`
	StateID            string    `json:"state_id,omitempty"`
	Name               string    `json:"segment_name"`
	Description        string    `json:"description"`
	Percentage         float64   `json:"percentage"`
	KeyCharacteristics []string  `json:"key_characteristics"`
	PainPoints         []string  `json:"pain_points"`
	GrowthPotential    string    `json:"growth_potential"`
	SatisfactionScore  float64   `json:"satisfaction_score"`
	RetentionRate      float64   `json:"retention_rate"`
	AcquisitionCost    string    `json:"acquisition_cost"`
	LifetimeValue      string    `json:"lifetime_value"`
	CreatedAt          time.Time `json:"created_at,omitempty"`
}
