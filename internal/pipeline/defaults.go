package pipeline

import (
	"fmt"

	"github.com/calibrae/mercator/internal/models"
)

// Default content substituted when an analysis stage cannot produce output.
// Downstream consumers rely on the exact shape and wording of these values.

func defaultTrends() []models.Trend {
	return []models.Trend{{
		Name:               "Default Trend",
		Description:        "No specific trends identified.",
		SupportingEvidence: "N/A",
		EstimatedImpact:    "Unknown",
		Timeframe:          "Unknown",
	}}
}

func defaultOpportunities() []models.Opportunity {
	return []models.Opportunity{{
		Name:                 "Default Opportunity",
		Description:          "N/A",
		TargetSegment:        "N/A",
		CompetitiveAdvantage: "N/A",
		EstimatedPotential:   "Unknown",
		TimeframeToCapture:   "Unknown",
	}}
}

func defaultStrategies() []models.Strategy {
	return []models.Strategy{{
		Title:                "Default Strategy",
		Description:          "N/A",
		ImplementationSteps:  []string{},
		ExpectedOutcome:      "N/A",
		ResourceRequirements: "N/A",
		PriorityLevel:        "Unknown",
		SuccessMetrics:       "N/A",
	}}
}

func defaultSegments() []models.CustomerSegment {
	return []models.CustomerSegment{
		{
			Name:               "Enterprise",
			Description:        "Large organizations with complex needs",
			Percentage:         35,
			KeyCharacteristics: []string{"High budget", "Long sales cycle", "Multiple stakeholders"},
			PainPoints:         []string{"Integration complexity", "Security concerns", "Compliance requirements"},
			GrowthPotential:    "Medium",
			SatisfactionScore:  7.8,
			RetentionRate:      85,
			AcquisitionCost:    "High",
			LifetimeValue:      "Very High",
		},
		{
			Name:               "SMB",
			Description:        "Small and medium businesses",
			Percentage:         45,
			KeyCharacteristics: []string{"Price sensitive", "Quick decision making", "Limited resources"},
			PainPoints:         []string{"Cost concerns", "Ease of implementation", "Limited technical expertise"},
			GrowthPotential:    "High",
			SatisfactionScore:  8.2,
			RetentionRate:      75,
			AcquisitionCost:    "Medium",
			LifetimeValue:      "Medium",
		},
		{
			Name:               "Startups",
			Description:        "Early stage companies with rapid growth",
			Percentage:         20,
			KeyCharacteristics: []string{"Innovation focused", "Limited budget", "Agile processes"},
			PainPoints:         []string{"Scalability", "Quick time-to-value", "Flexible pricing models"},
			GrowthPotential:    "Very High",
			SatisfactionScore:  8.5,
			RetentionRate:      65,
			AcquisitionCost:    "Low",
			LifetimeValue:      "Variable",
		},
	}
}

func defaultTemplate(marketDomain string) string {
	return fmt.Sprintf("# Market Intelligence Report: %s\n## Executive Summary\n...", marketDomain)
}
