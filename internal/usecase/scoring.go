package usecase

import "github.com/graniteflow/crm-backend/internal/entity"

// ScoreLead computes the 0-100 priority score at capture time. Missing fields
// simply contribute nothing; only the cap at 100 is enforced (components are
// all non-negative).
func ScoreLead(input CaptureLeadInput) int {
	score := budgetComponent(input.Budget) +
		timelineComponent(input.Timeline) +
		localityComponent(input.IsLocal) +
		contactComponent(input.Email, input.Phone) +
		sourceComponent(input.Source)

	if score > 100 {
		score = 100
	}
	return score
}

func budgetComponent(budget float64) int {
	switch {
	case budget > 20000:
		return 30
	case budget > 10000:
		return 20
	case budget > 5000:
		return 10
	default:
		return 0
	}
}

func timelineComponent(timeline entity.Timeline) int {
	switch timeline {
	case entity.TimelineImmediate:
		return 25
	case entity.TimelineOneToThree:
		return 15
	case entity.TimelineThreeToSix:
		return 10
	default:
		return 0
	}
}

func localityComponent(isLocal bool) int {
	if isLocal {
		return 15
	}
	return 0
}

func contactComponent(email, phone string) int {
	if email != "" && phone != "" {
		return 10
	}
	return 0
}

func sourceComponent(source entity.LeadSource) int {
	switch source {
	case entity.SourceRepeatCustomer:
		return 25
	case entity.SourceReferral:
		return 20
	default:
		return 0
	}
}
