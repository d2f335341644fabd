package enums

import "strings"

type Category string

const (
	CategoryKindness        Category = "kindness"
	CategoryNature          Category = "nature"
	CategoryHealth          Category = "health"
	CategoryFamily          Category = "family"
	CategoryFriendship      Category = "friendship"
	CategoryAchievement     Category = "achievement"
	CategoryRecovery        Category = "recovery"
	CategoryDiscovery       Category = "discovery"
	CategoryGratitude       Category = "gratitude"
	CategoryWork            Category = "work"
	CategoryRelationships   Category = "relationships"
	CategorySpiritualGrowth Category = "spiritual_growth"
	CategoryFinancial       Category = "financial"
	CategoryEducation       Category = "education"
	CategoryPeace           Category = "peace"
	CategoryGrief           Category = "grief"
	CategoryOther           Category = "other"
)

var categoriesByKind = map[ContentKind][]Category{
	ContentKindPrimary: {
		CategoryKindness,
		CategoryNature,
		CategoryHealth,
		CategoryFamily,
		CategoryFriendship,
		CategoryAchievement,
		CategoryRecovery,
		CategoryDiscovery,
		CategoryGratitude,
		CategoryOther,
	},
	ContentKindRequest: {
		CategoryHealth,
		CategoryFamily,
		CategoryWork,
		CategoryRelationships,
		CategorySpiritualGrowth,
		CategoryFinancial,
		CategoryEducation,
		CategoryPeace,
		CategoryGrief,
		CategoryOther,
	},
}

// CategoriesFor returns the categories accepted for the content kind.
func CategoriesFor(kind ContentKind) []Category {
	return append([]Category(nil), categoriesByKind[kind]...)
}

// ParseCategory validates the category against the kind. Empty input maps to other.
func ParseCategory(kind ContentKind, value string) (Category, error) {
	normalized := Category(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		normalized = CategoryOther
	}
	for _, category := range categoriesByKind[kind] {
		if category == normalized {
			return category, nil
		}
	}
	return "", ErrUnknownValue
}

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
	UrgencyUrgent Urgency = "urgent"
)

func ParseUrgency(value string) (Urgency, error) {
	switch Urgency(strings.ToLower(strings.TrimSpace(value))) {
	case "":
		return UrgencyMedium, nil
	case UrgencyLow:
		return UrgencyLow, nil
	case UrgencyMedium:
		return UrgencyMedium, nil
	case UrgencyHigh:
		return UrgencyHigh, nil
	case UrgencyUrgent:
		return UrgencyUrgent, nil
	default:
		return "", ErrUnknownValue
	}
}
