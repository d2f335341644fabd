package enums

type ViolationType string

const (
	ViolationTypeLexiconMatch    ViolationType = "lexicon_match"
	ViolationTypePatternMatch    ViolationType = "pattern_match"
	ViolationTypeManualRejection ViolationType = "manual_rejection"
)

func (t ViolationType) Valid() bool {
	switch t {
	case ViolationTypeLexiconMatch, ViolationTypePatternMatch, ViolationTypeManualRejection:
		return true
	default:
		return false
	}
}
