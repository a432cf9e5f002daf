package services

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/entities"
)

// PortfolioVisibleTo decides whether a voter may see a portfolio on their
// ballot. Ballot casting never consults it.
func PortfolioVisibleTo(restriction entities.RestrictionType, voter entities.Voter) bool {
	switch restriction {
	case "", entities.RestrictionNone:
		return true
	case entities.RestrictionMaleOnly:
		return strings.EqualFold(string(voter.Gender), string(entities.GenderMale))
	case entities.RestrictionFemaleOnly:
		return strings.EqualFold(string(voter.Gender), string(entities.GenderFemale))
	case entities.RestrictionLevel1,
		entities.RestrictionLevel2,
		entities.RestrictionLevel3,
		entities.RestrictionLevel4,
		entities.RestrictionLevel5,
		entities.RestrictionLevel6:
		required, _ := strconv.Atoi(strings.TrimPrefix(string(restriction), "LEVEL_"))
		level, ok := NormalizeLevel(voter.Level)
		return ok && level == required
	default:
		return false
	}
}

// NormalizeLevel maps "100".."600", "1".."6" and labels such as "Level 3"
// onto the 1..6 scale.
func NormalizeLevel(raw string) (int, bool) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)
	if digits == "" {
		return 0, false
	}
	value, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	if value >= 100 {
		value /= 100
	}
	if value < 1 || value > 6 {
		return 0, false
	}
	return value, true
}
