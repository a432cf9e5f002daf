package entities

type RestrictionType string

const (
	RestrictionNone       RestrictionType = "NONE"
	RestrictionMaleOnly   RestrictionType = "GENDER_MALE_ONLY"
	RestrictionFemaleOnly RestrictionType = "GENDER_FEMALE_ONLY"
	RestrictionLevel1     RestrictionType = "LEVEL_1"
	RestrictionLevel2     RestrictionType = "LEVEL_2"
	RestrictionLevel3     RestrictionType = "LEVEL_3"
	RestrictionLevel4     RestrictionType = "LEVEL_4"
	RestrictionLevel5     RestrictionType = "LEVEL_5"
	RestrictionLevel6     RestrictionType = "LEVEL_6"
)

type Portfolio struct {
	PortfolioID     string
	ElectionID      string
	Name            string
	Priority        int
	RestrictionType RestrictionType
}
