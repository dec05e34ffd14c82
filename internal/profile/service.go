package profile

import (
	"fmt"
	"strconv"
	"time"
)

// Field names as stored.
const (
	FieldName          = "name"
	FieldEmail         = "email"
	FieldSex           = "sex"
	FieldBirthDate     = "birthDate"
	FieldHeightCm      = "heightCm"
	FieldWeightKg      = "weightKg"
	FieldGoalWeightKg  = "goalWeightKg"
	FieldActivityLevel = "activityLevel"
	FieldFitnessGoal   = "fitnessGoal"
)

// Service validates profiles and maps them onto store fields.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Load returns the stored profile. The bool is false when the user has none.
func (s *Service) Load(userID string) (Profile, bool, error) {
	fields, err := s.store.Fields(userID)
	if err != nil {
		return Profile{}, false, err
	}
	if len(fields) == 0 {
		return Profile{}, false, nil
	}

	p := Profile{
		Name:          fields[FieldName],
		Email:         fields[FieldEmail],
		Sex:           Sex(fields[FieldSex]),
		BirthDate:     fields[FieldBirthDate],
		ActivityLevel: fields[FieldActivityLevel],
		FitnessGoal:   fields[FieldFitnessGoal],
	}
	for field, dst := range map[string]*float64{
		FieldHeightCm:     &p.HeightCm,
		FieldWeightKg:     &p.WeightKg,
		FieldGoalWeightKg: &p.GoalWeightKg,
	} {
		raw, ok := fields[field]
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Profile{}, false, fmt.Errorf("stored %s for %q is not a number: %w", field, userID, err)
		}
		*dst = v
	}
	return p, true, nil
}

// Save validates p and writes it. Optional fields left empty are removed.
func (s *Service) Save(userID string, p Profile) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if err := p.Validate(s.now()); err != nil {
		return err
	}
	return s.store.SetFields(userID, map[string]string{
		FieldName:          p.Name,
		FieldEmail:         p.Email,
		FieldSex:           string(p.Sex),
		FieldBirthDate:     p.BirthDate,
		FieldHeightCm:      formatFloat(p.HeightCm),
		FieldWeightKg:      formatFloat(p.WeightKg),
		FieldGoalWeightKg:  formatFloat(p.GoalWeightKg),
		FieldActivityLevel: p.ActivityLevel,
		FieldFitnessGoal:   p.FitnessGoal,
	})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
