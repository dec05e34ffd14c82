// Package profile stores the user's onboarding profile as scalar fields in a
// per-user key-value store.
package profile

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gymjs/muscle-selector/internal/util"
)

// ErrValidation wraps every profile validation failure.
var ErrValidation = errors.New("invalid profile")

// Sex is the biological sex reported during onboarding.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

// Valid reports whether s is a known value.
func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale || s == SexOther
}

const (
	MinAge      = 13
	MaxAge      = 120
	MinHeightCm = 100.0
	MaxHeightCm = 250.0

	// DateLayout is the birth date wire format.
	DateLayout = "2006-01-02"
)

var activityLevels = map[string]bool{
	"sedentary": true, "light": true, "moderate": true, "high": true, "very-high": true,
}

var fitnessGoals = map[string]bool{
	"weight-loss": true, "muscle-gain": true, "maintenance": true, "strength": true, "endurance": true,
}

// Profile is the data collected by onboarding and edited on the profile page.
type Profile struct {
	Name          string  `json:"name"`
	Email         string  `json:"email,omitempty"`
	Sex           Sex     `json:"sex"`
	BirthDate     string  `json:"birthDate"`
	HeightCm      float64 `json:"heightCm"`
	WeightKg      float64 `json:"weightKg"`
	GoalWeightKg  float64 `json:"goalWeightKg"`
	ActivityLevel string  `json:"activityLevel,omitempty"`
	FitnessGoal   string  `json:"fitnessGoal,omitempty"`
}

// Age returns full years between the birth date and now.
func (p Profile) Age(now time.Time) (int, error) {
	birth, err := time.Parse(DateLayout, p.BirthDate)
	if err != nil {
		return 0, fmt.Errorf("birth date must be YYYY-MM-DD: %w", err)
	}
	return yearsBetween(birth, now), nil
}

func yearsBetween(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}

// Validate checks the onboarding rules, reporting every failure at once.
func (p Profile) Validate(now time.Time) error {
	var errs []error
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if !p.Sex.Valid() {
		errs = append(errs, fmt.Errorf("sex must be male, female or other, got %q", p.Sex))
	}
	if age, err := p.Age(now); err != nil {
		errs = append(errs, err)
	} else if age < MinAge || age > MaxAge {
		errs = append(errs, fmt.Errorf("age must be between %d and %d, got %d", MinAge, MaxAge, age))
	}
	if !util.IsFinite(p.HeightCm) || p.HeightCm < MinHeightCm || p.HeightCm > MaxHeightCm {
		errs = append(errs, fmt.Errorf("height must be between %g and %g cm", MinHeightCm, MaxHeightCm))
	}
	if !util.IsFinite(p.WeightKg) || p.WeightKg <= 0 {
		errs = append(errs, errors.New("weight must be positive"))
	}
	if !util.IsFinite(p.GoalWeightKg) || p.GoalWeightKg <= 0 {
		errs = append(errs, errors.New("goal weight must be positive"))
	}
	if p.ActivityLevel != "" && !activityLevels[p.ActivityLevel] {
		errs = append(errs, fmt.Errorf("unknown activity level %q", p.ActivityLevel))
	}
	if p.FitnessGoal != "" && !fitnessGoals[p.FitnessGoal] {
		errs = append(errs, fmt.Errorf("unknown fitness goal %q", p.FitnessGoal))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrValidation, errors.Join(errs...))
}
