package pet

import (
	"math"
	"time"
)

// ToxicFoods is the never-feed list attached to every diet plan.
var ToxicFoods = []string{
	"chocolate",
	"grapes",
	"raisins",
	"onions",
	"garlic",
	"xylitol",
	"avocado",
	"macadamia nuts",
	"alcohol",
	"caffeine",
}

const (
	kcalPerCup  = 350.0
	gramsPerCup = 100.0
	// 1 oz of water per lb of body weight, expressed in ml.
	mlPerOunce = 29.5735
	kgPerLb    = 0.45359237
)

type Portions struct {
	CupsPerMeal  float64 `json:"cups_per_meal"`
	GramsPerMeal int     `json:"grams_per_meal"`
	KcalPerMeal  int     `json:"kcal_per_meal"`
}

type DietPlan struct {
	PetID       string    `json:"pet_id,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	PetName     string    `json:"pet_name"`
	Breed       string    `json:"breed,omitempty"`
	WeightKg    float64   `json:"weight_kg"`
	AgeYears    *float64  `json:"age_years,omitempty"`
	BCS         *int      `json:"bcs,omitempty"`
	BCSCategory string    `json:"bcs_category,omitempty"`

	RERKcal          int      `json:"rer_kcal"`
	DailyCalories    int      `json:"daily_calories"`
	FeedingFrequency int      `json:"feeding_frequency"`
	Portions         Portions `json:"portions"`

	RecommendedFoodTypes  []string `json:"recommended_food_types"`
	FoodsToAvoid          []string `json:"foods_to_avoid"`
	TreatAllowanceKcal    int      `json:"treat_allowance_kcal"`
	ExerciseMinutesPerDay int      `json:"exercise_minutes_per_day"`
	ProteinGuidance       string   `json:"protein_guidance"`
	FatGuidance           string   `json:"fat_guidance"`
	WaterMlPerDay         int      `json:"water_ml_per_day"`
	Notes                 []string `json:"notes"`
}

// CalculateRER is the resting energy requirement: 70 * kg^0.75.
func CalculateRER(weightKg float64) float64 {
	return 70 * math.Pow(weightKg, 0.75)
}

func ActivityMultiplier(level string) float64 {
	switch level {
	case ActivityCouchPotato:
		return 1.2
	case ActivityNormal:
		return 1.6
	case ActivityActive:
		return 2.0
	case ActivityWorking:
		return 3.0
	default:
		return 1.6
	}
}

// BCSCategory buckets a 1-9 body condition score.
func BCSCategory(score int) string {
	switch {
	case score <= 3:
		return "Underweight"
	case score <= 5:
		return "Ideal"
	case score <= 7:
		return "Overweight"
	default:
		return "Obese"
	}
}

func lifeStage(ageYears *float64) string {
	if ageYears == nil {
		return "adult"
	}
	if *ageYears < 1 {
		return "puppy"
	}
	if *ageYears >= 7 {
		return "senior"
	}
	return "adult"
}

// GenerateDietPlan derives a daily feeding plan from the pet's stored
// profile: RER scaled by activity, then adjusted for body condition and
// life stage. Deterministic given a fixed clock.
func (p *Pet) GenerateDietPlan(now time.Time) (*DietPlan, error) {
	if p.WeightKg == nil || *p.WeightKg <= 0 {
		return nil, ErrMissingWeight
	}
	weightKg := *p.WeightKg

	stage := lifeStage(p.AgeYears)
	rer := math.Round(CalculateRER(weightKg))
	daily := math.Round(rer * ActivityMultiplier(p.ActivityLevel))

	plan := &DietPlan{
		PetID:        p.ID.String(),
		GeneratedAt:  now,
		PetName:      p.Name,
		Breed:        p.Breed,
		WeightKg:     weightKg,
		AgeYears:     p.AgeYears,
		BCS:          p.BCS,
		RERKcal:      int(rer),
		FoodsToAvoid: ToxicFoods,
	}

	switch {
	case p.BCS == nil:
		plan.Notes = append(plan.Notes, "BCS missing - use the BCS calculator to assess body condition.")
	case *p.BCS <= 3:
		daily = math.Round(daily * 1.2)
		plan.Notes = append(plan.Notes, "Underweight: high-calorie, nutrient-dense diet; more frequent feeding; focus on protein.")
	case *p.BCS <= 5:
		plan.Notes = append(plan.Notes, "Maintain current energy intake and regular exercise.")
	case *p.BCS <= 7:
		daily = math.Round(daily * 0.85)
		plan.Notes = append(plan.Notes, "Overweight: controlled calories, reduced fat, increased fiber, increased activity.")
	default:
		daily = math.Round(daily * 0.75)
		plan.Notes = append(plan.Notes, "Obese: strict calorie-deficit plan with high-fiber weight-management foods.")
	}
	if p.BCS != nil {
		plan.BCSCategory = BCSCategory(*p.BCS)
	}

	plan.ProteinGuidance = "18-25% (adult)"
	plan.FatGuidance = "10-15% (adult)"
	switch stage {
	case "puppy":
		daily = math.Round(daily * 1.25)
		plan.ProteinGuidance = "22-32% (puppy growth)"
		plan.FatGuidance = "12-20% (puppy)"
		plan.Notes = append(plan.Notes, "Puppy: growth-focused nutrition with higher protein and fat.")
	case "senior":
		daily = math.Round(daily * 0.95)
		plan.Notes = append(plan.Notes, "Senior: consider lower calorie intake and joint-support nutrients.")
	}

	plan.DailyCalories = int(daily)
	plan.FeedingFrequency = 2
	if stage == "puppy" {
		plan.FeedingFrequency = 3
	}

	cupsPerDay := math.Max(0.1, math.Round(daily/kcalPerCup*10)/10)
	cupsPerMeal := math.Round(cupsPerDay/float64(plan.FeedingFrequency)*10) / 10
	plan.Portions = Portions{
		CupsPerMeal:  cupsPerMeal,
		GramsPerMeal: int(math.Round(cupsPerMeal * gramsPerCup)),
		KcalPerMeal:  int(math.Round(daily / float64(plan.FeedingFrequency))),
	}

	plan.TreatAllowanceKcal = int(math.Round(daily * 0.1))

	switch p.ActivityLevel {
	case ActivityCouchPotato:
		plan.ExerciseMinutesPerDay = 20
	case ActivityActive:
		plan.ExerciseMinutesPerDay = 60
	case ActivityWorking:
		plan.ExerciseMinutesPerDay = 90
	default:
		plan.ExerciseMinutesPerDay = 30
	}

	plan.WaterMlPerDay = int(math.Round(weightKg / kgPerLb * mlPerOunce))

	if p.BCS != nil && *p.BCS <= 3 {
		plan.RecommendedFoodTypes = append(plan.RecommendedFoodTypes, "High-calorie, nutrient-dense (growth/puppy style)")
	}
	if p.BCS != nil && *p.BCS >= 6 {
		plan.RecommendedFoodTypes = append(plan.RecommendedFoodTypes, "High-fiber weight management diet")
	}
	plan.RecommendedFoodTypes = append(plan.RecommendedFoodTypes,
		"Dry kibble (measure by cup)",
		"Wet food (as supplement)",
		"Combination feeding",
	)

	return plan, nil
}
