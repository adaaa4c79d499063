package pet

import (
	"time"

	"github.com/google/uuid"
)

// Activity levels recognised by the diet planner. Unset or unknown levels
// fall back to ActivityNormal.
const (
	ActivityCouchPotato = "couch_potato"
	ActivityNormal      = "normal"
	ActivityActive      = "active"
	ActivityWorking     = "working"
)

const DefaultType = "dog"

type Pet struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	OwnerID uuid.UUID `gorm:"column:owner_id;type:uuid;not null;index" json:"owner_id"`

	Type  string `gorm:"column:type;type:varchar(30);not null;default:'dog';index" json:"type"`
	Name  string `gorm:"column:name;type:varchar(100);not null" json:"name"`
	Breed string `gorm:"column:breed;type:varchar(100)" json:"breed,omitempty"`

	WeightKg         *float64   `gorm:"column:weight_kg" json:"weight_kg,omitempty"`
	AgeYears         *float64   `gorm:"column:age_years" json:"age_years,omitempty"`
	Gender           string     `gorm:"column:gender;type:varchar(10)" json:"gender,omitempty"`
	BCS              *int       `gorm:"column:bcs" json:"bcs,omitempty"`
	BCSCalculatedAt  *time.Time `gorm:"column:bcs_calculated_at" json:"bcs_calculated_at,omitempty"`
	ActivityLevel    string     `gorm:"column:activity_level;type:varchar(20)" json:"activity_level,omitempty"`
	Allergies        []string   `gorm:"column:allergies;type:jsonb;serializer:json" json:"allergies,omitempty"`
	PreferredDiet    string     `gorm:"column:preferred_diet;type:varchar(100)" json:"preferred_diet,omitempty"`
	HealthNotes      string     `gorm:"column:health_notes;type:text" json:"health_notes,omitempty"`
	VaccinationState string     `gorm:"column:vaccination_status;type:varchar(50)" json:"vaccination_status,omitempty"`
	AvatarURL        string     `gorm:"column:avatar_url;type:text" json:"avatar_url,omitempty"`
}

func (Pet) TableName() string {
	return "pets"
}

// AgeGroup buckets age into the life stages the disease models use.
func AgeGroup(ageYears float64) string {
	switch {
	case ageYears <= 3:
		return "Puppy"
	case ageYears <= 7:
		return "Adult"
	case ageYears <= 11:
		return "Senior"
	default:
		return "Geriatric"
	}
}

// WithOwner is a pet joined with its owner's public identity, the shape
// vets and admins see in listings.
type WithOwner struct {
	Pet
	OwnerUsername string `json:"owner_username,omitempty"`
	OwnerEmail    string `json:"owner_email,omitempty"`
}

// SkinScan is one skin-disease scan record for a pet. The classification
// itself happens client-side against the hosted model; the record stores
// the verdict and the affected-area photo.
type SkinScan struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	PetID   uuid.UUID `gorm:"column:pet_id;type:uuid;not null;index" json:"pet_id"`
	OwnerID uuid.UUID `gorm:"column:owner_id;type:uuid;not null" json:"owner_id"`

	Disease          string   `gorm:"column:disease;type:varchar(100);not null" json:"disease"`
	Confidence       *float64 `gorm:"column:confidence" json:"confidence,omitempty"`
	AllProbabilities string   `gorm:"column:all_probabilities;type:jsonb" json:"all_probabilities,omitempty"`
	ImageURL         string   `gorm:"column:image_url;type:text" json:"image_url,omitempty"`
}

func (SkinScan) TableName() string {
	return "skin_scans"
}

// GaitAnalysis persists one disease-prediction run: the gait features the
// owner reported, the optional limping-detection echo, and the model's
// verdict. Written best effort when a pet_id accompanies the request.
type GaitAnalysis struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	PetID  uuid.UUID `gorm:"column:pet_id;type:uuid;not null;index" json:"pet_id"`
	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`

	AgeYears           int    `gorm:"column:age_years" json:"age_years"`
	WeightCategory     string `gorm:"column:weight_category;type:varchar(20)" json:"weight_category"`
	LimpingDetected    int    `gorm:"column:limping_detected" json:"limping_detected"`
	PainWhileWalking   int    `gorm:"column:pain_while_walking" json:"pain_while_walking"`
	DifficultyStanding int    `gorm:"column:difficulty_standing" json:"difficulty_standing"`
	ReducedActivity    int    `gorm:"column:reduced_activity" json:"reduced_activity"`
	JointSwelling      int    `gorm:"column:joint_swelling" json:"joint_swelling"`

	LimpingClass      string   `gorm:"column:limping_class;type:varchar(50)" json:"limping_class,omitempty"`
	LimpingConfidence *float64 `gorm:"column:limping_confidence" json:"limping_confidence,omitempty"`
	SIFront           *float64 `gorm:"column:limping_si_front" json:"limping_si_front,omitempty"`
	SIBack            *float64 `gorm:"column:limping_si_back" json:"limping_si_back,omitempty"`
	SIOverall         *float64 `gorm:"column:limping_si_overall" json:"limping_si_overall,omitempty"`

	PredictedDisease  string  `gorm:"column:predicted_disease;type:varchar(100)" json:"predicted_disease"`
	DiseaseConfidence float64 `gorm:"column:disease_confidence" json:"disease_confidence"`
	RiskLevel         string  `gorm:"column:risk_level;type:varchar(20)" json:"risk_level"`
	SymptomScore      int     `gorm:"column:symptom_score" json:"symptom_score"`
	PainSeverity      string  `gorm:"column:pain_severity;type:varchar(20)" json:"pain_severity,omitempty"`
	Recommendations   string  `gorm:"column:recommendations;type:jsonb" json:"recommendations,omitempty"`
}

func (GaitAnalysis) TableName() string {
	return "gait_analyses"
}

type CreateCommand struct {
	OwnerID          uuid.UUID
	Type             string
	Name             string
	Breed            string
	WeightKg         *float64
	AgeYears         *float64
	Gender           string
	ActivityLevel    string
	Allergies        []string
	PreferredDiet    string
	HealthNotes      string
	VaccinationState string
}

// UpdateCommand carries sparse field updates; nil leaves a field unchanged.
type UpdateCommand struct {
	Type             *string
	Name             *string
	Breed            *string
	WeightKg         *float64
	AgeYears         *float64
	Gender           *string
	BCS              *int
	ActivityLevel    *string
	Allergies        []string
	PreferredDiet    *string
	HealthNotes      *string
	VaccinationState *string
}
