package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vetlink/vetlink/internal/domain/pet"
	"github.com/vetlink/vetlink/internal/inference"
)

// Enumerations the hosted models were trained on. Anything outside these
// is rejected before the call leaves the service.
var (
	validBreedSizes     = map[string]bool{"Small": true, "Medium": true, "Large": true}
	validSexes          = map[string]bool{"Male": true, "Female": true}
	validTickPrevention = map[string]bool{"None": true, "Irregular": true, "Regular": true}
	validDietTypes      = map[string]bool{"Commercial": true, "Homemade": true, "Raw": true, "Mixed": true}
	validExercise       = map[string]bool{"Low": true, "Moderate": true, "High": true}
	validEnvironments   = map[string]bool{
		"Indoor": true, "Outdoor": true, "Mixed": true,
		"Suburban": true, "Rural": true, "Urban": true,
	}
)

// PredictionResult is a model's raw JSON reply; the platform does not
// reinterpret scores, it only relays them.
type PredictionResult map[string]any

// LimpingAnalysis is the gait video model's verdict, optionally echoed
// back by the client on a follow-up risk query so the two results can be
// stored together.
type LimpingAnalysis struct {
	Class      string   `json:"class"`
	Confidence *float64 `json:"confidence"`
	SIFront    *float64 `json:"SI_front"`
	SIBack     *float64 `json:"SI_back"`
	SIOverall  *float64 `json:"SI_overall"`
}

// DiseaseInput carries the gait symptom features for the joint-disease
// risk model. The symptom flags are pointers so a missing field can be
// told apart from an explicit zero.
type DiseaseInput struct {
	LimpingDetected    *int   `json:"limping_detected"`
	AgeYears           int    `json:"age_years"`
	WeightCategory     string `json:"weight_category"`
	PainWhileWalking   *int   `json:"pain_while_walking"`
	DifficultyStanding *int   `json:"difficulty_standing"`
	ReducedActivity    *int   `json:"reduced_activity"`
	JointSwelling      *int   `json:"joint_swelling"`

	LimpingAnalysis *LimpingAnalysis `json:"limping_analysis_result"`
	PetID           *uuid.UUID       `json:"pet_id"`
}

func (in *DiseaseInput) validate() error {
	var fields []string
	if in.LimpingDetected == nil {
		fields = append(fields, "limping_detected is required")
	}
	if in.AgeYears <= 0 {
		fields = append(fields, "age_years is required")
	}
	if in.WeightCategory == "" {
		fields = append(fields, "weight_category is required")
	}
	if in.PainWhileWalking == nil {
		fields = append(fields, "pain_while_walking is required")
	}
	if in.DifficultyStanding == nil {
		fields = append(fields, "difficulty_standing is required")
	}
	if in.ReducedActivity == nil {
		fields = append(fields, "reduced_activity is required")
	}
	if in.JointSwelling == nil {
		fields = append(fields, "joint_swelling is required")
	}
	if len(fields) > 0 {
		return newValidationError(fields...)
	}
	return nil
}

// DiseasePrediction is the model's answer enriched with locally derived
// context about the dog.
type DiseasePrediction struct {
	PredictedDisease string          `json:"predicted_disease"`
	Confidence       float64         `json:"confidence"`
	RiskLevel        string          `json:"risk_level"`
	SymptomScore     int             `json:"symptom_score"`
	PainSeverity     string          `json:"pain_severity"`
	Recommendations  json.RawMessage `json:"recommendations"`
	AgeGroup         string          `json:"age_group"`
	RiskProfile      string          `json:"risk_profile"`
	MobilityStatus   string          `json:"mobility_status"`
	AnalysisID       *uuid.UUID      `json:"analysis_id,omitempty"`
}

// MultiDiseaseInput is the 13-feature profile for the multi-label risk
// model.
type MultiDiseaseInput struct {
	AgeYears            *int       `json:"age_years"`
	BreedSize           string     `json:"breed_size"`
	Sex                 string     `json:"sex"`
	IsNeutered          *bool      `json:"is_neutered"`
	BodyConditionScore  *int       `json:"body_condition_score"`
	PaleGums            *bool      `json:"pale_gums"`
	SkinLesions         *bool      `json:"skin_lesions"`
	Polyuria            *bool      `json:"polyuria"`
	TickPrevention      string     `json:"tick_prevention"`
	HeartwormPrevention *bool      `json:"heartworm_prevention"`
	DietType            string     `json:"diet_type"`
	ExerciseLevel       string     `json:"exercise_level"`
	Environment         string     `json:"environment"`
	PetID               *uuid.UUID `json:"pet_id,omitempty"`
}

func (in *MultiDiseaseInput) validate() error {
	var fields []string
	if in.AgeYears == nil {
		fields = append(fields, "age_years is required")
	}
	if in.BreedSize == "" {
		fields = append(fields, "breed_size is required")
	}
	if in.Sex == "" {
		fields = append(fields, "sex is required")
	}
	if in.IsNeutered == nil {
		fields = append(fields, "is_neutered is required")
	}
	if in.BodyConditionScore == nil {
		fields = append(fields, "body_condition_score is required")
	}
	if in.PaleGums == nil {
		fields = append(fields, "pale_gums is required")
	}
	if in.SkinLesions == nil {
		fields = append(fields, "skin_lesions is required")
	}
	if in.Polyuria == nil {
		fields = append(fields, "polyuria is required")
	}
	if in.TickPrevention == "" {
		fields = append(fields, "tick_prevention is required")
	}
	if in.HeartwormPrevention == nil {
		fields = append(fields, "heartworm_prevention is required")
	}
	if in.DietType == "" {
		fields = append(fields, "diet_type is required")
	}
	if in.ExerciseLevel == "" {
		fields = append(fields, "exercise_level is required")
	}
	if in.Environment == "" {
		fields = append(fields, "environment is required")
	}
	if len(fields) > 0 {
		return newValidationError(fields...)
	}

	if *in.AgeYears < 0 || *in.AgeYears > 30 {
		fields = append(fields, "age_years must be between 0 and 30")
	}
	if *in.BodyConditionScore < 1 || *in.BodyConditionScore > 9 {
		fields = append(fields, "body_condition_score must be between 1 and 9")
	}
	if !validBreedSizes[in.BreedSize] {
		fields = append(fields, "breed_size must be one of Small, Medium, Large")
	}
	if !validSexes[in.Sex] {
		fields = append(fields, "sex must be Male or Female")
	}
	if !validTickPrevention[in.TickPrevention] {
		fields = append(fields, "tick_prevention must be one of None, Irregular, Regular")
	}
	if !validDietTypes[in.DietType] {
		fields = append(fields, "diet_type must be one of Commercial, Homemade, Raw, Mixed")
	}
	if !validExercise[in.ExerciseLevel] {
		fields = append(fields, "exercise_level must be one of Low, Moderate, High")
	}
	if !validEnvironments[in.Environment] {
		fields = append(fields, "environment must be one of Indoor, Outdoor, Mixed, Suburban, Rural, Urban")
	}
	if len(fields) > 0 {
		return newValidationError(fields...)
	}
	return nil
}

// LimpingResult is the documented shape of the gait video model's reply.
type LimpingResult struct {
	Class      string   `json:"class"`
	Confidence *float64 `json:"confidence"`
	SIFront    *float64 `json:"SI_front"`
	SIBack     *float64 `json:"SI_back"`
	SIOverall  *float64 `json:"SI_overall"`
	Error      string   `json:"error,omitempty"`
}

// DemandInput is the feature row for the pharmacy demand model. Required
// fields are pointers so a missing value fails validation instead of
// silently reading as zero.
type DemandInput struct {
	PharmacyID     *float64 `json:"pharmacy_id"`
	MedicineID     *float64 `json:"medicine_id"`
	Price          *float64 `json:"price"`
	InventoryLevel *float64 `json:"inventory_level"`
	ExpiryDays     *float64 `json:"expiry_days"`
	LocationLatX   *float64 `json:"location_lat_x"`
	LocationLongX  *float64 `json:"location_long_x"`
	PromotionFlag  *float64 `json:"promotion_flag"`

	InventoryID          *float64 `json:"inventory_id,omitempty"`
	CurrentStock         *float64 `json:"current_stock,omitempty"`
	ReorderLevel         *float64 `json:"reorder_level,omitempty"`
	SupplierLeadTimeDays *float64 `json:"supplier_lead_time_days,omitempty"`
	LocationLatY         *float64 `json:"location_lat_y,omitempty"`
	LocationLongY        *float64 `json:"location_long_y,omitempty"`
	DeliveryAvailable    *float64 `json:"delivery_available,omitempty"`
	PickupAvailable      *float64 `json:"pickup_available,omitempty"`
	PriceMarkupFactor    *float64 `json:"price_markup_factor,omitempty"`
	TotalPrescribedQty   *float64 `json:"total_prescribed_qty,omitempty"`
	AvgUrgency           *float64 `json:"avg_urgency,omitempty"`
}

func (in *DemandInput) validate() error {
	required := map[string]*float64{
		"pharmacy_id":     in.PharmacyID,
		"medicine_id":     in.MedicineID,
		"price":           in.Price,
		"inventory_level": in.InventoryLevel,
		"expiry_days":     in.ExpiryDays,
		"location_lat_x":  in.LocationLatX,
		"location_long_x": in.LocationLongX,
		"promotion_flag":  in.PromotionFlag,
	}
	var fields []string
	for name, v := range required {
		if v == nil {
			fields = append(fields, name+" is required")
		}
	}
	if len(fields) > 0 {
		return newValidationError(fields...)
	}
	return nil
}

type PredictionService struct {
	client *inference.Client
	gait   pet.GaitAnalysisRepository
	log    *zap.Logger
}

func NewPredictionService(client *inference.Client, gait pet.GaitAnalysisRepository, log *zap.Logger) *PredictionService {
	return &PredictionService{client: client, gait: gait, log: log}
}

// PredictDisease runs the joint-disease risk model on gait symptoms and
// enriches the answer with symptom score, age group, risk profile and
// mobility status. When a pet id is supplied the analysis is recorded,
// best effort.
func (s *PredictionService) PredictDisease(ctx context.Context, userID uuid.UUID, in *DiseaseInput) (*DiseasePrediction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"Limping_Detected":    *in.LimpingDetected,
		"Age_Years":           in.AgeYears,
		"Weight_Category":     in.WeightCategory,
		"Pain_While_Walking":  *in.PainWhileWalking,
		"Difficulty_Standing": *in.DifficultyStanding,
		"Reduced_Activity":    *in.ReducedActivity,
		"Joint_Swelling":      *in.JointSwelling,
	}

	var result struct {
		PredictedDisease string          `json:"predicted_disease"`
		Confidence       float64         `json:"confidence"`
		RiskLevel        string          `json:"risk_level"`
		PainSeverity     string          `json:"pain_severity"`
		Recommendations  json.RawMessage `json:"recommendations"`
		Error            string          `json:"error"`
	}
	if err := s.client.PredictJSON(ctx, inference.ModelDisease, payload, &result); err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, newValidationError(result.Error)
	}

	symptomScore := *in.PainWhileWalking + *in.DifficultyStanding + *in.ReducedActivity + *in.JointSwelling

	prediction := &DiseasePrediction{
		PredictedDisease: result.PredictedDisease,
		Confidence:       result.Confidence,
		RiskLevel:        result.RiskLevel,
		SymptomScore:     symptomScore,
		PainSeverity:     result.PainSeverity,
		Recommendations:  result.Recommendations,
		AgeGroup:         pet.AgeGroup(float64(in.AgeYears)),
		RiskProfile:      "Normal",
		MobilityStatus:   "Normal",
	}
	if in.AgeYears > 10 && in.WeightCategory == "Heavy" {
		prediction.RiskProfile = "High"
	}
	if *in.LimpingDetected == 1 && *in.DifficultyStanding == 1 {
		prediction.MobilityStatus = "Impaired"
	}

	if in.PetID != nil {
		record := &pet.GaitAnalysis{
			PetID:              *in.PetID,
			UserID:             userID,
			AgeYears:           in.AgeYears,
			WeightCategory:     in.WeightCategory,
			LimpingDetected:    *in.LimpingDetected,
			PainWhileWalking:   *in.PainWhileWalking,
			DifficultyStanding: *in.DifficultyStanding,
			ReducedActivity:    *in.ReducedActivity,
			JointSwelling:      *in.JointSwelling,
			LimpingClass:       "Unknown",
			PredictedDisease:   result.PredictedDisease,
			DiseaseConfidence:  result.Confidence,
			RiskLevel:          result.RiskLevel,
			SymptomScore:       symptomScore,
			PainSeverity:       result.PainSeverity,
			Recommendations:    string(result.Recommendations),
		}
		if la := in.LimpingAnalysis; la != nil {
			if la.Class != "" {
				record.LimpingClass = la.Class
			}
			record.LimpingConfidence = la.Confidence
			record.SIFront = la.SIFront
			record.SIBack = la.SIBack
			record.SIOverall = la.SIOverall
		}
		if err := s.gait.Create(ctx, record); err != nil {
			s.log.Warn("failed to persist gait analysis",
				zap.String("pet_id", in.PetID.String()), zap.Error(err))
		} else {
			prediction.AnalysisID = &record.ID
		}
	}

	return prediction, nil
}

// PredictMultiDisease relays the full 13-feature profile to the
// multi-label risk model and passes its reply through unchanged.
func (s *PredictionService) PredictMultiDisease(ctx context.Context, in *MultiDiseaseInput) (PredictionResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var result PredictionResult
	if err := s.client.PredictJSON(ctx, inference.ModelMultiDisease, in, &result); err != nil {
		return nil, err
	}
	if msg, ok := result["error"].(string); ok && msg != "" {
		return nil, newValidationError(msg)
	}
	return result, nil
}

// ListGaitHistory returns the caller's past gait analyses.
func (s *PredictionService) ListGaitHistory(ctx context.Context, userID uuid.UUID) ([]pet.GaitAnalysis, error) {
	return s.gait.ListByUser(ctx, userID)
}

// AnalyzeLimping uploads a gait video to the limping detection model.
func (s *PredictionService) AnalyzeLimping(ctx context.Context, filename, contentType string, video []byte) (*LimpingResult, error) {
	if len(video) == 0 {
		return nil, newValidationError("video file is required")
	}
	if !strings.HasPrefix(contentType, "video/") {
		return nil, newValidationError("file must be a video")
	}

	var result LimpingResult
	if err := s.client.PredictMedia(ctx, inference.ModelLimping, "video", filename, video, &result); err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, newValidationError(result.Error)
	}
	return &result, nil
}

// AnalyzePose relays an image or video to the pose model. kind selects
// which variant the client recorded; it defaults to image.
func (s *PredictionService) AnalyzePose(ctx context.Context, kind, filename, contentType string, data []byte) (PredictionResult, error) {
	if len(data) == 0 {
		return nil, newValidationError("file is required")
	}
	switch kind {
	case "video":
		if !strings.HasPrefix(contentType, "video/") {
			return nil, newValidationError("file must be a video for video pose detection")
		}
	default:
		if !strings.HasPrefix(contentType, "image/") {
			return nil, newValidationError("file must be an image for image pose detection")
		}
	}

	var result PredictionResult
	if err := s.client.PredictMedia(ctx, inference.ModelPose, "file", filename, data, &result); err != nil {
		return nil, err
	}
	if msg, ok := result["error"].(string); ok && msg != "" {
		return nil, newValidationError(msg)
	}
	return result, nil
}

// PredictDemand relays a pharmacy demand feature row to the demand model.
func (s *PredictionService) PredictDemand(ctx context.Context, in *DemandInput) (PredictionResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var result PredictionResult
	if err := s.client.PredictJSON(ctx, inference.ModelDemand, in, &result); err != nil {
		return nil, err
	}
	if msg, ok := result["error"].(string); ok && msg != "" {
		return nil, newValidationError(msg)
	}
	return result, nil
}
