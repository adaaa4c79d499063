package v1

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vetlink/vetlink/internal/domain/pet"
	"github.com/vetlink/vetlink/internal/service"
)

// maxUploadBytes caps multipart reads so a runaway upload cannot exhaust
// memory.
const maxUploadBytes = 25 << 20

type PetHandler struct {
	pets *service.PetService
}

func NewPetHandler(pets *service.PetService) *PetHandler {
	return &PetHandler{pets: pets}
}

type petRequest struct {
	Type             *string  `json:"type"`
	Name             *string  `json:"name"`
	Breed            *string  `json:"breed"`
	WeightKg         *float64 `json:"weight_kg"`
	AgeYears         *float64 `json:"age_years"`
	Gender           *string  `json:"gender"`
	BCS              *int     `json:"bcs"`
	ActivityLevel    *string  `json:"activity_level"`
	Allergies        []string `json:"allergies"`
	PreferredDiet    *string  `json:"preferred_diet"`
	HealthNotes      *string  `json:"health_notes"`
	VaccinationState *string  `json:"vaccination_status"`
}

func (h *PetHandler) Create(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}

	var req petRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &pet.CreateCommand{
		WeightKg:  req.WeightKg,
		AgeYears:  req.AgeYears,
		Allergies: req.Allergies,
	}
	if req.Type != nil {
		cmd.Type = *req.Type
	}
	if req.Name != nil {
		cmd.Name = *req.Name
	}
	if req.Breed != nil {
		cmd.Breed = *req.Breed
	}
	if req.Gender != nil {
		cmd.Gender = *req.Gender
	}
	if req.ActivityLevel != nil {
		cmd.ActivityLevel = *req.ActivityLevel
	}
	if req.PreferredDiet != nil {
		cmd.PreferredDiet = *req.PreferredDiet
	}
	if req.HealthNotes != nil {
		cmd.HealthNotes = *req.HealthNotes
	}
	if req.VaccinationState != nil {
		cmd.VaccinationState = *req.VaccinationState
	}

	p, err := h.pets.Create(c.Request.Context(), claims, cmd)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, p)
}

func (h *PetHandler) List(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}

	pets, err := h.pets.List(c.Request.Context(), claims, c.Query("type"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pets)
}

func (h *PetHandler) Get(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.pets.Get(c.Request.Context(), id, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

// Update backs both PUT and PATCH; fields absent from the body are left
// unchanged either way.
func (h *PetHandler) Update(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req petRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.pets.Update(c.Request.Context(), id, &pet.UpdateCommand{
		Type:             req.Type,
		Name:             req.Name,
		Breed:            req.Breed,
		WeightKg:         req.WeightKg,
		AgeYears:         req.AgeYears,
		Gender:           req.Gender,
		BCS:              req.BCS,
		ActivityLevel:    req.ActivityLevel,
		Allergies:        req.Allergies,
		PreferredDiet:    req.PreferredDiet,
		HealthNotes:      req.HealthNotes,
		VaccinationState: req.VaccinationState,
	}, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

func (h *PetHandler) Delete(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.pets.Delete(c.Request.Context(), id, claims); err != nil {
		respondServiceError(c, err)
		return
	}
	respondMessage(c, "pet deleted")
}

type avatarRequest struct {
	DataURL string `json:"dataUrl"`
}

func (h *PetHandler) SetAvatar(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req avatarRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.DataURL == "" {
		respondError(c, http.StatusBadRequest, "dataUrl is required")
		return
	}

	url, err := h.pets.SetAvatar(c.Request.Context(), id, req.DataURL, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"url": url})
}

func (h *PetHandler) ListSkinScans(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	scans, err := h.pets.ListSkinScans(c.Request.Context(), id, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"records": scans})
}

func (h *PetHandler) AddSkinScan(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		respondError(c, http.StatusBadRequest, "could not read image upload")
		return
	}

	cmd := &service.SkinScanCommand{
		Disease:          c.PostForm("disease"),
		AllProbabilities: c.PostForm("allProbabilities"),
		Filename:         header.Filename,
		ContentType:      header.Header.Get("Content-Type"),
		Image:            data,
	}
	if raw := c.PostForm("confidence"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			cmd.Confidence = &v
		}
	}

	scan, err := h.pets.AddSkinScan(c.Request.Context(), id, claims, cmd)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, scan)
}

func (h *PetHandler) DietPlan(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	plan, err := h.pets.DietPlan(c.Request.Context(), id, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, plan)
}
