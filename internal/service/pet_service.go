package service

import (
	"context"
	"encoding/base64"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vetlink/vetlink/internal/domain"
	"github.com/vetlink/vetlink/internal/domain/pet"
	"github.com/vetlink/vetlink/pkg/blob"
)

// avatarPattern accepts the formats the frontend camera widget emits.
var avatarPattern = regexp.MustCompile(`^data:(image/(png|jpeg|jpg|webp));base64,(.+)$`)

type PetService struct {
	repo     pet.Repository
	uploader blob.Uploader
	log      *zap.Logger
	now      func() time.Time
}

func NewPetService(repo pet.Repository, uploader blob.Uploader, log *zap.Logger) *PetService {
	return &PetService{repo: repo, uploader: uploader, log: log, now: time.Now}
}

func (s *PetService) Create(ctx context.Context, caller *domain.Claims, cmd *pet.CreateCommand) (*pet.Pet, error) {
	if caller.Role != domain.RoleUser {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(cmd.Name) == "" {
		return nil, newValidationError("name is required")
	}

	petType := strings.ToLower(strings.TrimSpace(cmd.Type))
	if petType == "" {
		petType = pet.DefaultType
	}

	p := &pet.Pet{
		OwnerID:          caller.UserID,
		Type:             petType,
		Name:             strings.TrimSpace(cmd.Name),
		Breed:            cmd.Breed,
		WeightKg:         cmd.WeightKg,
		AgeYears:         cmd.AgeYears,
		Gender:           cmd.Gender,
		ActivityLevel:    cmd.ActivityLevel,
		Allergies:        cmd.Allergies,
		PreferredDiet:    cmd.PreferredDiet,
		HealthNotes:      cmd.HealthNotes,
		VaccinationState: cmd.VaccinationState,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info("pet registered",
		zap.String("pet_id", p.ID.String()),
		zap.String("owner_id", p.OwnerID.String()),
		zap.String("type", p.Type),
	)
	return p, nil
}

// List returns the caller's own pets, or every pet with owner identity for
// clinic staff. typeFilter narrows by species when set.
func (s *PetService) List(ctx context.Context, caller *domain.Claims, typeFilter string) ([]pet.WithOwner, error) {
	typeFilter = strings.ToLower(strings.TrimSpace(typeFilter))

	if caller.Role == domain.RoleUser {
		own, err := s.repo.ListByOwner(ctx, caller.UserID, typeFilter)
		if err != nil {
			return nil, err
		}
		out := make([]pet.WithOwner, 0, len(own))
		for _, p := range own {
			out = append(out, pet.WithOwner{Pet: p, OwnerUsername: caller.Username, OwnerEmail: caller.Email})
		}
		return out, nil
	}
	return s.repo.ListAll(ctx, typeFilter)
}

func (s *PetService) Get(ctx context.Context, id uuid.UUID, caller *domain.Claims) (*pet.Pet, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccessPet(p, caller) {
		return nil, ErrForbidden
	}
	return p, nil
}

func (s *PetService) Update(ctx context.Context, id uuid.UUID, cmd *pet.UpdateCommand, caller *domain.Claims) (*pet.Pet, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccessPet(p, caller) {
		return nil, ErrForbidden
	}

	if cmd.Type != nil && strings.TrimSpace(*cmd.Type) != "" {
		p.Type = strings.ToLower(strings.TrimSpace(*cmd.Type))
	}
	if cmd.Name != nil && strings.TrimSpace(*cmd.Name) != "" {
		p.Name = strings.TrimSpace(*cmd.Name)
	}
	if cmd.Breed != nil {
		p.Breed = *cmd.Breed
	}
	if cmd.WeightKg != nil {
		p.WeightKg = cmd.WeightKg
	}
	if cmd.AgeYears != nil {
		p.AgeYears = cmd.AgeYears
	}
	if cmd.Gender != nil {
		p.Gender = *cmd.Gender
	}
	if cmd.BCS != nil {
		p.BCS = cmd.BCS
		at := s.now()
		p.BCSCalculatedAt = &at
	}
	if cmd.ActivityLevel != nil {
		p.ActivityLevel = *cmd.ActivityLevel
	}
	if cmd.Allergies != nil {
		p.Allergies = cmd.Allergies
	}
	if cmd.PreferredDiet != nil {
		p.PreferredDiet = *cmd.PreferredDiet
	}
	if cmd.HealthNotes != nil {
		p.HealthNotes = *cmd.HealthNotes
	}
	if cmd.VaccinationState != nil {
		p.VaccinationState = *cmd.VaccinationState
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PetService) Delete(ctx context.Context, id uuid.UUID, caller *domain.Claims) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canAccessPet(p, caller) {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

// SetAvatar decodes a base64 data URL, stores the image and stamps the
// pet's avatar URL.
func (s *PetService) SetAvatar(ctx context.Context, id uuid.UUID, dataURL string, caller *domain.Claims) (string, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if !canAccessPet(p, caller) {
		return "", ErrForbidden
	}

	m := avatarPattern.FindStringSubmatch(dataURL)
	if m == nil {
		return "", pet.ErrInvalidAvatar
	}
	contentType, subtype, encoded := m[1], m[2], m[3]

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", pet.ErrInvalidAvatar
	}

	url, err := s.uploader.Upload(ctx, raw, contentType, "."+extForImage(subtype))
	if err != nil {
		return "", err
	}

	p.AvatarURL = url
	if err := s.repo.Update(ctx, p); err != nil {
		return "", err
	}
	return url, nil
}

// SkinScanCommand is one skin disease scan submitted by the frontend: the
// model verdict plus the photographed lesion.
type SkinScanCommand struct {
	Disease          string
	Confidence       *float64
	AllProbabilities string
	Filename         string
	ContentType      string
	Image            []byte
}

// AddSkinScan stores the scan image and appends the record to the pet's
// scan history. The image upload is the primary operation; a failed
// history insert is logged but does not fail the request.
func (s *PetService) AddSkinScan(ctx context.Context, petID uuid.UUID, caller *domain.Claims, cmd *SkinScanCommand) (*pet.SkinScan, error) {
	p, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		return nil, err
	}
	if !canAccessPet(p, caller) {
		return nil, ErrForbidden
	}

	if strings.TrimSpace(cmd.Disease) == "" {
		return nil, newValidationError("disease is required")
	}
	if len(cmd.Image) == 0 {
		return nil, newValidationError("image file is required")
	}

	contentType := cmd.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ext := path.Ext(cmd.Filename)
	if ext == "" {
		ext = "." + extForImage(imageSubtype(contentType))
	}
	url, err := s.uploader.Upload(ctx, cmd.Image, contentType, ext)
	if err != nil {
		return nil, err
	}

	scan := &pet.SkinScan{
		PetID:            petID,
		OwnerID:          p.OwnerID,
		Disease:          strings.TrimSpace(cmd.Disease),
		Confidence:       cmd.Confidence,
		AllProbabilities: cmd.AllProbabilities,
		ImageURL:         url,
	}
	if err := s.repo.CreateSkinScan(ctx, scan); err != nil {
		s.log.Warn("failed to persist skin scan record",
			zap.String("pet_id", petID.String()), zap.Error(err))
	}
	return scan, nil
}

func (s *PetService) ListSkinScans(ctx context.Context, petID uuid.UUID, caller *domain.Claims) ([]pet.SkinScan, error) {
	p, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		return nil, err
	}
	if !canAccessPet(p, caller) {
		return nil, ErrForbidden
	}
	return s.repo.ListSkinScans(ctx, petID)
}

// DietPlan generates the feeding recommendation for a dog from its stored
// profile.
func (s *PetService) DietPlan(ctx context.Context, petID uuid.UUID, caller *domain.Claims) (*pet.DietPlan, error) {
	p, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		return nil, err
	}
	if !canAccessPet(p, caller) {
		return nil, ErrForbidden
	}
	if !strings.EqualFold(p.Type, pet.DefaultType) {
		return nil, pet.ErrNotDog
	}
	return p.GenerateDietPlan(s.now())
}

func canAccessPet(p *pet.Pet, caller *domain.Claims) bool {
	return p.OwnerID == caller.UserID ||
		caller.Role == domain.RoleVeterinarian ||
		caller.Role == domain.RoleSuperAdmin
}

func extForImage(subtype string) string {
	switch subtype {
	case "jpeg", "jpg":
		return "jpg"
	case "png":
		return "png"
	case "webp":
		return "webp"
	default:
		return "bin"
	}
}

func imageSubtype(contentType string) string {
	if i := strings.Index(contentType, "/"); i >= 0 {
		return contentType[i+1:]
	}
	return contentType
}
