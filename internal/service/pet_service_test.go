package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vetlink/vetlink/internal/domain"
	"github.com/vetlink/vetlink/internal/domain/pet"
)

type fakePetRepo struct {
	mu      sync.Mutex
	pets    map[uuid.UUID]*pet.Pet
	scans   map[uuid.UUID][]pet.SkinScan
	scanErr error
}

func newFakePetRepo() *fakePetRepo {
	return &fakePetRepo{pets: make(map[uuid.UUID]*pet.Pet), scans: make(map[uuid.UUID][]pet.SkinScan)}
}

func (r *fakePetRepo) Create(_ context.Context, p *pet.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.pets[p.ID] = &cp
	return nil
}

func (r *fakePetRepo) GetByID(_ context.Context, id uuid.UUID) (*pet.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pets[id]
	if !ok {
		return nil, pet.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePetRepo) ListByOwner(_ context.Context, ownerID uuid.UUID, typeFilter string) ([]pet.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []pet.Pet
	for _, p := range r.pets {
		if p.OwnerID == ownerID && (typeFilter == "" || p.Type == typeFilter) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePetRepo) ListAll(_ context.Context, typeFilter string) ([]pet.WithOwner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []pet.WithOwner
	for _, p := range r.pets {
		if typeFilter == "" || p.Type == typeFilter {
			out = append(out, pet.WithOwner{Pet: *p})
		}
	}
	return out, nil
}

func (r *fakePetRepo) Update(_ context.Context, p *pet.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pets[p.ID]; !ok {
		return pet.ErrNotFound
	}
	cp := *p
	r.pets[p.ID] = &cp
	return nil
}

func (r *fakePetRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pets[id]; !ok {
		return pet.ErrNotFound
	}
	delete(r.pets, id)
	return nil
}

func (r *fakePetRepo) CreateSkinScan(_ context.Context, scan *pet.SkinScan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scanErr != nil {
		return r.scanErr
	}
	if scan.ID == uuid.Nil {
		scan.ID = uuid.New()
	}
	r.scans[scan.PetID] = append(r.scans[scan.PetID], *scan)
	return nil
}

func (r *fakePetRepo) ListSkinScans(_ context.Context, petID uuid.UUID) ([]pet.SkinScan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scans[petID], nil
}

// fakeUploader is an in-memory blob.Uploader.
type fakeUploader struct {
	mu      sync.Mutex
	uploads []fakeUpload
	err     error
}

type fakeUpload struct {
	Data        []byte
	ContentType string
	Ext         string
}

func (u *fakeUploader) Upload(_ context.Context, data []byte, contentType, ext string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return "", u.err
	}
	u.uploads = append(u.uploads, fakeUpload{Data: data, ContentType: contentType, Ext: ext})
	return fmt.Sprintf("https://blob.example.com/upload-%d%s", len(u.uploads), ext), nil
}

type petFixture struct {
	svc      *PetService
	repo     *fakePetRepo
	uploader *fakeUploader
	owner    *domain.Claims
	vet      *domain.Claims
	stranger *domain.Claims
}

func newPetFixture(t *testing.T) *petFixture {
	t.Helper()
	repo := newFakePetRepo()
	up := &fakeUploader{}
	return &petFixture{
		svc:      NewPetService(repo, up, zap.NewNop()),
		repo:     repo,
		uploader: up,
		owner:    &domain.Claims{UserID: uuid.New(), Username: "petowner", Email: "owner@example.com", Role: domain.RoleUser},
		vet:      &domain.Claims{UserID: uuid.New(), Username: "drsmith", Role: domain.RoleVeterinarian},
		stranger: &domain.Claims{UserID: uuid.New(), Username: "other", Role: domain.RoleUser},
	}
}

func (f *petFixture) createDog(t *testing.T) *pet.Pet {
	t.Helper()
	weight := 20.0
	age := 4.0
	p, err := f.svc.Create(context.Background(), f.owner, &pet.CreateCommand{
		Name:          "Bella",
		Type:          "Dog",
		Breed:         "Labrador",
		WeightKg:      &weight,
		AgeYears:      &age,
		ActivityLevel: pet.ActivityNormal,
	})
	require.NoError(t, err)
	return p
}

func TestPetCreate(t *testing.T) {
	f := newPetFixture(t)

	p := f.createDog(t)
	assert.Equal(t, "dog", p.Type, "species is normalised to lower case")
	assert.Equal(t, f.owner.UserID, p.OwnerID)

	// Untyped pets default to dog.
	p2, err := f.svc.Create(context.Background(), f.owner, &pet.CreateCommand{Name: "Mittens"})
	require.NoError(t, err)
	assert.Equal(t, pet.DefaultType, p2.Type)
}

func TestPetCreateValidation(t *testing.T) {
	f := newPetFixture(t)

	var verr *ValidationError
	_, err := f.svc.Create(context.Background(), f.owner, &pet.CreateCommand{})
	assert.ErrorAs(t, err, &verr)

	_, err = f.svc.Create(context.Background(), f.vet, &pet.CreateCommand{Name: "Bella"})
	assert.ErrorIs(t, err, ErrForbidden, "only owners register pets")
}

func TestPetAccessControl(t *testing.T) {
	f := newPetFixture(t)
	p := f.createDog(t)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, p.ID, f.owner)
	assert.NoError(t, err)

	_, err = f.svc.Get(ctx, p.ID, f.vet)
	assert.NoError(t, err, "clinic staff can view any pet")

	_, err = f.svc.Get(ctx, p.ID, f.stranger)
	assert.ErrorIs(t, err, ErrForbidden)

	err = f.svc.Delete(ctx, p.ID, f.stranger)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Get(ctx, uuid.New(), f.owner)
	assert.ErrorIs(t, err, pet.ErrNotFound)
}

func TestPetUpdateStampsBCSTime(t *testing.T) {
	f := newPetFixture(t)
	p := f.createDog(t)

	bcs := 6
	updated, err := f.svc.Update(context.Background(), p.ID, &pet.UpdateCommand{BCS: &bcs}, f.owner)
	require.NoError(t, err)
	require.NotNil(t, updated.BCS)
	assert.Equal(t, 6, *updated.BCS)
	assert.NotNil(t, updated.BCSCalculatedAt)
}

func TestPetListScopes(t *testing.T) {
	f := newPetFixture(t)
	f.createDog(t)

	// A second owner's pet.
	other := &domain.Claims{UserID: f.stranger.UserID, Username: "other", Role: domain.RoleUser}
	_, err := f.svc.Create(context.Background(), other, &pet.CreateCommand{Name: "Whiskers", Type: "cat"})
	require.NoError(t, err)

	mine, err := f.svc.List(context.Background(), f.owner, "")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "petowner", mine[0].OwnerUsername)

	all, err := f.svc.List(context.Background(), f.vet, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	cats, err := f.svc.List(context.Background(), f.vet, "Cat")
	require.NoError(t, err)
	assert.Len(t, cats, 1)
}

func TestSetAvatar(t *testing.T) {
	f := newPetFixture(t)
	p := f.createDog(t)
	ctx := context.Background()

	encoded := base64.StdEncoding.EncodeToString([]byte("fake-png-bytes"))
	url, err := f.svc.SetAvatar(ctx, p.ID, "data:image/png;base64,"+encoded, f.owner)
	require.NoError(t, err)
	assert.NotEmpty(t, url)

	stored, err := f.repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, url, stored.AvatarURL)

	require.Len(t, f.uploader.uploads, 1)
	assert.Equal(t, "image/png", f.uploader.uploads[0].ContentType)
	assert.Equal(t, ".png", f.uploader.uploads[0].Ext)
	assert.Equal(t, []byte("fake-png-bytes"), f.uploader.uploads[0].Data)
}

func TestSetAvatarJpegMapsToJpgExtension(t *testing.T) {
	f := newPetFixture(t)
	p := f.createDog(t)

	encoded := base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))
	_, err := f.svc.SetAvatar(context.Background(), p.ID, "data:image/jpeg;base64,"+encoded, f.owner)
	require.NoError(t, err)
	assert.Equal(t, ".jpg", f.uploader.uploads[0].Ext)
}

func TestSetAvatarRejectsBadDataURLs(t *testing.T) {
	f := newPetFixture(t)
	p := f.createDog(t)
	ctx := context.Background()

	_, err := f.svc.SetAvatar(ctx, p.ID, "https://example.com/cat.png", f.owner)
	assert.ErrorIs(t, err, pet.ErrInvalidAvatar)

	_, err = f.svc.SetAvatar(ctx, p.ID, "data:image/gif;base64,AAAA", f.owner)
	assert.ErrorIs(t, err, pet.ErrInvalidAvatar)

	_, err = f.svc.SetAvatar(ctx, p.ID, "data:image/png;base64,not-base64!!!", f.owner)
	assert.ErrorIs(t, err, pet.ErrInvalidAvatar)
}

func TestAddSkinScan(t *testing.T) {
	f := newPetFixture(t)
	p := f.createDog(t)
	conf := 0.93

	scan, err := f.svc.AddSkinScan(context.Background(), p.ID, f.owner, &SkinScanCommand{
		Disease:     "Dermatitis",
		Confidence:  &conf,
		Filename:    "lesion.jpeg",
		ContentType: "image/jpeg",
		Image:       []byte("lesion-photo"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Dermatitis", scan.Disease)
	assert.NotEmpty(t, scan.ImageURL)
	assert.Equal(t, p.OwnerID, scan.OwnerID)

	require.Len(t, f.uploader.uploads, 1)
	assert.Equal(t, ".jpeg", f.uploader.uploads[0].Ext)

	history, err := f.svc.ListSkinScans(context.Background(), p.ID, f.owner)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestAddSkinScanValidation(t *testing.T) {
	f := newPetFixture(t)
	p := f.createDog(t)
	ctx := context.Background()

	var verr *ValidationError
	_, err := f.svc.AddSkinScan(ctx, p.ID, f.owner, &SkinScanCommand{Image: []byte("x")})
	assert.ErrorAs(t, err, &verr)

	_, err = f.svc.AddSkinScan(ctx, p.ID, f.owner, &SkinScanCommand{Disease: "Dermatitis"})
	assert.ErrorAs(t, err, &verr)
}

func TestAddSkinScanHistoryInsertIsBestEffort(t *testing.T) {
	f := newPetFixture(t)
	p := f.createDog(t)
	f.repo.scanErr = assert.AnError

	scan, err := f.svc.AddSkinScan(context.Background(), p.ID, f.owner, &SkinScanCommand{
		Disease:     "Ringworm",
		ContentType: "image/png",
		Image:       []byte("photo"),
	})
	require.NoError(t, err, "the upload is the primary operation")
	assert.NotEmpty(t, scan.ImageURL)
}

func TestDietPlan(t *testing.T) {
	f := newPetFixture(t)
	p := f.createDog(t)

	plan, err := f.svc.DietPlan(context.Background(), p.ID, f.owner)
	require.NoError(t, err)
	assert.Equal(t, 662, plan.RERKcal)
	assert.Equal(t, "Bella", plan.PetName)
}

func TestDietPlanDogsOnly(t *testing.T) {
	f := newPetFixture(t)

	cat, err := f.svc.Create(context.Background(), f.owner, &pet.CreateCommand{Name: "Whiskers", Type: "cat"})
	require.NoError(t, err)

	_, err = f.svc.DietPlan(context.Background(), cat.ID, f.owner)
	assert.ErrorIs(t, err, pet.ErrNotDog)
}
