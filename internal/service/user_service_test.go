package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vetlink/vetlink/internal/domain"
	"github.com/vetlink/vetlink/internal/domain/appointment"
)

type userFixture struct {
	svc   *UserService
	users *fakeUserRepo
	appts *fakeAppointmentRepo
	user  *domain.User
	vet   *domain.User
	admin *domain.User
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	user := &domain.User{ID: uuid.New(), Username: "petowner", Email: "owner@example.com", Role: domain.RoleUser, IsActive: true}
	vet := &domain.User{ID: uuid.New(), Username: "drsmith", Email: "vet@example.com", Role: domain.RoleVeterinarian, IsActive: true}
	admin := &domain.User{ID: uuid.New(), Username: "root", Email: "admin@example.com", Role: domain.RoleSuperAdmin, IsActive: true}

	users := newFakeUserRepo(user, vet, admin)
	appts := newFakeAppointmentRepo()
	return &userFixture{
		svc:   NewUserService(users, appts, zap.NewNop()),
		users: users,
		appts: appts,
		user:  user,
		vet:   vet,
		admin: admin,
	}
}

func TestUpdateProfile(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	email := "  New.Owner@Example.com "
	contact := "555-0102"
	updated, err := f.svc.UpdateProfile(ctx, f.user.ID, ProfileUpdateCommand{Email: &email, ContactNumber: &contact})
	require.NoError(t, err)
	assert.Equal(t, "new.owner@example.com", updated.Email)
	assert.Equal(t, "555-0102", updated.ContactNumber)

	bad := "not-an-email"
	_, err = f.svc.UpdateProfile(ctx, f.user.ID, ProfileUpdateCommand{Email: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	empty := "   "
	var verr *ValidationError
	_, err = f.svc.UpdateProfile(ctx, f.user.ID, ProfileUpdateCommand{Username: &empty})
	assert.ErrorAs(t, err, &verr)
}

func TestListUsersAdminOnly(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	_, err := f.svc.ListUsers(ctx, domain.RoleUser, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	all, err := f.svc.ListUsers(ctx, domain.RoleSuperAdmin, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	role := domain.RoleVeterinarian
	vets, err := f.svc.ListUsers(ctx, domain.RoleSuperAdmin, &role)
	require.NoError(t, err)
	assert.Len(t, vets, 1)

	bogus := domain.Role("WIZARD")
	_, err = f.svc.ListUsers(ctx, domain.RoleSuperAdmin, &bogus)
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestUpdateUserRole(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	promoted, err := f.svc.UpdateUserRole(ctx, f.admin.ID, domain.RoleSuperAdmin, f.user.ID, domain.RoleVeterinarian)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleVeterinarian, promoted.Role)

	_, err = f.svc.UpdateUserRole(ctx, f.user.ID, domain.RoleUser, f.vet.ID, domain.RoleUser)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.UpdateUserRole(ctx, f.admin.ID, domain.RoleSuperAdmin, f.user.ID, domain.Role("WIZARD"))
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	// An admin cannot demote themselves.
	_, err = f.svc.UpdateUserRole(ctx, f.admin.ID, domain.RoleSuperAdmin, f.admin.ID, domain.RoleUser)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSetUserActive(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	deactivated, err := f.svc.SetUserActive(ctx, f.admin.ID, domain.RoleSuperAdmin, f.user.ID, false)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	_, err = f.svc.SetUserActive(ctx, f.user.ID, domain.RoleUser, f.vet.ID, false)
	assert.ErrorIs(t, err, ErrForbidden)

	// Admins cannot lock themselves out.
	_, err = f.svc.SetUserActive(ctx, f.admin.ID, domain.RoleSuperAdmin, f.admin.ID, false)
	assert.ErrorIs(t, err, ErrForbidden)

	reactivated, err := f.svc.SetUserActive(ctx, f.admin.ID, domain.RoleSuperAdmin, f.user.ID, true)
	require.NoError(t, err)
	assert.True(t, reactivated.IsActive)
}

func TestListVeterinarians(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	date := time.Now().AddDate(0, 0, 1).Format(appointment.DateLayout)

	// Two active appointments for drsmith on the date.
	for _, tod := range []string{"09:00:00", "09:30:00"} {
		require.NoError(t, f.appts.Create(ctx, &appointment.Appointment{
			UserID:         f.user.ID,
			VeterinarianID: f.vet.ID,
			Date:           date,
			Time:           tod,
			Status:         appointment.StatusPending,
		}))
	}

	vets, err := f.svc.ListVeterinarians(ctx, date)
	require.NoError(t, err)
	require.Len(t, vets, 1)
	assert.Equal(t, "drsmith", vets[0].Username)
	assert.Equal(t, int64(2), vets[0].Load.Total)
	assert.Equal(t, int64(2), vets[0].Load.Pending)

	// No bookings today, so the load is empty when the date is defaulted.
	vets, err = f.svc.ListVeterinarians(ctx, "")
	require.NoError(t, err)
	require.Len(t, vets, 1)
	assert.Zero(t, vets[0].Load.Total)

	_, err = f.svc.ListVeterinarians(ctx, "tomorrow")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestListVeterinariansSkipsInactive(t *testing.T) {
	f := newUserFixture(t)
	f.vet.IsActive = false
	require.NoError(t, f.users.Update(context.Background(), f.vet))

	vets, err := f.svc.ListVeterinarians(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, vets)
}
