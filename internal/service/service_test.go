package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vetlink/vetlink/internal/domain"
	"github.com/vetlink/vetlink/internal/domain/appointment"
	"github.com/vetlink/vetlink/pkg/metrics"
)

// Collectors register against the global prometheus registry, so every test
// instance needs its own namespace.
var collectorSeq atomic.Int64

func testCollector() *metrics.Collector {
	return metrics.NewCollector(fmt.Sprintf("vetlink_test_%d", collectorSeq.Add(1)))
}

// fakeMailer records sent mail and can be told to fail.
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *fakeMailer) lastSent() sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

// fakeUserRepo is an in-memory domain.UserRepository.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return domain.ErrUsernameTaken
		}
		if existing.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) List(_ context.Context, role *domain.Role) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		if role == nil || u.Role == *role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

// fakeAppointmentRepo is an in-memory appointment.Repository that enforces
// the one-active-booking-per-slot rule the way the partial index does.
type fakeAppointmentRepo struct {
	mu    sync.Mutex
	appts map[uuid.UUID]*appointment.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appts: make(map[uuid.UUID]*appointment.Appointment)}
}

func (r *fakeAppointmentRepo) Create(_ context.Context, appt *appointment.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.appts {
		if a.VeterinarianID == appt.VeterinarianID && a.Date == appt.Date &&
			a.Time == appt.Time && a.Status.IsActive() {
			return appointment.ErrSlotAlreadyBooked
		}
	}
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	cp := *appt
	r.appts[appt.ID] = &cp
	return nil
}

func (r *fakeAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok {
		return nil, appointment.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAppointmentRepo) GetDetailByID(ctx context.Context, id uuid.UUID) (*appointment.Detail, error) {
	a, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &appointment.Detail{Appointment: *a}, nil
}

func (r *fakeAppointmentRepo) List(_ context.Context, q appointment.ListQuery) ([]appointment.Detail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []appointment.Detail
	for _, a := range r.appts {
		if q.UserID != nil && a.UserID != *q.UserID {
			continue
		}
		if q.VeterinarianID != nil && a.VeterinarianID != *q.VeterinarianID {
			continue
		}
		if q.Status != nil && a.Status != *q.Status {
			continue
		}
		out = append(out, appointment.Detail{Appointment: *a})
	}
	return out, nil
}

func (r *fakeAppointmentRepo) Update(_ context.Context, appt *appointment.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appts[appt.ID]; !ok {
		return appointment.ErrNotFound
	}
	for _, a := range r.appts {
		if a.ID != appt.ID && a.VeterinarianID == appt.VeterinarianID &&
			a.Date == appt.Date && a.Time == appt.Time &&
			a.Status.IsActive() && appt.Status.IsActive() {
			return appointment.ErrSlotAlreadyBooked
		}
	}
	cp := *appt
	r.appts[appt.ID] = &cp
	return nil
}

func (r *fakeAppointmentRepo) BookedSlots(_ context.Context, vetID uuid.UUID, date string) ([]appointment.SlotBooking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []appointment.SlotBooking
	for _, a := range r.appts {
		if a.VeterinarianID == vetID && a.Date == date && a.Status.IsActive() {
			out = append(out, appointment.SlotBooking{Time: a.Time, Status: a.Status})
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) CountActiveForDate(_ context.Context, date string) (map[uuid.UUID]appointment.VetLoad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]appointment.VetLoad)
	for _, a := range r.appts {
		if a.Date != date || !a.Status.IsActive() {
			continue
		}
		load := out[a.VeterinarianID]
		load.Total++
		if a.Status == appointment.StatusPending {
			load.Pending++
		} else {
			load.Accepted++
		}
		out[a.VeterinarianID] = load
	}
	return out, nil
}

func testNotifier(m *fakeMailer) *NotificationService {
	return NewNotificationService(m, testCollector(), zap.NewNop(), 16)
}
