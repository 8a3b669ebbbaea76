package offering

import (
	"context"
	"testing"

	"huletfish/internal/apperror"
	"huletfish/internal/auth"
	"huletfish/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository is a mock implementation of Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, o *Offering) error {
	args := m.Called(ctx, o)
	if args.Error(0) == nil {
		o.ID = 1
	}
	return args.Error(0)
}

func (m *MockRepository) Update(ctx context.Context, o *Offering) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id int) (*Offering, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Offering), args.Error(1)
}

func (m *MockRepository) ListPublic(ctx context.Context, filter ListFilter) ([]Offering, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Offering), args.Error(1)
}

func (m *MockRepository) ListByHost(ctx context.Context, hostID int) ([]Offering, error) {
	args := m.Called(ctx, hostID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Offering), args.Error(1)
}

func (m *MockRepository) SetApproval(ctx context.Context, id int, approved bool, note string) error {
	args := m.Called(ctx, id, approved, note)
	return args.Error(0)
}

func (m *MockRepository) Deactivate(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUserRepository covers the host lookups the service performs.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, name, email, passwordHash, role string) (*user.User, error) {
	args := m.Called(ctx, name, email, passwordHash, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ApproveHost(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var (
	host  = auth.Actor{UserID: 2, Role: auth.RoleHost}
	admin = auth.Actor{UserID: 1, Role: auth.RoleAdmin}
	guest = auth.Actor{UserID: 3, Role: auth.RoleTourist}
	other = auth.Actor{UserID: 4, Role: auth.RoleHost}
)

func validRequest() OfferingRequest {
	return OfferingRequest{
		Title:     "Coffee ceremony",
		Category:  CategoryCoffeeCeremony,
		Price:     Price{AmountCents: 150000, Currency: "ETB", Unit: UnitPerPerson},
		Duration:  Duration{Hours: 2},
		MaxGuests: 6,
		Images:    Images{{URL: "https://img.example/1.jpg"}, {URL: "https://img.example/2.jpg"}},
		Availability: Availability{
			Schedule: []DaySchedule{{Day: "monday", IsAvailable: true, TimeSlots: []TimeSlot{{StartTime: "09:00", EndTime: "11:00", MaxBookings: 2}}}},
		},
	}
}

func TestService_Create(t *testing.T) {
	tests := []struct {
		name      string
		actor     auth.Actor
		req       func() OfferingRequest
		setupMock func(*MockRepository, *MockUserRepository)
		wantKind  error
		wantCode  string
	}{
		{
			name:  "approved host",
			actor: host,
			req:   validRequest,
			setupMock: func(r *MockRepository, u *MockUserRepository) {
				u.On("FindByID", mock.Anything, 2).Return(&user.User{ID: 2, Role: auth.RoleHost, HostApproved: true}, nil)
				r.On("Create", mock.Anything, mock.MatchedBy(func(o *Offering) bool {
					return o.HostID == 2 && !o.IsApproved && o.IsActive && o.MinGuests == 1 && o.Images[0].IsMain
				})).Return(nil)
			},
		},
		{
			name:      "tourist cannot create",
			actor:     guest,
			req:       validRequest,
			setupMock: func(r *MockRepository, u *MockUserRepository) {},
			wantKind:  apperror.ErrAuthorization,
		},
		{
			name:  "unapproved host",
			actor: host,
			req:   validRequest,
			setupMock: func(r *MockRepository, u *MockUserRepository) {
				u.On("FindByID", mock.Anything, 2).Return(&user.User{ID: 2, Role: auth.RoleHost}, nil)
			},
			wantKind: apperror.ErrAuthorization,
		},
		{
			name:  "min guests above max",
			actor: host,
			req: func() OfferingRequest {
				req := validRequest()
				req.MinGuests = 8
				return req
			},
			setupMock: func(r *MockRepository, u *MockUserRepository) {
				u.On("FindByID", mock.Anything, 2).Return(&user.User{ID: 2, Role: auth.RoleHost, HostApproved: true}, nil)
			},
			wantKind: apperror.ErrValidation,
			wantCode: ReasonInvalidGuestRange,
		},
		{
			name:  "inverted time slot",
			actor: host,
			req: func() OfferingRequest {
				req := validRequest()
				req.Availability.Schedule[0].TimeSlots[0].EndTime = "08:00"
				return req
			},
			setupMock: func(r *MockRepository, u *MockUserRepository) {
				u.On("FindByID", mock.Anything, 2).Return(&user.User{ID: 2, Role: auth.RoleHost, HostApproved: true}, nil)
			},
			wantKind: apperror.ErrValidation,
			wantCode: ReasonInvalidTimeSlot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			users := new(MockUserRepository)
			tt.setupMock(repo, users)

			svc := NewService(repo, users)
			o, err := svc.Create(context.Background(), tt.actor, tt.req())

			if tt.wantKind != nil {
				assert.ErrorIs(t, err, tt.wantKind)
				if tt.wantCode != "" {
					assert.Equal(t, tt.wantCode, apperror.ReasonOf(err))
				}
				assert.Nil(t, o)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 1, o.ID)
			}

			repo.AssertExpectations(t)
			users.AssertExpectations(t)
		})
	}
}

func TestService_Update_ResetsApproval(t *testing.T) {
	repo := new(MockRepository)
	existing := &Offering{ID: 5, HostID: 2, IsActive: true, IsApproved: true}
	repo.On("GetByID", mock.Anything, 5).Return(existing, nil)
	repo.On("Update", mock.Anything, existing).Return(nil)

	svc := NewService(repo, new(MockUserRepository))
	o, err := svc.Update(context.Background(), host, 5, validRequest())

	require.NoError(t, err)
	assert.False(t, o.IsApproved)
	assert.Equal(t, "Coffee ceremony", o.Title)
	repo.AssertExpectations(t)
}

func TestService_Update_NotOwner(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetByID", mock.Anything, 5).Return(&Offering{ID: 5, HostID: 2}, nil)

	svc := NewService(repo, new(MockUserRepository))
	_, err := svc.Update(context.Background(), other, 5, validRequest())

	assert.ErrorIs(t, err, ErrNotOwner)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestService_Deactivate(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetByID", mock.Anything, 5).Return(&Offering{ID: 5, HostID: 2}, nil)
	repo.On("Deactivate", mock.Anything, 5).Return(nil).Twice()

	svc := NewService(repo, new(MockUserRepository))
	assert.NoError(t, svc.Deactivate(context.Background(), host, 5))
	assert.NoError(t, svc.Deactivate(context.Background(), admin, 5))
	assert.ErrorIs(t, svc.Deactivate(context.Background(), other, 5), apperror.ErrAuthorization)
	repo.AssertExpectations(t)
}

func TestService_Review(t *testing.T) {
	repo := new(MockRepository)
	repo.On("SetApproval", mock.Anything, 5, true, "ok").Return(nil)
	repo.On("SetApproval", mock.Anything, 5, false, "blurry photos").Return(nil)
	repo.On("GetByID", mock.Anything, 5).Return(&Offering{ID: 5}, nil)

	svc := NewService(repo, new(MockUserRepository))

	_, err := svc.Approve(context.Background(), host, 5, "ok")
	assert.ErrorIs(t, err, apperror.ErrAuthorization)

	_, err = svc.Approve(context.Background(), admin, 5, "ok")
	assert.NoError(t, err)
	_, err = svc.Reject(context.Background(), admin, 5, "blurry photos")
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestService_Get_HidesUnbookable(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetByID", mock.Anything, 5).Return(&Offering{ID: 5, IsActive: true, IsApproved: false, HostApproved: true}, nil)
	repo.On("GetByID", mock.Anything, 6).Return(&Offering{ID: 6, IsActive: true, IsApproved: true, HostApproved: true}, nil)

	svc := NewService(repo, new(MockUserRepository))

	_, err := svc.Get(context.Background(), 5)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	o, err := svc.Get(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, 6, o.ID)
}
