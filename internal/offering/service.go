package offering

import (
	"context"
	"fmt"

	"huletfish/internal/apperror"
	"huletfish/internal/auth"
	"huletfish/internal/logger"
	"huletfish/internal/user"
)

const ReasonInvalidGuestRange = "InvalidGuestRange"

var (
	ErrHostNotApproved = apperror.Authorization("host account is not approved yet")
	ErrNotOwner        = apperror.Authorization("not authorized to modify this offering")
)

type Service interface {
	Create(ctx context.Context, actor auth.Actor, req OfferingRequest) (*Offering, error)
	Update(ctx context.Context, actor auth.Actor, id int, req OfferingRequest) (*Offering, error)
	Deactivate(ctx context.Context, actor auth.Actor, id int) error
	Approve(ctx context.Context, actor auth.Actor, id int, note string) (*Offering, error)
	Reject(ctx context.Context, actor auth.Actor, id int, note string) (*Offering, error)
	Get(ctx context.Context, id int) (*Offering, error)
	ListPublic(ctx context.Context, filter ListFilter) ([]Offering, error)
	ListByHost(ctx context.Context, actor auth.Actor) ([]Offering, error)
}

type service struct {
	repo     Repository
	userRepo user.Repository
}

func NewService(repo Repository, userRepo user.Repository) Service {
	return &service{
		repo:     repo,
		userRepo: userRepo,
	}
}

func (s *service) Create(ctx context.Context, actor auth.Actor, req OfferingRequest) (*Offering, error) {
	if actor.Role != auth.RoleHost {
		return nil, apperror.Authorization("only hosts can create offerings")
	}

	host, err := s.userRepo.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !host.HostApproved {
		return nil, ErrHostNotApproved
	}

	o := &Offering{HostID: actor.UserID, IsActive: true, HostApproved: true}
	if err := apply(o, req); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}

	logger.Info("offering created", "offering_id", o.ID, "host_id", o.HostID)
	return o, nil
}

// Update replaces the editable fields of an offering. Any host edit sends the
// offering back to pending approval.
func (s *service) Update(ctx context.Context, actor auth.Actor, id int, req OfferingRequest) (*Offering, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.HostID != actor.UserID && !actor.IsAdmin() {
		return nil, ErrNotOwner
	}

	if err := apply(o, req); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		o.IsApproved = false
	}

	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}

	return o, nil
}

func (s *service) Deactivate(ctx context.Context, actor auth.Actor, id int) error {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if o.HostID != actor.UserID && !actor.IsAdmin() {
		return ErrNotOwner
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}

	logger.Info("offering deactivated", "offering_id", id, "actor_id", actor.UserID)
	return nil
}

func (s *service) Approve(ctx context.Context, actor auth.Actor, id int, note string) (*Offering, error) {
	return s.setApproval(ctx, actor, id, true, note)
}

func (s *service) Reject(ctx context.Context, actor auth.Actor, id int, note string) (*Offering, error) {
	return s.setApproval(ctx, actor, id, false, note)
}

func (s *service) setApproval(ctx context.Context, actor auth.Actor, id int, approved bool, note string) (*Offering, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Authorization("only admins can review offerings")
	}

	if err := s.repo.SetApproval(ctx, id, approved, note); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

// Get returns a publicly visible offering. Offerings that cannot take
// bookings are reported as missing.
func (s *service) Get(ctx context.Context, id int) (*Offering, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Bookable() {
		return nil, ErrOfferingNotFound
	}
	return o, nil
}

func (s *service) ListPublic(ctx context.Context, filter ListFilter) ([]Offering, error) {
	return s.repo.ListPublic(ctx, filter)
}

func (s *service) ListByHost(ctx context.Context, actor auth.Actor) ([]Offering, error) {
	return s.repo.ListByHost(ctx, actor.UserID)
}

func apply(o *Offering, req OfferingRequest) error {
	minGuests := req.MinGuests
	if minGuests == 0 {
		minGuests = 1
	}
	if minGuests > req.MaxGuests {
		return apperror.Validation(ReasonInvalidGuestRange,
			fmt.Sprintf("min guests %d exceeds max guests %d", minGuests, req.MaxGuests))
	}
	if err := req.Availability.Validate(); err != nil {
		return err
	}

	o.Title = req.Title
	o.Description = req.Description
	o.Category = req.Category
	o.Price = req.Price
	o.Duration = req.Duration
	o.MaxGuests = req.MaxGuests
	o.MinGuests = minGuests
	o.Images = NormalizeMainImage(req.Images)
	o.Availability = req.Availability
	return nil
}
