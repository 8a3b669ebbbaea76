package booking

import (
	"context"
	"errors"

	"huletfish/internal/apperror"
	"huletfish/internal/auth"
)

type capability int

const (
	capCreate capability = iota
	capView
	capRespond
	capCancel
	capComplete
	capListHost
	capAdminView
)

// authorize is the single place that decides who may do what with a
// booking. b is nil for operations that do not target one booking.
func authorize(c capability, actor auth.Actor, b *Booking) error {
	switch c {
	case capCreate:
		if actor.Role == auth.RoleTourist {
			return nil
		}
		return apperror.Authorization("only tourists can book experiences")

	case capView, capCancel:
		if actor.IsAdmin() || actor.UserID == b.TouristID || actor.UserID == b.HostID {
			return nil
		}
		return apperror.Authorization("not authorized to access this booking")

	case capRespond:
		if actor.Role == auth.RoleHost && actor.UserID == b.HostID {
			return nil
		}
		return apperror.Authorization("only the host of this booking can respond to it")

	case capListHost:
		if actor.Role == auth.RoleHost {
			return nil
		}
		return apperror.Authorization("only hosts can list hosted bookings")

	case capComplete, capAdminView:
		if actor.IsAdmin() {
			return nil
		}
		return apperror.Authorization("admin access required")
	}

	return apperror.Authorization("operation not permitted")
}

// loadFor fetches a booking on behalf of actor. A missing booking looks to a
// non-admin exactly like somebody else's.
func (s *service) loadFor(ctx context.Context, c capability, actor auth.Actor, bookingID string) (*Booking, error) {
	b, err := s.repo.GetByBookingID(ctx, bookingID)
	if errors.Is(err, apperror.ErrNotFound) && !actor.IsAdmin() {
		return nil, authorize(c, actor, &Booking{})
	}
	if err != nil {
		return nil, err
	}
	if err := authorize(c, actor, b); err != nil {
		return nil, err
	}
	return b, nil
}
