package offering

import "context"

type Repository interface {
	Create(ctx context.Context, o *Offering) error
	Update(ctx context.Context, o *Offering) error
	GetByID(ctx context.Context, id int) (*Offering, error)
	ListPublic(ctx context.Context, filter ListFilter) ([]Offering, error)
	ListByHost(ctx context.Context, hostID int) ([]Offering, error)
	SetApproval(ctx context.Context, id int, approved bool, note string) error
	Deactivate(ctx context.Context, id int) error
}
