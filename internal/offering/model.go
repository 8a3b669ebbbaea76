package offering

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

type Category string

const (
	CategoryCoffeeCeremony  Category = "coffee_ceremony"
	CategoryTraditionalFood Category = "traditional_food"
	CategoryMusicDance      Category = "music_dance"
	CategoryCrafts          Category = "crafts"
	CategoryFestival        Category = "festival"
	CategoryVillageTour     Category = "village_tour"
	CategoryOther           Category = "other"
)

type PriceUnit string

const (
	UnitPerPerson PriceUnit = "per_person"
	UnitPerGroup  PriceUnit = "per_group"
	UnitPerFamily PriceUnit = "per_family"
)

type Price struct {
	AmountCents int64     `json:"amount_cents" binding:"gte=0"`
	Currency    string    `json:"currency" binding:"required,len=3"`
	Unit        PriceUnit `json:"unit" binding:"required,oneof=per_person per_group per_family"`
}

// Total returns the amount owed for guests at unitCents.
func (p Price) Total(unitCents int64, guests int) int64 {
	if p.Unit == UnitPerPerson {
		return unitCents * int64(guests)
	}
	return unitCents
}

type Duration struct {
	Hours int `json:"hours" binding:"gte=0,lte=24"`
	Days  int `json:"days" binding:"gte=0"`
}

type Image struct {
	URL     string `json:"url" binding:"required,url"`
	Caption string `json:"caption,omitempty"`
	IsMain  bool   `json:"is_main"`
}

type Images []Image

type Offering struct {
	ID           int          `db:"id" json:"id"`
	HostID       int          `db:"host_id" json:"host_id"`
	Title        string       `db:"title" json:"title"`
	Description  string       `db:"description" json:"description"`
	Category     Category     `db:"category" json:"category"`
	Price        Price        `db:"price" json:"price"`
	Duration     Duration     `db:"duration" json:"duration"`
	MaxGuests    int          `db:"max_guests" json:"max_guests"`
	MinGuests    int          `db:"min_guests" json:"min_guests"`
	Images       Images       `db:"images" json:"images"`
	Availability Availability `db:"availability" json:"availability"`
	IsActive     bool         `db:"is_active" json:"is_active"`
	IsApproved   bool         `db:"is_approved" json:"is_approved"`
	ApprovalNote string       `db:"approval_note" json:"approval_note,omitempty"`
	HostApproved bool         `db:"host_approved" json:"host_approved"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// Bookable reports whether the offering may take new bookings at all.
func (o *Offering) Bookable() bool {
	return o.IsActive && o.IsApproved && o.HostApproved
}

type OfferingRequest struct {
	Title        string       `json:"title" binding:"required,min=3,max=200"`
	Description  string       `json:"description" binding:"max=5000"`
	Category     Category     `json:"category" binding:"required,oneof=coffee_ceremony traditional_food music_dance crafts festival village_tour other"`
	Price        Price        `json:"price"`
	Duration     Duration     `json:"duration"`
	MaxGuests    int          `json:"max_guests" binding:"required,min=1"`
	MinGuests    int          `json:"min_guests" binding:"omitempty,min=1"`
	Images       Images       `json:"images" binding:"omitempty,dive"`
	Availability Availability `json:"availability"`
}

type ApprovalRequest struct {
	Note string `json:"note" binding:"max=1000"`
}

type ListFilter struct {
	Category Category
	Limit    int
	Offset   int
}

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return errors.New("unsupported jsonb source type")
	}
}

// jsonValue encodes v as text; lib/pq would send a []byte as bytea.
func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p Price) Value() (driver.Value, error) {
	return jsonValue(p)
}

func (p *Price) Scan(src interface{}) error {
	return scanJSON(src, p)
}

func (d Duration) Value() (driver.Value, error) {
	return jsonValue(d)
}

func (d *Duration) Scan(src interface{}) error {
	return scanJSON(src, d)
}

func (i Images) Value() (driver.Value, error) {
	return jsonValue(i)
}

func (i *Images) Scan(src interface{}) error {
	return scanJSON(src, i)
}

func (a Availability) Value() (driver.Value, error) {
	return jsonValue(a)
}

func (a *Availability) Scan(src interface{}) error {
	return scanJSON(src, a)
}
