package houses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"house-hunter/internal/store"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MaxActiveBookings caps how many houses one renter may hold at once.
const MaxActiveBookings = 2

const (
	DefaultPageSize = 10
	MaxPageSize     = 50

	// MaxPage keeps (page-1)*size far from int64 overflow.
	MaxPage = 100_000
)

var (
	ErrHouseNotFound   = errors.New("house not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrBookingLimit    = fmt.Errorf("a renter can book at most %d houses", MaxActiveBookings)
	ErrAlreadyBooked   = errors.New("house already booked by this renter")
	ErrEmptyUpdate     = errors.New("no fields to update")
)

// Service is the pass-through layer between guarded handlers and the document store.
// Every method assumes ownership was already checked; it only scopes queries by email.
type Service struct {
	houses   store.Collection[House]
	bookings store.Collection[Booking]
	quota    store.Quota
	clock    func() time.Time
}

// NewService expects bookings to be unique on {renterEmail, houseId} and quota
// to count active bookings per renter email.
func NewService(houses store.Collection[House], bookings store.Collection[Booking], quota store.Quota) *Service {
	return &Service{houses: houses, bookings: bookings, quota: quota, clock: time.Now}
}

// List returns a page of every listing. page is 1-based.
func (s *Service) List(ctx context.Context, page, size int64) (Listing, error) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	list, err := s.houses.Find(ctx, store.Filter{}, store.Page{Skip: (page - 1) * size, Limit: size})
	if err != nil {
		return Listing{}, err
	}
	total, err := s.houses.Count(ctx, store.Filter{})
	if err != nil {
		return Listing{}, err
	}
	return Listing{Houses: list, Total: total, Page: page, Size: size}, nil
}

func (s *Service) Get(ctx context.Context, id string) (House, error) {
	f, err := store.ByID(id, nil)
	if err != nil {
		return House{}, ErrHouseNotFound
	}
	h, err := s.houses.FindOne(ctx, f)
	if errors.Is(err, store.ErrNotFound) {
		return House{}, ErrHouseNotFound
	}
	return h, err
}

func (s *Service) ListByOwner(ctx context.Context, ownerEmail string) ([]House, error) {
	return s.houses.Find(ctx, store.Filter{"ownerEmail": ownerEmail}, store.Page{})
}

func (s *Service) Create(ctx context.Context, h House) (House, error) {
	h.ID = bson.ObjectID{}
	h.CreatedAt = s.clock().UTC()
	id, err := s.houses.Insert(ctx, h)
	if err != nil {
		return House{}, err
	}
	if oid, err := store.ObjectID(id); err == nil {
		h.ID = oid
	}
	return h, nil
}

// UpdateOwned edits a listing only if ownerEmail owns it.
func (s *Service) UpdateOwned(ctx context.Context, id, ownerEmail string, u HouseUpdate) error {
	if u.IsEmpty() {
		return ErrEmptyUpdate
	}
	f, err := store.ByID(id, store.Filter{"ownerEmail": ownerEmail})
	if err != nil {
		return ErrHouseNotFound
	}
	if err := s.houses.Update(ctx, f, u); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrHouseNotFound
		}
		return err
	}
	return nil
}

// DeleteOwned removes a listing only if ownerEmail owns it.
func (s *Service) DeleteOwned(ctx context.Context, id, ownerEmail string) error {
	f, err := store.ByID(id, store.Filter{"ownerEmail": ownerEmail})
	if err != nil {
		return ErrHouseNotFound
	}
	if err := s.houses.Delete(ctx, f); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrHouseNotFound
		}
		return err
	}
	return nil
}

func (s *Service) ListBookings(ctx context.Context, renterEmail string) ([]Booking, error) {
	return s.bookings.Find(ctx, store.Filter{"renterEmail": renterEmail}, store.Page{})
}

// Book reserves houseID for the renter in b.
//
// Rules:
// - the house must exist
// - a renter holds at most MaxActiveBookings bookings
// - a renter cannot book the same house twice
//
// The cap is a quota slot taken before the insert and the duplicate rule is the
// unique index, so both hold under concurrent requests.
func (s *Service) Book(ctx context.Context, houseID string, b Booking) (Booking, error) {
	house, err := s.Get(ctx, houseID)
	if err != nil {
		return Booking{}, err
	}

	_, err = s.bookings.FindOne(ctx, store.Filter{"renterEmail": b.RenterEmail, "houseId": house.ID})
	if err == nil {
		return Booking{}, ErrAlreadyBooked
	}
	if !errors.Is(err, store.ErrNotFound) {
		return Booking{}, err
	}

	if err := s.quota.Acquire(ctx, b.RenterEmail, MaxActiveBookings); err != nil {
		if errors.Is(err, store.ErrQuotaExceeded) {
			return Booking{}, ErrBookingLimit
		}
		return Booking{}, err
	}

	b.ID = bson.ObjectID{}
	b.HouseID = house.ID
	b.HouseName = house.Name
	b.CreatedAt = s.clock().UTC()

	id, err := s.bookings.Insert(ctx, b)
	if err != nil {
		if rerr := s.quota.Release(ctx, b.RenterEmail); rerr != nil {
			return Booking{}, errors.Join(err, rerr)
		}
		if errors.Is(err, store.ErrDuplicate) {
			return Booking{}, ErrAlreadyBooked
		}
		return Booking{}, err
	}
	if oid, err := store.ObjectID(id); err == nil {
		b.ID = oid
	}
	return b, nil
}

// CancelBooking removes a booking only if renterEmail holds it.
func (s *Service) CancelBooking(ctx context.Context, id, renterEmail string) error {
	f, err := store.ByID(id, store.Filter{"renterEmail": renterEmail})
	if err != nil {
		return ErrBookingNotFound
	}
	if err := s.bookings.Delete(ctx, f); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrBookingNotFound
		}
		return err
	}
	return s.quota.Release(ctx, renterEmail)
}
