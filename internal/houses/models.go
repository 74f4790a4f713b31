package houses

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// House is a rental listing. OwnerEmail ties it to exactly one owner identity.
type House struct {
	ID               bson.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Name             string        `json:"name" bson:"name"`
	Address          string        `json:"address" bson:"address"`
	City             string        `json:"city" bson:"city"`
	Bedrooms         int           `json:"bedrooms" bson:"bedrooms"`
	Bathrooms        int           `json:"bathrooms" bson:"bathrooms"`
	RoomSize         string        `json:"roomSize" bson:"roomSize"`
	Picture          string        `json:"picture" bson:"picture"`
	AvailabilityDate string        `json:"availabilityDate" bson:"availabilityDate"`
	RentPerMonth     int64         `json:"rentPerMonth" bson:"rentPerMonth"`
	Phone            string        `json:"phone" bson:"phone"`
	Description      string        `json:"description" bson:"description"`
	OwnerEmail       string        `json:"ownerEmail" bson:"ownerEmail"`
	CreatedAt        time.Time     `json:"createdAt" bson:"createdAt"`
}

// HouseUpdate carries the owner-editable fields. Nil fields are left untouched.
// OwnerEmail is deliberately absent: a listing never changes hands.
type HouseUpdate struct {
	Name             *string `json:"name,omitempty" bson:"name,omitempty"`
	Address          *string `json:"address,omitempty" bson:"address,omitempty"`
	City             *string `json:"city,omitempty" bson:"city,omitempty"`
	Bedrooms         *int    `json:"bedrooms,omitempty" bson:"bedrooms,omitempty" binding:"omitempty,min=0"`
	Bathrooms        *int    `json:"bathrooms,omitempty" bson:"bathrooms,omitempty" binding:"omitempty,min=0"`
	RoomSize         *string `json:"roomSize,omitempty" bson:"roomSize,omitempty"`
	Picture          *string `json:"picture,omitempty" bson:"picture,omitempty"`
	AvailabilityDate *string `json:"availabilityDate,omitempty" bson:"availabilityDate,omitempty"`
	RentPerMonth     *int64  `json:"rentPerMonth,omitempty" bson:"rentPerMonth,omitempty" binding:"omitempty,min=0"`
	Phone            *string `json:"phone,omitempty" bson:"phone,omitempty"`
	Description      *string `json:"description,omitempty" bson:"description,omitempty"`
}

func (u HouseUpdate) IsEmpty() bool {
	return u == HouseUpdate{}
}

// Booking reserves a house for one renter identity.
type Booking struct {
	ID          bson.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	HouseID     bson.ObjectID `json:"houseId" bson:"houseId"`
	HouseName   string        `json:"houseName" bson:"houseName"`
	RenterName  string        `json:"renterName" bson:"renterName"`
	RenterEmail string        `json:"renterEmail" bson:"renterEmail"`
	RenterPhone string        `json:"renterPhone" bson:"renterPhone"`
	CreatedAt   time.Time     `json:"createdAt" bson:"createdAt"`
}

// Listing is one page of the public catalogue.
type Listing struct {
	Houses []House `json:"houses"`
	Total  int64   `json:"total"`
	Page   int64   `json:"page"`
	Size   int64   `json:"size"`
}
