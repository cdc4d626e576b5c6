package tiffin

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

const CurrentCustomerSchemaVersion = 1

// CustomerType distinguishes plan subscribers from walk-in buyers.
type CustomerType string

const (
	CustomerMonthly CustomerType = "monthly"
	CustomerWalkIn  CustomerType = "walk_in"
)

// MealType is the customer's dietary preference.
type MealType string

const (
	MealVeg    MealType = "veg"
	MealNonVeg MealType = "non_veg"
	MealBoth   MealType = "both"
)

// Dish identifies a priced menu dish.
type Dish string

const (
	DishChapatiBhaji Dish = "chapati_bhaji"
	DishRicePlate    Dish = "rice_plate"
)

// Customer is a vendor's subscriber or walk-in buyer. Deletion is soft:
// Archive flags the customer inactive and stamps DeletedAt; Restore clears
// both; Purge removes the customer and all dependent rows for good.
type Customer struct {
	ID           uuid.UUID    `json:"id" bson:"_id"`
	Name         string       `json:"name" bson:"name"`
	Phone        string       `json:"phone" bson:"phone"`
	CustomerType CustomerType `json:"customer_type" bson:"customer_type"`
	MealType     MealType     `json:"meal_type" bson:"meal_type"`
	LunchDish    Dish         `json:"lunch_dish" bson:"lunch_dish"`
	DinnerDish   Dish         `json:"dinner_dish" bson:"dinner_dish"`
	Active       bool         `json:"active" bson:"active"`
	Notes        string       `json:"notes,omitempty" bson:"notes,omitempty"`

	DeletedAt *time.Time `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`

	SchemaVersion int       `json:"schema_version" bson:"schema_version"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

func (c *Customer) GetID() uuid.UUID {
	return c.ID
}

func (c *Customer) ResourceType() string {
	return "customers"
}

func (c *Customer) EnsureID() {
	if c.ID == uuid.Nil {
		c.ID = apt.GenerateNewID()
	}
}

func (c *Customer) BeforeCreate() {
	c.EnsureID()
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.Active = true
	if c.SchemaVersion == 0 {
		c.SchemaVersion = CurrentCustomerSchemaVersion
	}
	if c.CustomerType == "" {
		c.CustomerType = CustomerMonthly
	}
	if c.LunchDish == "" {
		c.LunchDish = DishChapatiBhaji
	}
	if c.DinnerDish == "" {
		c.DinnerDish = DishChapatiBhaji
	}
}

func (c *Customer) BeforeUpdate() {
	c.UpdatedAt = time.Now()
}

// Archive soft-deletes the customer.
func (c *Customer) Archive() {
	now := time.Now()
	c.Active = false
	c.DeletedAt = &now
	c.UpdatedAt = now
}

// Restore brings an archived customer back.
func (c *Customer) Restore() {
	c.Active = true
	c.DeletedAt = nil
	c.UpdatedAt = time.Now()
}

// Archived reports whether the customer sits in the recycle bin.
func (c *Customer) Archived() bool {
	return c.DeletedAt != nil
}
