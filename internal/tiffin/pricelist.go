package tiffin

import (
	"time"

	"github.com/tiffinclub/tiffin/internal/billing"
	"github.com/tiffinclub/tiffin/pkg/enums/mealslot"
)

// Default prices in whole rupees, used until the vendor edits the list.
const (
	DefaultLunchPrice  = 50
	DefaultDinnerPrice = 70
	DefaultGuestRate   = 40
)

// PriceListID keys the vendor's single price list document.
const PriceListID = "default"

// MealPrice is one priced (slot, dish) combination.
type MealPrice struct {
	Slot   string `json:"slot" bson:"slot"` // pkg/enums/mealslot code
	Dish   Dish   `json:"dish" bson:"dish"`
	Amount int    `json:"amount" bson:"amount"`
}

// PriceList is the vendor's menu price configuration: per-meal prices keyed
// by slot and dish, plus the flat per-guest-meal rate.
type PriceList struct {
	ID        string      `json:"id" bson:"_id"`
	Prices    []MealPrice `json:"prices" bson:"prices"`
	GuestRate int         `json:"guest_rate" bson:"guest_rate"`
	UpdatedAt time.Time   `json:"updated_at" bson:"updated_at"`
}

// DefaultPriceList returns the seed configuration.
func DefaultPriceList() *PriceList {
	return &PriceList{
		ID: PriceListID,
		Prices: []MealPrice{
			{Slot: mealslot.Slots.Lunch.Code(), Dish: DishChapatiBhaji, Amount: DefaultLunchPrice},
			{Slot: mealslot.Slots.Lunch.Code(), Dish: DishRicePlate, Amount: DefaultLunchPrice},
			{Slot: mealslot.Slots.Dinner.Code(), Dish: DishChapatiBhaji, Amount: DefaultDinnerPrice},
			{Slot: mealslot.Slots.Dinner.Code(), Dish: DishRicePlate, Amount: DefaultDinnerPrice},
		},
		GuestRate: DefaultGuestRate,
		UpdatedAt: time.Now(),
	}
}

// PriceFor resolves the price for a slot and dish, falling back to the slot
// default when the combination is not configured.
func (pl *PriceList) PriceFor(slot string, dish Dish) int {
	for _, p := range pl.Prices {
		if p.Slot == slot && p.Dish == dish {
			return p.Amount
		}
	}
	if slot == mealslot.Slots.Dinner.Code() {
		return DefaultDinnerPrice
	}
	return DefaultLunchPrice
}

// PricesFor resolves the billing menu prices for one customer's chosen
// dishes.
func (pl *PriceList) PricesFor(c *Customer) billing.MenuPrices {
	return billing.MenuPrices{
		LunchPrice:  pl.PriceFor(mealslot.Slots.Lunch.Code(), c.LunchDish),
		DinnerPrice: pl.PriceFor(mealslot.Slots.Dinner.Code(), c.DinnerDish),
	}
}

// EffectiveGuestRate returns the configured guest rate or the default when
// unset.
func (pl *PriceList) EffectiveGuestRate() int {
	if pl.GuestRate <= 0 {
		return DefaultGuestRate
	}
	return pl.GuestRate
}
