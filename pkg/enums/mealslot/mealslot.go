package mealslot

import "strings"

type Slot struct {
	Name string
}

func (s Slot) Code() string {
	return s.Name
}

func (s Slot) Label() string {
	if s.Name == "" {
		return ""
	}
	return strings.ToUpper(s.Name[:1]) + s.Name[1:]
}

type Enum struct {
	Lunch  Slot
	Dinner Slot
}

var Slots = Enum{
	Lunch:  Slot{Name: "lunch"},
	Dinner: Slot{Name: "dinner"},
}

var All = []Slot{
	Slots.Lunch,
	Slots.Dinner,
}

// ByName returns the slot for a given name, or nil if not found
func ByName(name string) *Slot {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}
