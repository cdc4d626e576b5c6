package paymode

import "strings"

type Mode struct {
	Name string
}

func (m Mode) Code() string {
	return m.Name
}

func (m Mode) Label() string {
	switch m.Name {
	case "upi":
		return "UPI"
	default:
		parts := strings.Split(m.Name, "_")
		for i := range parts {
			if len(parts[i]) > 0 {
				parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
			}
		}
		return strings.Join(parts, " ")
	}
}

type Enum struct {
	Cash         Mode
	UPI          Mode
	Card         Mode
	BankTransfer Mode
}

var Modes = Enum{
	Cash:         Mode{Name: "cash"},
	UPI:          Mode{Name: "upi"},
	Card:         Mode{Name: "card"},
	BankTransfer: Mode{Name: "bank_transfer"},
}

var All = []Mode{
	Modes.Cash,
	Modes.UPI,
	Modes.Card,
	Modes.BankTransfer,
}

// ByName returns the mode for a given name, or nil if not found
func ByName(name string) *Mode {
	for _, m := range All {
		if m.Name == name {
			return &m
		}
	}
	return nil
}
