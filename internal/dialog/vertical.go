package dialog

import (
	"github.com/nordicvoice/voicebooking/internal/extract"
	"github.com/nordicvoice/voicebooking/internal/session"
)

// Vertical describes one line of business. The slot order drives which
// question is asked next; keyword catalogs map utterances onto services.
type Vertical struct {
	Name     string
	Business string

	// SlotOrder is the collection order. The next prompt always targets the
	// first unfilled slot in this list.
	SlotOrder []string

	// RequiresVerification gates commits behind identity verification.
	RequiresVerification bool

	// UsesAvailability makes the engine offer provider slots for the chosen
	// date instead of accepting a free-form time.
	UsesAvailability bool

	// Catalog orders specific entries before generic ones so "klippning
	// kort" never falls through to a broader match.
	Catalog []extract.ServiceEntry

	DefaultSalonID int
}

// HairVertical is the salon line: no identity verification, bookings pick
// from provider availability.
func HairVertical(salonID int) *Vertical {
	return &Vertical{
		Name:     "hair",
		Business: "Salong Saxen",
		SlotOrder: []string{
			session.SlotName, session.SlotPhone, session.SlotEmail,
			session.SlotTreatment, session.SlotDate, session.SlotTime,
		},
		RequiresVerification: false,
		UsesAvailability:     true,
		Catalog: []extract.ServiceEntry{
			{ID: 301, Name: "Klippning kort hår", Keywords: []string{"kort hår", "kort"}},
			{ID: 298, Name: "Klippning rek. Långt och tjockt hår", Keywords: []string{"långt", "tjockt", "klippning", "klippa", "klipp"}},
			{ID: 315, Name: "Slingor", Keywords: []string{"slingor", "färg", "färga"}},
			{ID: 320, Name: "Barnklippning", Keywords: []string{"barnklippning", "barn"}},
		},
		DefaultSalonID: salonID,
	}
}

// DentalVertical is the clinic line: free-form date and time, commit gated
// behind BankID verification.
func DentalVertical(clinicID int) *Vertical {
	return &Vertical{
		Name:     "dental",
		Business: "Tandkliniken",
		SlotOrder: []string{
			session.SlotName, session.SlotPhone, session.SlotEmail,
			session.SlotTreatment, session.SlotDate, session.SlotTime,
		},
		RequiresVerification: true,
		UsesAvailability:     false,
		Catalog: []extract.ServiceEntry{
			{ID: 901, Name: "Akut tandvärk", Keywords: []string{"akut", "tandvärk", "ont i tanden"}},
			{ID: 902, Name: "Tandhygienist", Keywords: []string{"hygienist", "tandsten", "rengöring"}},
			{ID: 900, Name: "Undersökning", Keywords: []string{"undersökning", "kontroll", "besiktning"}},
		},
		DefaultSalonID: clinicID,
	}
}

// VerticalByName resolves a vertical, defaulting to hair.
func VerticalByName(name string, salonID int) *Vertical {
	switch name {
	case "dental":
		return DentalVertical(salonID)
	default:
		return HairVertical(salonID)
	}
}
