package dialog

import (
	"fmt"
	"strings"

	"github.com/nordicvoice/voicebooking/internal/booking"
	"github.com/nordicvoice/voicebooking/internal/session"
)

// slotPrompts are the questions asked for each unfilled slot.
var slotPrompts = map[string]string{
	session.SlotName:      "Vad heter du?",
	session.SlotPhone:     "Vilket telefonnummer har du?",
	session.SlotEmail:     "Vilken mejladress har du?",
	session.SlotTreatment: "Vilken behandling vill du boka?",
	session.SlotDate:      "Vilken dag vill du komma?",
	session.SlotTime:      "Vilken tid passar dig?",
}

// reprompts are used when an answer could not be understood.
var reprompts = map[string]string{
	session.SlotName:      "Jag uppfattade inte ditt namn. Kan du säga det igen?",
	session.SlotPhone:     "Jag uppfattade inte numret. Kan du säga ditt telefonnummer siffra för siffra?",
	session.SlotEmail:     "Jag uppfattade inte mejladressen. Kan du bokstavera den?",
	session.SlotTreatment: "Jag uppfattade inte vilken behandling du vill ha. Kan du säga det igen?",
	session.SlotDate:      "Jag uppfattade inte dagen. Vilket datum vill du komma?",
	session.SlotTime:      "Jag uppfattade inte tiden. Vilken tid passar dig?",
}

func promptFor(slot string) string {
	if p, ok := slotPrompts[slot]; ok {
		return p
	}
	return "Kan du upprepa det?"
}

func repromptFor(slot string) string {
	if p, ok := reprompts[slot]; ok {
		return p
	}
	return "Förlåt, jag uppfattade inte. Kan du säga det igen?"
}

// confirmSummary reads the collected booking back before committing.
func confirmSummary(s *session.Session, service string) string {
	return fmt.Sprintf(
		"Då bokar jag %s för %s den %s klockan %s. Stämmer det?",
		service, s.Slot(session.SlotName), s.Slot(session.SlotDate), s.Slot(session.SlotTime))
}

// offerSlots reads availability options with ordinals so the caller can
// answer "den andra".
func offerSlots(slots []booking.Slot) string {
	if len(slots) == 0 {
		return "Tyvärr finns inga lediga tider den dagen. Vill du prova en annan dag?"
	}
	if len(slots) > 3 {
		slots = slots[:3]
	}
	parts := make([]string, 0, len(slots))
	for _, s := range slots {
		parts = append(parts, s.Start[11:16])
	}
	return fmt.Sprintf("Jag har lediga tider klockan %s. Vilken passar dig?",
		strings.Join(parts, ", "))
}

const (
	msgGreeting          = "Hej och välkommen! Vill du boka, avboka eller omboka en tid?"
	msgConfirmedFmt      = "Tack! Din bokning är klar. Ditt bokningsnummer är %d. En bekräftelse skickas till din mejl. Välkommen!"
	msgAlreadyBookedFmt  = "Din bokning är redan registrerad med bokningsnummer %d. Något annat jag kan hjälpa dig med?"
	msgDeclined          = "Okej, då bokar vi inte den tiden. Vad vill du ändra?"
	msgConfirmRepeat     = "Svara ja om du vill boka tiden, eller nej om du vill ändra något."
	msgAskCancelRef      = "Vilket bokningsnummer gäller det?"
	msgCancelledFmt      = "Din bokning %d är nu avbokad. Välkommen åter!"
	msgCancelNotFound    = "Jag hittar ingen bokning med det numret. Kan du kontrollera bokningsnumret?"
	msgAskRescheduleRef  = "Vilket bokningsnummer vill du omboka?"
	msgRescheduleNewTime = "Vilken dag och tid vill du byta till?"
	msgRescheduleFailFmt = "Din gamla tid är avbokad men den nya tiden kunde inte bokas. Ring oss så hjälper vi dig, bokningsnummer %d."
	msgAskPersonalNumber = "För att boka behöver du legitimera dig med BankID. Vilket personnummer har du?"
	msgVerifyStart       = "Tack. Öppna BankID-appen och följ instruktionerna, säg till när du är klar."
	msgVerifyPending     = "Legitimeringen är inte klar än. Öppna BankID-appen och legitimera dig, säg till när du är klar."
	msgVerifyDone        = "Tack, din identitet är bekräftad."
	msgVerifyFailed      = "Legitimeringen misslyckades. Vi kan tyvärr inte boka utan BankID. Vill du försöka igen?"
	msgTimeTakenFmt      = "Tyvärr är %s inte längre ledig. Vill du välja en annan tid?"
	msgCommitFailed      = "Något gick fel när jag skulle boka. Vill du att jag försöker igen?"
	msgGoodbye           = "Tack för ditt samtal. Ha en fin dag!"
)
