package notify

import "fmt"

// BookingDetails carries what the confirmation messages need.
type BookingDetails struct {
	BookingID int64
	Name      string
	Email     string
	Phone     string
	Service   string
	Date      string
	Time      string
	Business  string
}

// ConfirmationEmail builds the Swedish booking confirmation email.
func ConfirmationEmail(d BookingDetails) EmailMessage {
	body := fmt.Sprintf(
		"Hej %s!\n\nDin bokning är bekräftad.\n\nBokningsnummer: %d\nBehandling: %s\nDatum: %s\nTid: %s\n\nVill du avboka eller omboka, ring oss och uppge ditt bokningsnummer.\n\nVälkommen!\n%s",
		d.Name, d.BookingID, d.Service, d.Date, d.Time, d.Business)
	return EmailMessage{
		To:      d.Email,
		ToName:  d.Name,
		Subject: fmt.Sprintf("Bokningsbekräftelse %d", d.BookingID),
		Body:    body,
	}
}

// ConfirmationSMS builds the Swedish booking confirmation text message.
func ConfirmationSMS(d BookingDetails) string {
	return fmt.Sprintf("Din bokning %d är bekräftad: %s %s kl %s. Välkommen! /%s",
		d.BookingID, d.Service, d.Date, d.Time, d.Business)
}

// CancellationSMS builds the Swedish cancellation text message.
func CancellationSMS(d BookingDetails) string {
	return fmt.Sprintf("Din bokning %d är avbokad. Välkommen åter! /%s", d.BookingID, d.Business)
}
