package dialog

// TurnRequest is one recognized utterance from the caller.
type TurnRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	// IsFinal marks the end of an utterance. Interim results only keep the
	// session warm and never advance the dialog.
	IsFinal  bool   `json:"is_final"`
	Vertical string `json:"vertical,omitempty"`
	SalonID  int    `json:"salon_id,omitempty"`
	// CallerIP is forwarded to the identity provider on verification start.
	CallerIP string `json:"caller_ip,omitempty"`
}

// TurnReply is what the voice front-end reads back to the caller.
type TurnReply struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
	// EndCall tells the front-end the dialog has reached a terminal state.
	EndCall bool   `json:"end_call"`
	State   string `json:"state"`
	// BookingID is set once a booking was committed this call.
	BookingID int64 `json:"booking_id,omitempty"`
}
