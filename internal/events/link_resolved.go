package events

// LinkResolved is emitted when a live identifier is resolved. It carries
// the identifier fingerprint, never the identifier or its destination.
type LinkResolved struct {
	EventID     string `json:"eventId"`
	Fingerprint string `json:"fp"`
	OccurredAt  string `json:"occurredAt"`
}
