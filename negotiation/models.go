package negotiation

import "time"

// Status is the state of a bargaining thread. OPEN is the only non-terminal state.
type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
)

// Terminal reports whether no further messages are accepted in this state.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Negotiation is a single thread between one buyer and the producer of one offer.
// AgreedPrice is only ever set once the thread is ACCEPTED.
type Negotiation struct {
	ID          string
	OfferID     string
	BuyerID     string
	ProducerID  string
	Status      Status
	AgreedPrice *float64
	CreatedAt   time.Time
	Messages    []Message
}

// HasParticipant reports whether userID is the buyer or the producer of the thread.
func (n Negotiation) HasParticipant(userID string) bool {
	return userID == n.BuyerID || userID == n.ProducerID
}

// Message is an append-only entry in a thread's log.
type Message struct {
	ID            string
	NegotiationID string
	Seq           int64
	SenderID      string
	ProposedPrice *float64
	Note          *string
	StatusUpdate  *Status
	CreatedAt     time.Time
}

type StartParams struct {
	OfferID       string
	ProposedPrice *float64
	Note          *string
}

// PostParams is a counter-offer when StatusUpdate is nil, otherwise a status
// change requested by the producer.
type PostParams struct {
	ProposedPrice *float64
	Note          *string
	StatusUpdate  *Status
}
