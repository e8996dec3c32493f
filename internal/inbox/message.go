package inbox

// EmailAddress is a display name plus address pair.
type EmailAddress struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Sender wraps the sender's address the way mail providers report it.
type Sender struct {
	EmailAddress EmailAddress `json:"emailAddress"`
}

// RawMessage is an inbox message as delivered by a mail fetcher.
type RawMessage struct {
	ID               string `json:"id" validate:"required"`
	Sender           Sender `json:"sender"`
	Subject          string `json:"subject"`
	BodyPreview      string `json:"bodyPreview"`
	ReceivedDateTime string `json:"receivedDateTime"`
}

// ClassifiedMessage is a RawMessage with its inferred category.
// Only Classify creates these.
type ClassifiedMessage struct {
	ID               string   `json:"id"`
	Category         Category `json:"category"`
	Confidence       float64  `json:"confidence"`
	ReceivedDateTime string   `json:"receivedDateTime"`
	Subject          string   `json:"subject"`
	BodyPreview      string   `json:"bodyPreview"`
	SenderName       string   `json:"senderName"`
	SenderAddress    string   `json:"senderAddress"`
}
