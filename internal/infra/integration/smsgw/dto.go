package smsgw

type SendMessageInput struct {
	PhoneNumber string
	Message     string
}

type sendMessageRequest struct {
	To   string `json:"to"`
	From string `json:"from"`
	Body string `json:"body"`
}

type sendMessageResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
