package chessdto

type PendingPromotion struct {
	From    string   `json:"from"`
	To      string   `json:"to"`
	Choices []string `json:"choices"`
}
