package chessdto

// MaterialScore sums the value of pieces each side has captured.
type MaterialScore struct {
	White int `json:"white"`
	Black int `json:"black"`
}

func (m MaterialScore) Diff() int { return m.White - m.Black }

// CapturedPieces lists lost pieces by owner as FEN letters.
type CapturedPieces struct {
	White []string `json:"white"`
	Black []string `json:"black"`
}

type Opening struct {
	Code  string `json:"code"`
	Title string `json:"title"`
}

// ViewState is the JSON form of one session snapshot.
type ViewState struct {
	SessionID  string            `json:"session_id"`
	State      string            `json:"state"`
	FEN        string            `json:"fen"`
	Turn       string            `json:"turn"`
	HumanColor string            `json:"human_color"`
	Selected   string            `json:"selected,omitempty"`
	Promotion  *PendingPromotion `json:"promotion,omitempty"`
	LastMove   string            `json:"last_move,omitempty"`
	MovesUCI   []string          `json:"moves_uci"`
	Plies      int               `json:"plies"`
	Material   MaterialScore     `json:"material"`
	Captured   CapturedPieces    `json:"captured"`
	Opening    *Opening          `json:"opening,omitempty"`
	Message    string            `json:"message,omitempty"`
	Over       bool              `json:"over"`
}
