package entity

type DocumentPosition struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// DocumentDetectionResult is the per-frame answer sent over the live preview
// websocket while the operator lines up the ID card.
type DocumentDetectionResult struct {
	Found    bool              `json:"found"`
	Message  string            `json:"message"`
	Position *DocumentPosition `json:"position,omitempty"`
	Error    string            `json:"error,omitempty"`
}
