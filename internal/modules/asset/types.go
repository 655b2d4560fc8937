package asset

// HistoryItem is one previously uploaded video as presented to the UI.
type HistoryItem struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	VideoURL     string `json:"videoUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Date         string `json:"date"`
	Summary      string `json:"summary,omitempty"`
}

// uploadResponse mirrors the original upload contract.
type uploadResponse struct {
	Success    bool   `json:"success"`
	VideoURL   string `json:"videoUrl"`
	PublicID   string `json:"publicId"`
	IsExisting bool   `json:"isExisting"`
}
