package models

// ScoreSource names the signal that produced a result's score.
type ScoreSource string

const (
	ScoreSourceText  ScoreSource = "text"
	ScoreSourceImage ScoreSource = "image"
)

// SearchResult is one ranked hit for a query. Never persisted except in an
// export manifest.
type SearchResult struct {
	Filename string      `json:"filename"`
	Score    float64     `json:"score"`
	Source   ScoreSource `json:"score_source"`
}
