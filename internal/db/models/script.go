package models

import "time"

// Script is one video's pipeline state. The video ID is the natural key;
// re-preparing a video replaces the transcript and clears the later stages.
type Script struct {
	ID         string    `json:"id"`
	VideoID    string    `json:"video_id"`
	SourceURL  string    `json:"source_url"`
	Title      string    `json:"title"`
	Channel    string    `json:"channel"`
	Duration   float64   `json:"duration"`
	Transcript string    `json:"transcript"`
	Formatted  string    `json:"formatted"`
	Metadata   string    `json:"metadata"`
	Model      string    `json:"model"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
