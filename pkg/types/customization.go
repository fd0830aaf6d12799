package types

import "time"

// FileRef points at an uploaded file in blob storage.
type FileRef struct {
	Filename   string `json:"filename"`
	StorageRef string `json:"storage_ref"`
}

// Customization is the opaque personalization payload the capture client
// produces. The pipeline never depends on how it was captured.
type Customization struct {
	Title         string     `json:"title,omitempty"`
	Message       string     `json:"message,omitempty"`
	UploadedAudio *FileRef   `json:"uploaded_audio,omitempty"`
	CapturedAt    *time.Time `json:"captured_at,omitempty"`
}

// IsZero reports whether no personalization was supplied.
func (c Customization) IsZero() bool {
	return c.Title == "" && c.Message == "" && c.UploadedAudio == nil
}
