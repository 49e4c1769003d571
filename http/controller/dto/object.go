package dto

type PresignResponseDTO struct {
	URL              string `json:"url"`
	Key              string `json:"key"`
	ExpiresInSeconds int64  `json:"expires_in_seconds"`
}
