package domain

import (
	"fmt"
	"mime/multipart"
)

var (
	MessageSuccessIdentify  = "plant identified successfully"
	MessageSuccessTranslate = "plant information translated successfully"
	MessageSuccessTTS       = "audio generated successfully"

	MessageFailedIdentify  = "failed to identify plant"
	MessageFailedTranslate = "failed to translate plant information"
	MessageFailedTTS       = "failed to generate audio"

	ErrInvalidImageFormat   = fmt.Errorf("invalid image format: %w", ErrInvalidInput)
	ErrMissingImage         = fmt.Errorf("no image uploaded: %w", ErrInvalidInput)
	ErrClassificationFailed = fmt.Errorf("classification failed")
	ErrNarrationUnavailable = fmt.Errorf("narration unavailable")
)

type (
	IdentifyRequest struct {
		Image    *multipart.FileHeader `json:"-" form:"-" validate:"required"`
		Language string                `json:"language" form:"language" validate:"omitempty,max=10"`
	}

	IdentificationResult struct {
		ID         string    `json:"id"`
		PlantName  string    `json:"plantName"`
		Confidence float64   `json:"confidence"`
		Info       PlantInfo `json:"info"`
		Audio      string    `json:"tts"`
		ImageURL   string    `json:"imageUrl"`
		Language   string    `json:"language,omitempty"`
	}

	TranslateRequest struct {
		Content  PlantInfo `json:"content"`
		Language string    `json:"language" validate:"required,max=10"`
	}

	TTSRequest struct {
		Text     string     `json:"text"`
		Info     *PlantInfo `json:"info"`
		Language string     `json:"language" validate:"omitempty,max=10"`
	}

	TTSResponse struct {
		AudioBase64 string `json:"audioBase64"`
	}

	OriginalPlantInfoRequest struct {
		PlantName string `json:"plant_name" validate:"required"`
	}

	OriginalPlantInfoResponse struct {
		PlantName string    `json:"plantName"`
		Info      PlantInfo `json:"info"`
	}
)
