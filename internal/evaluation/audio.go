package evaluation

import (
	"fmt"
	"mime"
	"strings"

	"github.com/englishassessment/backend/internal/models"
)

// MinAudioSize is the size below which an audio sample only raises a warning
const MinAudioSize = 1024

// AudioSample is one recorded answer
type AudioSample struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ValidateAudio checks an audio sample before it is sent to the evaluator.
//
// An empty sample is rejected with a validation error. Undersized samples and samples with
// a content type that does not look like audio only produce warnings.
func ValidateAudio(sample AudioSample) ([]string, error) {
	if len(sample.Data) == 0 {
		return nil, models.NewValidationError("audio file is empty")
	}

	var warnings []string
	if len(sample.Data) < MinAudioSize {
		warnings = append(warnings, fmt.Sprintf("audio file is very small (%d bytes), the recording may be incomplete", len(sample.Data)))
	}
	if !isAudioContentType(sample.ContentType) {
		warnings = append(warnings, fmt.Sprintf("content type %q does not look like audio", sample.ContentType))
	}
	return warnings, nil
}

func isAudioContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	mediaType = strings.ToLower(mediaType)
	// Browsers record into webm/ogg containers and may label them as video
	return strings.HasPrefix(mediaType, "audio/") || mediaType == "video/webm" || mediaType == "application/ogg"
}
