package model

import (
	"errors"
	"strings"
)

const (
	MaxAudioSizeBytes = 15 * 1024 * 1024 // voice notes stay short, 15MB is generous
	AudioFolder       = "audio"
	AudioCacheControl = "public, max-age=31536000" // 1 year

	MaxAvatarSizeBytes = 5 * 1024 * 1024
	AvatarWidth        = 200
	AvatarHeight       = 200
	AvatarFolder       = "avatars"
	AvatarExt          = ".jpg"
	AvatarCacheControl = "public, max-age=31536000"
)

// Supported image content types for avatar validation
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
)

var allowedImageTypes = map[string]struct{}{
	ContentTypeJPEG: {},
	ContentTypePNG:  {},
	ContentTypeGIF:  {},
	ContentTypeWebP: {},
}

// Audio content types accepted for voice notes, with the extension the
// stored object key gets.
var allowedAudioTypes = map[string]string{
	"audio/webm":  ".webm",
	"video/webm":  ".webm", // browsers often label MediaRecorder output this way
	"audio/mpeg":  ".mp3",
	"audio/mp3":   ".mp3",
	"audio/wav":   ".wav",
	"audio/wave":  ".wav",
	"audio/x-wav": ".wav",
	"audio/mp4":   ".m4a",
	"audio/x-m4a": ".m4a",
	"audio/ogg":   ".ogg",
}

// AudioNoteExtensions are the recognized voice note file extensions. The
// statistics and hasAudio filter only count notes ending in one of these.
var AudioNoteExtensions = []string{".webm", ".mp3", ".wav", ".m4a", ".ogg"}

// Error codes for HTTP responses
const (
	CodeFileTooLarge     = "FILE_TOO_LARGE"
	CodeInvalidImageType = "INVALID_IMAGE_TYPE"
	CodeInvalidAudioType = "INVALID_AUDIO_TYPE"
)

// Domain errors for media operations
var (
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidImageType = errors.New("invalid image type")
	ErrInvalidAudioType = errors.New("invalid audio type")
)

// UploadResult represents the uploaded object location.
// URL is the public-facing URL; Key is the object key inside the bucket.
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// AudioUploadResponse mirrors the historical upload payload of the journal.
type AudioUploadResponse struct {
	Success  bool   `json:"success"`
	AudioURL string `json:"audioUrl"`
	Message  string `json:"message"`
}

// IsAllowedImageType reports if the provided content type is supported.
func IsAllowedImageType(contentType string) bool {
	_, ok := allowedImageTypes[contentType]
	return ok
}

// AudioExtensionFor maps an audio content type to its stored extension.
// Returns "" when the type is not accepted.
func AudioExtensionFor(contentType string) string {
	return allowedAudioTypes[contentType]
}

// HasAudioNoteExtension reports whether url ends in a recognized audio
// extension (case-insensitive).
func HasAudioNoteExtension(url string) bool {
	lower := strings.ToLower(url)
	for _, ext := range AudioNoteExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
