package models

import "fmt"

// Classification is the privacy-processing outcome applied to a video by the
// processing pipeline before the catalog ever sees it.
type Classification string

const (
	ClassificationFaceBlurred       Classification = "FACE_BLURRED"
	ClassificationBackgroundBlurred Classification = "BACKGROUND_BLURRED"
	ClassificationNoBlur            Classification = "NO_BLUR"
)

// ParseClassification maps a raw token to its Classification. The match is
// exact: unknown values, empty strings and lowercase variants are rejected.
func ParseClassification(token string) (Classification, error) {
	switch Classification(token) {
	case ClassificationFaceBlurred, ClassificationBackgroundBlurred, ClassificationNoBlur:
		return Classification(token), nil
	}
	return "", fmt.Errorf("unknown classification %q", token)
}

// Valid reports whether c is one of the three recognized classifications.
func (c Classification) Valid() bool {
	_, err := ParseClassification(string(c))
	return err == nil
}
