package deepface

import "errors"

var (
	ErrExtractorUnavailable = errors.New("deepface extractor unavailable")
	ErrInvalidResponse      = errors.New("invalid response from deepface extractor")
	ErrNoFaceInResponse     = errors.New("no face data in extractor response")
)
