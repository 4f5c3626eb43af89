package deepface

// RepresentRequest for POST /represent
type RepresentRequest struct {
	Img      string `json:"img"`      // base64 encoded image
	Model    string `json:"model"`    // "Facenet512", "VGG-Face", etc
	Detector string `json:"detector"` // "retinaface", "mtcnn", etc
}

// RepresentResponse from POST /represent
type RepresentResponse struct {
	Results []RepresentResult `json:"results"`
}

type RepresentResult struct {
	Embedding  []float64  `json:"embedding"`
	FacialArea FacialArea `json:"facial_area"`
}

type FacialArea struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// LandmarksRequest for POST /landmarks
type LandmarksRequest struct {
	Img      string     `json:"img"`
	Region   FacialArea `json:"region"`
	Detector string     `json:"detector"`
}

// LandmarksResponse from POST /landmarks. Eye contours are ordered point
// lists (x, y pairs) going around each eye; empty when the extractor could
// not locate the eyes.
type LandmarksResponse struct {
	LeftEye  [][2]float64 `json:"left_eye"`
	RightEye [][2]float64 `json:"right_eye"`
}
