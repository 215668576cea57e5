package model

// Metadata describes a wrapped checkpoint. Every field is optional; the ones
// present are checked against the fixed category list and input geometry.
type Metadata struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
}

type ClassificationResponse struct {
	PredictedClass string             `json:"predicted_class"`
	Confidence     float64            `json:"confidence"`
	AllClasses     map[string]float64 `json:"all_classes"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

type ClassesResponse struct {
	Classes []string `json:"classes"`
}
