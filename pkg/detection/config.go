package detection

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Config holds OpenCV runtime configuration
type Config struct {
	FaceModel        string  `yaml:"face_model" json:"face_model"`             // YuNet ONNX model
	LandmarkModel    string  `yaml:"landmark_model" json:"landmark_model"`     // 68-point landmark ONNX model (optional)
	ExpressionModel  string  `yaml:"expression_model" json:"expression_model"` // FER+ ONNX model (optional)
	ConfidenceThresh float64 `yaml:"confidence" json:"confidence"`             // Minimum face score (default 0.5)
	InputWidth       int     `yaml:"input_width" json:"input_width"`           // Initial YuNet input width
	InputHeight      int     `yaml:"input_height" json:"input_height"`         // Initial YuNet input height
	LandmarkSize     int     `yaml:"landmark_size" json:"landmark_size"`       // Landmark net input edge
	ExpressionSize   int     `yaml:"expression_size" json:"expression_size"`   // Expression net input edge
}

// DefaultConfig returns production defaults
func DefaultConfig() Config {
	return Config{
		FaceModel:        "models/face_detection_yunet.onnx",
		LandmarkModel:    "models/face_landmarks_68.onnx",
		ExpressionModel:  "models/emotion_ferplus.onnx",
		ConfidenceThresh: 0.5,
		InputWidth:       320,
		InputHeight:      320,
		LandmarkSize:     112,
		ExpressionSize:   64,
	}
}

// optionalModel decides whether an optional model should be loaded. It
// returns the path to load, or "" when the model is unset or the file does
// not exist. Other stat failures (permissions, a directory) are errors.
func optionalModel(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("detection: model %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("detection: model %s is a directory", path)
	}
	return path, nil
}
