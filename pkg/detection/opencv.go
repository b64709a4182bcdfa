package detection

import (
	"context"
	"fmt"
	"image"
	"math"
	"os"
	"sync"

	"github.com/teslashibe/focus-booster/internal/log"
	"github.com/teslashibe/focus-booster/pkg/debug"
	"github.com/teslashibe/focus-booster/pkg/emotion"
	"github.com/teslashibe/focus-booster/pkg/geometry"
	"gocv.io/x/gocv"
)

// 68-point landmark indices of the eye contours.
const (
	leftEyeStart  = 36
	rightEyeStart = 42
	landmarkCount = 68
)

// ferPlusLabels is the output order of the FER+ expression network.
// Contempt has no counterpart and is folded into disgusted.
var ferPlusLabels = []emotion.Label{
	emotion.Neutral,
	emotion.Happy,
	emotion.Surprised,
	emotion.Sad,
	emotion.Angry,
	emotion.Disgusted,
	emotion.Fearful,
	emotion.Disgusted,
}

// OpenCVRuntime detects faces with OpenCV's FaceDetectorYN and, when the
// models are configured, eye landmarks and expressions with ONNX networks.
type OpenCVRuntime struct {
	config Config

	mu         sync.Mutex // Protects inference
	loaded     bool
	faces      gocv.FaceDetectorYN
	landmarks  *gocv.Net
	expression *gocv.Net
}

// NewOpenCV creates an unloaded runtime. Models are read in Load.
func NewOpenCV(cfg Config) *OpenCVRuntime {
	return &OpenCVRuntime{config: cfg}
}

// Load reads the configured models. The face model is required; the
// landmark and expression models are optional.
func (r *OpenCVRuntime) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := os.Stat(r.config.FaceModel); err != nil {
		return fmt.Errorf("%w: %s", ErrModelNotFound, r.config.FaceModel)
	}

	r.faces = gocv.NewFaceDetectorYNWithParams(
		r.config.FaceModel,
		"", // No config file needed for ONNX
		image.Pt(r.config.InputWidth, r.config.InputHeight),
		float32(r.config.ConfidenceThresh),
		0.3,  // NMS threshold
		5000, // Top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	var err error
	if r.landmarks, err = loadOptionalNet("landmarks", r.config.LandmarkModel); err != nil {
		r.faces.Close()
		return err
	}
	if r.expression, err = loadOptionalNet("expressions", r.config.ExpressionModel); err != nil {
		r.faces.Close()
		closeNet(r.landmarks)
		return err
	}

	r.loaded = true
	debug.Log("🧠 OpenCV runtime loaded (landmarks=%v, expressions=%v)\n",
		r.landmarks != nil, r.expression != nil)
	return nil
}

// loadOptionalNet reads an ONNX network. An empty path or a missing file
// disables it; the related result fields stay absent. A file that exists but
// does not parse is an error.
func loadOptionalNet(kind, path string) (*gocv.Net, error) {
	resolved, err := optionalModel(path)
	if err != nil {
		return nil, err
	}
	if resolved == "" {
		if path != "" {
			log.Component("detection").Warn("optional model not found, continuing without it",
				"model", kind, "path", path)
		}
		return nil, nil
	}
	path = resolved

	net := gocv.ReadNetFromONNX(path)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load model from %s", path)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)
	return &net, nil
}

func closeNet(n *gocv.Net) {
	if n != nil {
		n.Close()
	}
}

// Detect finds faces in a JPEG frame.
func (r *OpenCVRuntime) Detect(ctx context.Context, frame Frame) ([]Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		return nil, ErrNotReady
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := gocv.IMDecode(frame, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, ErrEmptyFrame
	}

	imgW := float64(img.Cols())
	imgH := float64(img.Rows())
	bounds := image.Rect(0, 0, img.Cols(), img.Rows())

	r.faces.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()
	r.faces.Detect(img, &faces)

	var results []Result
	for row := 0; row < faces.Rows(); row++ {
		// YuNet output: 0-3 box in pixels, 4-13 five landmarks, 14 score
		x := float64(faces.GetFloatAt(row, 0))
		y := float64(faces.GetFloatAt(row, 1))
		w := float64(faces.GetFloatAt(row, 2))
		h := float64(faces.GetFloatAt(row, 3))

		res := Result{
			Box: Box{
				X: x / imgW,
				Y: y / imgH,
				W: w / imgW,
				H: h / imgH,
			},
			Confidence: float64(faces.GetFloatAt(row, 14)),
		}

		rect := image.Rect(int(x), int(y), int(x+w), int(y+h)).Intersect(bounds)
		if !rect.Empty() {
			roi := img.Region(rect)
			res.LeftEye, res.RightEye = r.eyes(roi, rect)
			res.Expressions = r.expressions(roi)
			roi.Close()
		}

		results = append(results, res)
	}

	return results, nil
}

// eyes runs the landmark network on a face crop and returns both eye
// contours in frame pixel coordinates. Returns nils when unavailable.
func (r *OpenCVRuntime) eyes(face gocv.Mat, rect image.Rectangle) (left, right geometry.EyeContour) {
	if r.landmarks == nil {
		return nil, nil
	}

	size := image.Pt(r.config.LandmarkSize, r.config.LandmarkSize)
	blob := gocv.BlobFromImage(face, 1.0/255.0, size, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	r.landmarks.SetInput(blob, "")
	out := r.landmarks.Forward("")
	defer out.Close()

	data, err := out.DataPtrFloat32()
	if err != nil || len(data) < landmarkCount*2 {
		return nil, nil
	}

	// Landmarks are normalized to the crop.
	point := func(i int) geometry.Point {
		return geometry.Pt(
			float64(rect.Min.X)+float64(data[2*i])*float64(rect.Dx()),
			float64(rect.Min.Y)+float64(data[2*i+1])*float64(rect.Dy()),
		)
	}
	contour := func(start int) geometry.EyeContour {
		c := make(geometry.EyeContour, geometry.EyePoints)
		for i := range c {
			c[i] = point(start + i)
		}
		return c
	}
	return contour(leftEyeStart), contour(rightEyeStart)
}

// expressions runs the expression network on a face crop.
func (r *OpenCVRuntime) expressions(face gocv.Mat) emotion.Expressions {
	if r.expression == nil {
		return nil
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(face, &gray, gocv.ColorBGRToGray)

	size := image.Pt(r.config.ExpressionSize, r.config.ExpressionSize)
	blob := gocv.BlobFromImage(gray, 1.0, size, gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	r.expression.SetInput(blob, "")
	out := r.expression.Forward("")
	defer out.Close()

	logits, err := out.DataPtrFloat32()
	if err != nil || len(logits) < len(ferPlusLabels) {
		return nil
	}
	return softmaxExpressions(logits[:len(ferPlusLabels)])
}

// softmaxExpressions converts FER+ logits to label probabilities.
func softmaxExpressions(logits []float32) emotion.Expressions {
	maxLogit := logits[0]
	for _, v := range logits[1:] {
		if v > maxLogit {
			maxLogit = v
		}
	}

	exps := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		exps[i] = math.Exp(float64(v - maxLogit))
		sum += exps[i]
	}

	expr := make(emotion.Expressions, len(logits))
	for i, e := range exps {
		expr[ferPlusLabels[i]] += e / sum
	}
	return expr
}

// Close releases the detector resources
func (r *OpenCVRuntime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		return nil
	}
	r.faces.Close()
	closeNet(r.landmarks)
	closeNet(r.expression)
	r.loaded = false
	return nil
}
