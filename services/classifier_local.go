package services

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"calorietrack/apperrors"
	"calorietrack/logger"

	"github.com/nfnt/resize"
	"github.com/tphakala/go-tflite"
)

// LocalClassifier runs a float32 TensorFlow Lite image classifier in
// process. The model takes a [1, height, width, 3] RGB input scaled to
// [0,1] and produces one score per line of the labels file.
//
// It owns native resources: construct once, share, and Close on shutdown.
type LocalClassifier struct {
	mu          sync.Mutex
	model       *tflite.Model
	interpreter *tflite.Interpreter
	labels      []string
	width       int
	height      int
	fetch       imageFetcher
	log         *slog.Logger
}

func NewLocalClassifier(modelPath, labelsPath string, threads int, timeout time.Duration, log *slog.Logger) (*LocalClassifier, error) {
	log = logger.Module(log, "tflite")

	if modelPath == "" || labelsPath == "" {
		return nil, apperrors.Configuration("tflite.init", "TFLITE_MODEL_PATH and TFLITE_LABELS_PATH are required")
	}
	labels, err := readLabels(labelsPath)
	if err != nil {
		return nil, err
	}

	modelData, err := os.ReadFile(modelPath)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", modelPath, err)
	}
	model := tflite.NewModel(modelData)
	if model == nil {
		return nil, fmt.Errorf("cannot load TensorFlow Lite model %s", modelPath)
	}

	options := tflite.NewInterpreterOptions()
	options.SetNumThread(max(1, threads))
	options.SetErrorReporter(func(msg string, _ any) {
		log.Error("TFLite error", "message", msg)
	}, nil)

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		return nil, fmt.Errorf("cannot create interpreter")
	}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		return nil, fmt.Errorf("tensor allocation failed")
	}

	input := interpreter.GetInputTensor(0)
	if input == nil || input.NumDims() != 4 || input.Dim(3) != 3 {
		interpreter.Delete()
		return nil, fmt.Errorf("model input must be [1, height, width, 3]")
	}
	output := interpreter.GetOutputTensor(0)
	if output == nil || output.Dim(output.NumDims()-1) != len(labels) {
		interpreter.Delete()
		return nil, fmt.Errorf("model has a different number of classes than %s (%d labels)", labelsPath, len(labels))
	}

	c := &LocalClassifier{
		model:       model,
		interpreter: interpreter,
		labels:      labels,
		height:      input.Dim(1),
		width:       input.Dim(2),
		fetch:       newImageFetcher(timeout),
		log:         log,
	}
	log.Info("model loaded", "path", modelPath, "classes", len(labels), "input_width", c.width, "input_height", c.height)
	return c, nil
}

func readLabels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read labels %s: %w", path, err)
	}
	var labels []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if l := strings.TrimSpace(sc.Text()); l != "" {
			labels = append(labels, l)
		}
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("labels file %s is empty", path)
	}
	return labels, nil
}

func (l *LocalClassifier) Name() string { return "local" }

func (l *LocalClassifier) Identify(ctx context.Context, img ImageRef) ([]Prediction, error) {
	const op = "tflite.identify"

	data, _, err := l.fetch.load(ctx, img)
	if err != nil {
		return nil, err
	}
	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.InvalidInput(op, "image could not be decoded")
	}
	pixels := imageToTensor(decoded, l.width, l.height)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.interpreter == nil {
		return nil, apperrors.Configuration(op, "classifier is closed")
	}

	input := l.interpreter.GetInputTensor(0)
	copy(input.Float32s(), pixels)
	if status := l.interpreter.Invoke(); status != tflite.OK {
		return nil, apperrors.Internal(op, "Failed to identify food from image", fmt.Errorf("tensor invoke failed: %v", status))
	}

	output := l.interpreter.GetOutputTensor(0)
	scores := make([]float32, output.Dim(output.NumDims()-1))
	copy(scores, output.Float32s())

	return scoresToPredictions(scores, l.labels), nil
}

// imageToTensor resizes img to width x height and flattens it into
// row-major RGB floats in [0,1].
func imageToTensor(img image.Image, width, height int) []float32 {
	scaled := resize.Resize(uint(width), uint(height), img, resize.Bilinear)
	b := scaled.Bounds()
	out := make([]float32, 0, width*height*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := scaled.At(x, y).RGBA()
			out = append(out, float32(r)/65535, float32(g)/65535, float32(bl)/65535)
		}
	}
	return out
}

// scoresToPredictions pairs scores with labels and applies the same
// threshold and formatting as the hosted classifiers.
func scoresToPredictions(scores []float32, labels []string) []Prediction {
	out := make([]Prediction, 0, maxPredictions)
	for i, s := range scores {
		if i >= len(labels) || s < 0.1 {
			continue
		}
		out = append(out, Prediction{
			Label:      strings.ReplaceAll(labels[i], "_", " "),
			Confidence: round2(float64(min(s, 1))),
		})
	}
	return topPredictions(out)
}

// Close releases the interpreter. Identify fails afterwards.
func (l *LocalClassifier) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.interpreter != nil {
		l.interpreter.Delete()
		l.interpreter = nil
	}
	l.model = nil
	return nil
}
