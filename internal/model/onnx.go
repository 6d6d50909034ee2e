package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/metallisense/meltguard/internal/composition"
)

// ScoringModel runs the exported anomaly-scoring graph through onnxruntime.
// The session and its tensors are reused across calls under a mutex; the
// model itself is read-only after load.
type ScoringModel struct {
	session     *ort.AdvancedSession
	calibration Calibration
	scaler      *ScalerParams

	input  *ort.Tensor[float32]
	output *ort.Tensor[float32]

	mu sync.Mutex
}

// LoadScoringModel initializes the ONNX session and bundle metadata for the
// anomaly scorer. The bundle directory must hold model.onnx and bundle.json
// with calibration statistics.
func LoadScoringModel(bundleDir string) (*ScoringModel, error) {
	meta, err := initRuntime(bundleDir)
	if err != nil {
		return nil, err
	}
	if meta.Calibration == nil {
		return nil, errors.New("scoring bundle missing calibration statistics")
	}
	if meta.Calibration.ScoreMax <= meta.Calibration.ScoreMin {
		return nil, fmt.Errorf("scoring bundle calibration degenerate: [%g, %g]",
			meta.Calibration.ScoreMin, meta.Calibration.ScoreMax)
	}

	n := len(composition.Elements)
	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(n)))
	if err != nil {
		return nil, fmt.Errorf("allocate input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		filepath.Join(bundleDir, modelFileName),
		[]string{"features"},
		[]string{"score"},
		[]ort.Value{input},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &ScoringModel{
		session:     session,
		calibration: *meta.Calibration,
		scaler:      meta.InputScaler,
		input:       input,
		output:      output,
	}, nil
}

// Score runs inference on one composition and returns the raw model score.
func (m *ScoringModel) Score(comp composition.Composition) (float64, error) {
	if m == nil || m.session == nil {
		return 0, ErrNotReady
	}
	features, err := m.scaler.Transform(comp.Vector())
	if err != nil {
		return 0, fmt.Errorf("scale features: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data := m.input.GetData()
	for i, v := range features {
		data[i] = float32(v)
	}
	if err := m.session.Run(); err != nil {
		return 0, fmt.Errorf("onnx run: %w", err)
	}
	return float64(m.output.GetData()[0]), nil
}

// Calibration returns the raw-score range recorded at training time.
func (m *ScoringModel) Calibration() Calibration {
	return m.calibration
}

// Ready reports whether a session is loaded.
func (m *ScoringModel) Ready() bool {
	return m != nil && m.session != nil
}

// RegressionModel runs the exported alloy-addition graph through onnxruntime.
type RegressionModel struct {
	session      *ort.AdvancedSession
	encodings    map[string]int
	inputScaler  *ScalerParams
	targetScaler *ScalerParams

	input  *ort.Tensor[float32]
	output *ort.Tensor[float32]

	mu sync.Mutex
}

// LoadRegressionModel initializes the ONNX session and bundle metadata for
// the addition regressor. The bundle must carry the grade encodings learned
// at training time.
func LoadRegressionModel(bundleDir string) (*RegressionModel, error) {
	meta, err := initRuntime(bundleDir)
	if err != nil {
		return nil, err
	}
	if len(meta.GradeEncodings) == 0 {
		return nil, errors.New("regression bundle missing grade encodings")
	}

	n := len(composition.Elements)
	// feature vector is [grade id, elements...]
	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(n+1)))
	if err != nil {
		return nil, fmt.Errorf("allocate input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(n)))
	if err != nil {
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		filepath.Join(bundleDir, modelFileName),
		[]string{"features"},
		[]string{"additions"},
		[]ort.Value{input},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &RegressionModel{
		session:      session,
		encodings:    meta.GradeEncodings,
		inputScaler:  meta.InputScaler,
		targetScaler: meta.TargetScaler,
		input:        input,
		output:       output,
	}, nil
}

// Predict returns raw per-element additions in canonical element order. The
// values come straight from the estimator and may be negative; clamping is
// the recommender's job.
func (m *RegressionModel) Predict(gradeID int, comp composition.Composition) ([]float64, error) {
	if m == nil || m.session == nil {
		return nil, ErrNotReady
	}
	raw := append([]float64{float64(gradeID)}, comp.Vector()...)
	features, err := m.inputScaler.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("scale features: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data := m.input.GetData()
	for i, v := range features {
		data[i] = float32(v)
	}
	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}

	scaled := make([]float64, len(m.output.GetData()))
	for i, v := range m.output.GetData() {
		scaled[i] = float64(v)
	}
	predictions, err := m.targetScaler.Inverse(scaled)
	if err != nil {
		return nil, fmt.Errorf("unscale predictions: %w", err)
	}
	return predictions, nil
}

// GradeID returns the stable integer id the model was trained with.
func (m *RegressionModel) GradeID(grade string) (int, bool) {
	id, ok := m.encodings[grade]
	return id, ok
}

// Ready reports whether a session is loaded.
func (m *RegressionModel) Ready() bool {
	return m != nil && m.session != nil
}

// initRuntime ensures the onnxruntime environment is up, verifies the model
// file exists, and loads the bundle metadata.
func initRuntime(bundleDir string) (BundleMeta, error) {
	if bundleDir == "" {
		return BundleMeta{}, errors.New("bundleDir is empty")
	}

	libPath := resolveSharedLibraryPath(bundleDir)
	if libPath == "" {
		return BundleMeta{}, errors.New("onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH or install the runtime")
	}
	ort.SetSharedLibraryPath(libPath)
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return BundleMeta{}, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	modelPath := filepath.Join(bundleDir, modelFileName)
	if _, err := os.Stat(modelPath); err != nil {
		return BundleMeta{}, fmt.Errorf("model file missing at %s: %w", modelPath, err)
	}
	return LoadBundleMeta(bundleDir)
}

// resolveSharedLibraryPath locates a platform-specific onnxruntime shared
// library. ONNXRUNTIME_SHARED_LIBRARY_PATH wins; otherwise common
// names/locations are probed.
func resolveSharedLibraryPath(bundleDir string) string {
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}

	names := []string{
		"libonnxruntime.dylib",
		"onnxruntime.dylib",
		"libonnxruntime.so",
		"onnxruntime.so",
		"onnxruntime.dll",
	}
	dirs := []string{
		bundleDir,
		filepath.Join(bundleDir, "lib"),
		".",
		"/opt/homebrew/lib",
		"/usr/local/lib",
		"/usr/lib",
	}

	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}
