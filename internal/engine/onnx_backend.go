package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"strings"

	"github.com/MeKo-Tech/golfocr/internal/extract"
	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"
)

// onnxBackend runs a CTC text-recognition model (PaddleOCR-style) over the
// whole cropped region and reports the decoded line as a single fragment
// spanning the crop. Region crops on a shot-summary screen hold one value
// each, so line-level recognition is sufficient.
//
// Not safe for concurrent Recognize calls; create one backend per worker.
type onnxBackend struct {
	session       *ort.DynamicAdvancedSession
	charset       []string
	height        int
	minConfidence float64
}

func newONNXBackend(cfg Config) (Backend, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("onnx backend requires engine.model_path")
	}
	if cfg.DictPath == "" {
		return nil, errors.New("onnx backend requires engine.dict_path")
	}

	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initializing onnxruntime: %w", err)
		}
	}

	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("reading model info from %s: %w", cfg.ModelPath, err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("model %s has no usable inputs/outputs", cfg.ModelPath)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("creating session options: %w", err)
	}
	defer func() { _ = opts.Destroy() }()
	if cfg.NumThreads > 0 {
		if err := opts.SetIntraOpNumThreads(cfg.NumThreads); err != nil {
			return nil, fmt.Errorf("setting thread count: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("creating recognition session: %w", err)
	}

	charset, err := loadCharset(cfg.DictPath)
	if err != nil {
		_ = session.Destroy()
		return nil, err
	}

	height := cfg.ImageHeight
	if height <= 0 {
		height = 48
	}

	return &onnxBackend{
		session:       session,
		charset:       charset,
		height:        height,
		minConfidence: cfg.MinConfidence,
	}, nil
}

func (b *onnxBackend) Close() error {
	if b.session != nil {
		return b.session.Destroy()
	}
	return nil
}

func (b *onnxBackend) Recognize(ctx context.Context, img image.Image) ([]extract.Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if img == nil {
		return nil, errors.New("input image is nil")
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, nil
	}

	data, w, h := b.preprocess(img)

	input, err := ort.NewTensor(ort.NewShape(1, 3, int64(h), int64(w)), data)
	if err != nil {
		return nil, fmt.Errorf("creating input tensor: %w", err)
	}
	defer func() { _ = input.Destroy() }()

	outputs := []ort.Value{nil}
	if err := b.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("recognition inference: %w", err)
	}
	defer func() {
		if outputs[0] != nil {
			_ = outputs[0].Destroy()
		}
	}()

	probs, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, errors.New("recognition model returned a non-float tensor")
	}

	text, conf := b.decode(probs.GetShape(), probs.GetData())
	text = cleanText(text)
	if strings.TrimSpace(text) == "" || conf < b.minConfidence {
		return nil, nil
	}

	// One fragment spanning the whole crop; its centroid is the crop center.
	frag := extract.Fragment{
		Quad: extract.QuadFromRect(
			0, 0,
			float64(bounds.Dx()), float64(bounds.Dy()),
		),
		Text:       text,
		Confidence: conf,
	}
	return []extract.Fragment{frag}, nil
}

// preprocess resizes the crop to the model height (preserving aspect ratio)
// and packs it as a normalized NCHW float tensor in [-1, 1].
func (b *onnxBackend) preprocess(img image.Image) ([]float32, int, int) {
	resized := imaging.Resize(img, 0, b.height, imaging.Linear)
	nrgba := imaging.Clone(resized)

	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()
	data := make([]float32, 3*w*h)

	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		for x := 0; x < w; x++ {
			r := float32(row[x*4])
			g := float32(row[x*4+1])
			bl := float32(row[x*4+2])
			idx := y*w + x
			data[idx] = r/127.5 - 1.0
			data[w*h+idx] = g/127.5 - 1.0
			data[2*w*h+idx] = bl/127.5 - 1.0
		}
	}

	return data, w, h
}

// decode greedily collapses the CTC output: per-timestep argmax, skipping
// blanks (class 0) and repeats, averaging the kept probabilities.
func (b *onnxBackend) decode(shape ort.Shape, data []float32) (string, float64) {
	if len(shape) != 3 {
		return "", 0
	}
	steps := int(shape[1])
	classes := int(shape[2])
	if steps <= 0 || classes <= 0 || len(data) < steps*classes {
		return "", 0
	}

	var sb strings.Builder
	var probSum float64
	var kept int
	prev := -1

	for t := 0; t < steps; t++ {
		row := data[t*classes : (t+1)*classes]
		idx, val := argmax(row)
		if idx == prev {
			continue
		}
		prev = idx
		if idx == 0 { // CTC blank
			continue
		}
		if idx-1 < len(b.charset) {
			sb.WriteString(b.charset[idx-1])
			probSum += float64(val)
			kept++
		}
	}

	if kept == 0 {
		return "", 0
	}
	conf := probSum / float64(kept)
	return sb.String(), clamp01(conf)
}

func argmax(v []float32) (int, float32) {
	if len(v) == 0 {
		return -1, 0
	}
	idx := 0
	maxVal := v[0]
	for i := 1; i < len(v); i++ {
		if v[i] > maxVal {
			maxVal = v[i]
			idx = i
		}
	}
	return idx, maxVal
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// loadCharset reads the recognition dictionary: one entry per line, indexed
// from CTC class 1 (class 0 is the blank).
func loadCharset(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dictionary %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var charset []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		charset = append(charset, strings.TrimRight(scanner.Text(), "\r\n"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading dictionary %s: %w", path, err)
	}
	if len(charset) == 0 {
		return nil, fmt.Errorf("dictionary %s is empty", path)
	}
	return charset, nil
}
