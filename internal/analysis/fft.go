// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math/cmplx"
	"strings"
	"sync"

	"pipeline/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc defines the type for selecting an FFT window function.
type WindowFunc int

const (
	BartlettHann WindowFunc = iota
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

var windowNames = [...]string{
	BartlettHann:    "BartlettHann",
	Blackman:        "Blackman",
	BlackmanNuttall: "BlackmanNuttall",
	Hann:            "Hann",
	Hamming:         "Hamming",
	Lanczos:         "Lanczos",
	Nuttall:         "Nuttall",
}

func (w WindowFunc) String() string {
	if w < 0 || int(w) >= len(windowNames) {
		return fmt.Sprintf("WindowFunc(%d)", int(w))
	}
	return windowNames[w]
}

// Pre-allocated buffers for FFT calculations.
type fftWorkspace struct {
	history   []float64    // Most recent fftSize samples, oldest first.
	input     []float64    // Windowed copy of history.
	fftOutput []complex128 // FFT complex results.
	magnitude []float64    // Normalised magnitudes.
	window    []float64    // Pre-calculated window coefficients.
	mu        sync.RWMutex // Protects magnitude.
}

// FFTProcessor analyses a sliding window of the most recent fftSize samples.
// Blocks shorter than the FFT size shift into the history so every call
// produces a full-resolution spectrum.
type FFTProcessor struct {
	fftCalculator *fourier.FFT
	fftSize       int
	sampleRate    float64
	scale         float64
	workspace     fftWorkspace
}

var (
	_ AudioProcessor    = (*FFTProcessor)(nil)
	_ FFTResultProvider = (*FFTProcessor)(nil)
	_ ClosableProcessor = (*FFTProcessor)(nil)
)

// NewFFTProcessor creates a processor for fftSize points (a power of two)
// at sampleRate, windowed by windowType.
func NewFFTProcessor(fftSize int, sampleRate float64, windowType WindowFunc) (*FFTProcessor, error) {
	if fftSize < 2 || !bitint.IsPowerOfTwo(fftSize) {
		return nil, fmt.Errorf("fft size must be a power of 2, got %d", fftSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}

	windowCoeffs := make([]float64, fftSize)
	applyWindow(windowCoeffs, windowType)

	// Normalise so a full-scale sine peaks near 1 regardless of window.
	var sum float64
	for _, c := range windowCoeffs {
		sum += c
	}

	// FFT output size for real input is N/2 + 1 complex values.
	magnitudeSize := fftSize/2 + 1

	logger.Infof("initializing FFTProcessor (size: %d, sample rate: %.1f Hz, window: %v)", fftSize, sampleRate, windowType)

	return &FFTProcessor{
		fftCalculator: fourier.NewFFT(fftSize),
		fftSize:       fftSize,
		sampleRate:    sampleRate,
		scale:         2 / sum,
		workspace: fftWorkspace{
			history:   make([]float64, fftSize),
			input:     make([]float64, fftSize),
			fftOutput: make([]complex128, magnitudeSize),
			magnitude: make([]float64, magnitudeSize),
			window:    windowCoeffs,
		},
	}, nil
}

// Process shifts samples into the history, applies the window, performs the
// FFT and stores the magnitudes. It does not allocate.
func (p *FFTProcessor) Process(samples []float64) {
	ws := &p.workspace
	if n := len(samples); n >= p.fftSize {
		copy(ws.history, samples[n-p.fftSize:])
	} else {
		copy(ws.history, ws.history[n:])
		copy(ws.history[p.fftSize-n:], samples)
	}

	for i, s := range ws.history {
		ws.input[i] = s * ws.window[i]
	}
	p.fftCalculator.Coefficients(ws.fftOutput, ws.input)

	ws.mu.Lock()
	for i, c := range ws.fftOutput {
		ws.magnitude[i] = cmplx.Abs(c) * p.scale
	}
	ws.mu.Unlock()
}

// GetMagnitudes returns a copy of the latest magnitudes. It allocates; use
// GetMagnitudesInto on hot paths.
func (p *FFTProcessor) GetMagnitudes() []float64 {
	p.workspace.mu.RLock()
	defer p.workspace.mu.RUnlock()
	return append([]float64(nil), p.workspace.magnitude...)
}

// GetMagnitudesInto copies the latest magnitudes into dest, which must have
// length fftSize/2 + 1.
func (p *FFTProcessor) GetMagnitudesInto(dest []float64) error {
	p.workspace.mu.RLock()
	defer p.workspace.mu.RUnlock()

	if len(dest) != len(p.workspace.magnitude) {
		return fmt.Errorf("destination slice length %d does not match required length %d", len(dest), len(p.workspace.magnitude))
	}
	copy(dest, p.workspace.magnitude)
	return nil
}

// GetFrequencyForBin returns the center frequency (Hz) for a given FFT bin
// index, or 0 when the index is out of range.
func (p *FFTProcessor) GetFrequencyForBin(binIndex int) float64 {
	if binIndex < 0 || binIndex >= len(p.workspace.fftOutput) {
		return 0.0
	}
	return float64(binIndex) * (p.sampleRate / float64(p.fftSize))
}

func (p *FFTProcessor) GetFFTSize() int {
	return p.fftSize
}

func (p *FFTProcessor) GetSampleRate() float64 {
	return p.sampleRate
}

// Close clears the history. The processor holds no external resources.
func (p *FFTProcessor) Close() error {
	clear(p.workspace.history)
	logger.Debugf("FFTProcessor closed")
	return nil
}

// ParseWindowFunc converts a case-insensitive name to a WindowFunc. Unknown
// names return Hann and an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Hann, fmt.Errorf("unknown FFT window function name: '%s'", name)
	}
}

// applyWindow fills coeffs with the selected window, defaulting to Hann.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	// The gonum window funcs scale in place.
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		logger.Warnf("unknown window function type %d, defaulting to Hann", windowType)
		window.Hann(coeffs)
	}
}
