package detlite

import (
	"fmt"

	"github.com/edaniels/golog"
	"go.uber.org/multierr"
)

// iouThreshold used when merging overlapping detections of the same class
const defaultIOUThreshold = 0.6

// ManagedDetector couples a detector with its labels, thresholds and mask
// from config, producing filtered detections instead of raw tensor views.
type ManagedDetector struct {
	config   DetectorConfig
	format   ModelFormat
	labels   Labels
	detector *Detector
}

// Config returns the defining config of the detector.
func (m *ManagedDetector) Config() DetectorConfig {
	return m.config
}

// InputSize returns the detect buffer size in bytes.
func (m *ManagedDetector) InputSize() int {
	return m.detector.InputSize()
}

// Detect runs inference on buf and returns the parsed, thresholded, masked
// and de-duplicated detections.
func (m *ManagedDetector) Detect(buf []byte) ([]Detection, error) {

	outputs, err := m.detector.Detect(buf)

	if err != nil {
		return nil, err
	}

	if m.format == FormatNolo {
		// suppression happens inside the decode, per class
		detections, err := ParseNoloDetections(outputs)

		if err != nil {
			return nil, fmt.Errorf("parse output tensor: %w", err)
		}

		return FilterDetections(detections, m.labels,
			m.config.Thresholds, m.config.Mask), nil
	}

	detections, err := ParseDetections(outputs)

	if err != nil {
		return nil, fmt.Errorf("parse output tensors: %w", err)
	}

	detections = FilterDetections(detections, m.labels,
		m.config.Thresholds, m.config.Mask)

	return NonMaxSuppression(detections, defaultIOUThreshold), nil
}

// Close releases the underlying detector.
func (m *ManagedDetector) Close() error {
	return m.detector.Close()
}

// Manager owns the detectors built from a config file.
type Manager struct {
	detectors map[DetectorName]*ManagedDetector
}

// NewManager builds a detector for every enabled config entry.  On any
// failure the detectors created so far are released.
func NewManager(rt Runtime, factory DelegateFactory,
	configs map[DetectorName]DetectorConfig, logger golog.Logger) (*Manager, error) {

	m := &Manager{
		detectors: make(map[DetectorName]*ManagedDetector, len(configs)),
	}

	for name, config := range configs {
		md, err := newManagedDetector(rt, factory, config, logger)

		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("create detector %s: %w", name, err)
		}

		m.detectors[name] = md
	}

	return m, nil
}

func newManagedDetector(rt Runtime, factory DelegateFactory,
	config DetectorConfig, logger golog.Logger) (*ManagedDetector, error) {

	format, err := ParseModelFormat(config.Format)

	if err != nil {
		return nil, err
	}

	labels, err := LoadLabels(config.LabelMap)

	if err != nil {
		return nil, fmt.Errorf("get label map: %w", err)
	}

	device, err := config.AcceleratorDevice()

	if err != nil {
		return nil, err
	}

	detector, err := NewDetector(rt, config.Model, device, factory, Params{
		Threads:  config.Threads,
		Contract: format.Contract(),
		Logger:   logger,
	})

	if err != nil {
		return nil, err
	}

	return &ManagedDetector{
		config:   config,
		format:   format,
		labels:   labels,
		detector: detector,
	}, nil
}

// Detector returns the named detector, nil when it does not exist or is
// disabled.
func (m *Manager) Detector(name DetectorName) *ManagedDetector {
	return m.detectors[name]
}

// Names returns the names of all managed detectors.
func (m *Manager) Names() []DetectorName {

	names := make([]DetectorName, 0, len(m.detectors))

	for name := range m.detectors {
		names = append(names, name)
	}

	return names
}

// Close releases every managed detector.
func (m *Manager) Close() error {

	var err error

	for _, md := range m.detectors {
		err = multierr.Combine(err, md.Close())
	}

	return err
}
