package detlite

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	jsoniter "github.com/json-iterator/go"
)

// ModelFormat selects the tensor layout family of a model.
type ModelFormat int

const (
	// FormatODAPI is the four-head float32 detection output family.
	FormatODAPI ModelFormat = 0
	// FormatNolo is the quantized single-tensor int8 family.
	FormatNolo ModelFormat = 1
)

// ParseModelFormat converts "odapi" (or empty) and "nolo" in any case to a
// ModelFormat.
func ParseModelFormat(s string) (ModelFormat, error) {
	switch strings.ToLower(s) {
	case "", "odapi":
		return FormatODAPI, nil
	case "nolo":
		return FormatNolo, nil
	}
	return 0, fmt.Errorf("unknown model format '%s', expected 'odapi' or 'nolo'", s)
}

// Contract returns the shape contract models of this format must satisfy.
func (f ModelFormat) Contract() ShapeContract {
	if f == FormatNolo {
		return NoloShapeContract()
	}
	return DefaultShapeContract()
}

func (f ModelFormat) String() string {
	if f == FormatNolo {
		return "nolo"
	}
	return "odapi"
}

// DetectorName identifies a configured detector.  Names are non-empty and
// limited to alphanumerics, '-' and '_'.
type DetectorName string

// ParseDetectorName validates s as a detector name.
func ParseDetectorName(s string) (DetectorName, error) {

	if s == "" {
		return "", fmt.Errorf("detector name: empty string")
	}

	for _, c := range s {
		if unicode.IsSpace(c) {
			return "", fmt.Errorf("detector name: white space not allowed")
		}
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '-' && c != '_' {
			return "", fmt.Errorf("detector name: bad char: %c", c)
		}
	}

	return DetectorName(s), nil
}

// DetectorConfig is one named detector definition.
type DetectorConfig struct {
	Enable bool   `json:"enable"`
	Name   string `json:"name"`

	// input frame dimensions the model expects
	Width  int `json:"width"`
	Height int `json:"height"`

	// Model is the path of the compiled model file.
	Model string `json:"model"`
	// LabelMap is the path of the label file, one label per line.
	LabelMap string `json:"labelMap"`

	// Format is the model tensor layout, "odapi" (default) or "nolo".
	Format string `json:"format"`

	// Device is the accelerator device path, empty to run on the CPU.
	Device string `json:"device"`
	// DeviceType is "usb" or "pci", ignored when Device is empty.
	DeviceType string `json:"deviceType"`

	// Threads is the interpreter thread count, defaults to 1.
	Threads int `json:"threads"`

	// Thresholds maps label name to minimum score.  Labels without an
	// entry are dropped entirely.
	Thresholds map[string]float32 `json:"thresholds"`

	Mask Mask `json:"mask"`
}

// AcceleratorDevice resolves the configured device binding, nil when the
// detector runs on the CPU.
func (c DetectorConfig) AcceleratorDevice() (*Device, error) {

	if c.Device == "" {
		return nil, nil
	}

	typ, err := ParseDeviceType(c.DeviceType)

	if err != nil {
		return nil, err
	}

	return &Device{Type: typ, Path: c.Device}, nil
}

// LoadDetectorConfigs reads a JSON config file holding a list of detector
// definitions and returns the enabled ones keyed by name.  Duplicate names
// are an error.
func LoadDetectorConfigs(path string) (map[DetectorName]DetectorConfig, error) {

	raw, err := os.ReadFile(path)

	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return ParseDetectorConfigs(raw)
}

// ParseDetectorConfigs parses raw JSON detector definitions.
func ParseDetectorConfigs(raw []byte) (map[DetectorName]DetectorConfig, error) {

	var list []DetectorConfig

	if err := jsoniter.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("deserialize config: %w", err)
	}

	configs := make(map[DetectorName]DetectorConfig, len(list))
	seen := make(map[DetectorName]struct{}, len(list))

	for _, config := range list {
		name, err := ParseDetectorName(config.Name)

		if err != nil {
			return nil, err
		}

		if _, exists := seen[name]; exists {
			return nil, fmt.Errorf(
				"found multiple detectors with the name '%s'", name)
		}
		seen[name] = struct{}{}

		if !config.Enable {
			continue
		}

		configs[name] = config
	}

	return configs, nil
}
