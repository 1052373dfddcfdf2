// Package preprocess prepares video frames for the detector input tensor.
package preprocess

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Resizer scales frames to the dimensions a detector's input tensor
// expects and hands back the raw uint8 RGB buffer to feed into Detect.
type Resizer struct {
	// destWidth is the width of the detector input
	destWidth int
	// destHeight is the height of the detector input
	destHeight int
	// tempMat is a Mat reused across frames during conversion
	tempMat gocv.Mat
}

// NewResizer returns a resizer producing buffers for a detector input of
// the given dimensions.
func NewResizer(destWidth, destHeight int) *Resizer {
	return &Resizer{
		destWidth:  destWidth,
		destHeight: destHeight,
		tempMat:    gocv.NewMat(),
	}
}

// Close frees memory allocated during the resize process
func (r *Resizer) Close() error {
	return r.tempMat.Close()
}

// Frame converts a BGR source Mat into a contiguous RGB uint8 buffer of
// destWidth*destHeight*3 bytes.  The returned slice is a copy, valid after
// the next call.
func (r *Resizer) Frame(src gocv.Mat) ([]byte, error) {

	if src.Empty() {
		return nil, fmt.Errorf("source mat is empty")
	}

	// scale to the input tensor dimensions
	gocv.Resize(src, &r.tempMat,
		image.Pt(r.destWidth, r.destHeight), 0, 0, gocv.InterpolationArea)

	// model inputs are RGB, OpenCV decodes to BGR
	gocv.CvtColor(r.tempMat, &r.tempMat, gocv.ColorBGRToRGB)

	if !r.tempMat.IsContinuous() {
		cont := r.tempMat.Clone()
		_ = r.tempMat.Close()
		r.tempMat = cont
	}

	data, err := r.tempMat.DataPtrUint8()

	if err != nil {
		return nil, fmt.Errorf("error getting data pointer to Mat: %w", err)
	}

	// copy out of the Mat's backing store
	buf := make([]byte, len(data))
	copy(buf, data)

	return buf, nil
}

// ReadFrame loads an image file and converts it into a detector input
// buffer.
func (r *Resizer) ReadFrame(file string) ([]byte, error) {

	img := gocv.IMRead(file, gocv.IMReadColor)

	if img.Empty() {
		return nil, fmt.Errorf("error reading image from: %s", file)
	}

	defer img.Close()

	return r.Frame(img)
}
