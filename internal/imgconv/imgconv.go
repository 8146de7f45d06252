// Package imgconv converts between gocv Mats and the float32 plane
// types the restoration models operate on. OpenCV stores color images
// interleaved in BGR order; the models use planar RGB.
package imgconv

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"

	"benthic-restore/restore"
)

// MatToFrame converts a CV32FC3 BGR Mat with values in [0,1] into an
// RGB frame.
func MatToFrame(mat gocv.Mat) (restore.Frame, error) {
	if mat.Empty() {
		return restore.Frame{}, fmt.Errorf("input Mat is empty")
	}
	if mat.Type() != gocv.MatTypeCV32FC3 {
		return restore.Frame{}, fmt.Errorf("unsupported Mat type %v, want CV32FC3", mat.Type())
	}

	data, err := mat.DataPtrFloat32()
	if err != nil {
		return restore.Frame{}, fmt.Errorf("failed to access Mat data: %w", err)
	}

	frame := restore.NewFrame(mat.Rows(), mat.Cols())
	n := frame.Pixels()
	for i := 0; i < n; i++ {
		frame.Ch[0][i] = data[3*i+2]
		frame.Ch[1][i] = data[3*i+1]
		frame.Ch[2][i] = data[3*i]
	}
	return frame, nil
}

// MatToDepth converts a CV32FC1 Mat into a depth field, sharing no
// storage with the Mat.
func MatToDepth(mat gocv.Mat) (restore.DepthField, error) {
	if mat.Empty() {
		return restore.DepthField{}, fmt.Errorf("input Mat is empty")
	}
	if mat.Type() != gocv.MatTypeCV32F {
		return restore.DepthField{}, fmt.Errorf("unsupported Mat type %v, want CV32F", mat.Type())
	}

	data, err := mat.DataPtrFloat32()
	if err != nil {
		return restore.DepthField{}, fmt.Errorf("failed to access Mat data: %w", err)
	}

	depth := restore.NewDepthField(mat.Rows(), mat.Cols())
	copy(depth.Pix, data)
	return depth, nil
}

// FrameToMat8U converts an RGB frame to an 8-bit BGR Mat, clamping
// values to [0,1] first. The caller owns the returned Mat.
func FrameToMat8U(frame restore.Frame) (gocv.Mat, error) {
	n := frame.Pixels()
	if n == 0 {
		return gocv.NewMat(), fmt.Errorf("frame is empty")
	}
	buf := make([]byte, 3*n)
	for i := 0; i < n; i++ {
		buf[3*i] = quantize(frame.Ch[2][i])
		buf[3*i+1] = quantize(frame.Ch[1][i])
		buf[3*i+2] = quantize(frame.Ch[0][i])
	}
	mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, buf)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to build Mat: %w", err)
	}
	return mat, nil
}

func quantize(v float32) byte {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(math.Round(float64(v) * 255))
}
