//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"fatigue-monitor/internal/domain/port"
)

// Codec перекодирует изображения через OpenCV.
type Codec struct{}

func NewCodec() *Codec {
	return &Codec{}
}

// EncodeJPEG декодирует изображение и кодирует его в JPEG с заданным качеством.
func (Codec) EncodeJPEG(data []byte, quality int) ([]byte, error) {
	if err := checkDimensions(data); err != nil {
		return nil, err
	}

	mat, err := decodeToMat(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	defer mat.Close()

	return encodeMat(mat, quality)
}

// decodeToMat превращает байты изображения в gocv.Mat.
func decodeToMat(data []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return mat, err
	}
	if mat.Empty() {
		mat.Close()
		return mat, errors.New("failed to decode image")
	}
	return mat, nil
}

func encodeMat(mat gocv.Mat, quality int) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	// Буфер принадлежит OpenCV, копируем перед Close.
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

var _ port.ImageCodec = (*Codec)(nil)
