package render

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// DefaultJPEGQuality is used for streamed frames.
const DefaultJPEGQuality = 80

// Target receives finished frames.
type Target interface {
	Present(img *image.RGBA) error
	Close() error
}

// EncodeJPEG encodes img as JPEG using OpenCV.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{int(gocv.IMWriteJpegQuality), quality})
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	// Copy out of native memory before the buffer is released.
	return append([]byte(nil), buf.GetBytes()...), nil
}

// Window shows frames in a native OpenCV window.
type Window struct {
	win *gocv.Window
}

// NewWindow opens a window with the given title.
func NewWindow(title string) *Window {
	return &Window{win: gocv.NewWindow(title)}
}

// Present shows img and pumps the window event loop.
func (w *Window) Present(img *image.RGBA) error {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()

	w.win.IMShow(mat)
	w.win.WaitKey(1)
	return nil
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}
