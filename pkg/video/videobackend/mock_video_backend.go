package videobackend

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"github.com/tauraamui/framerelay/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

const (
	mockScheme = "mock"
	mockFPS    = 30

	unboundedMockStream = -1
)

// mockVideoBackend renders a synthetic test pattern instead of decoding a
// file. Addresses take the form mock://<frame count>, a bare mock:// never
// reaches the end of its stream.
type mockVideoBackend struct{}

func (b *mockVideoBackend) Connect(cancel context.Context, addr string) (Connection, error) {
	select {
	case <-cancel.Done():
		return nil, xerror.New("connection cancelled")
	default:
	}

	limit, err := parseMockAddress(addr)
	if err != nil {
		return nil, err
	}
	return &mockVideoConnection{frameLimit: limit, isOpen: true}, nil
}

func (b *mockVideoBackend) NewFrame() videoframe.Frame {
	return &openCVFrame{mat: gocv.NewMat()}
}

func parseMockAddress(addr string) (int, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return 0, xerror.Errorf("unable to open mock video stream [%s]: %w", addr, err)
	}
	if u.Scheme != mockScheme {
		return 0, xerror.Errorf("unable to open mock video stream [%s]: scheme must be %s", addr, mockScheme)
	}
	if len(u.Host) == 0 {
		return unboundedMockStream, nil
	}
	limit, err := strconv.Atoi(u.Host)
	if err != nil || limit < 0 {
		return 0, xerror.Errorf("unable to open mock video stream [%s]: invalid frame count", addr)
	}
	return limit, nil
}

type mockVideoConnection struct {
	uuid                    string
	mu                      sync.Mutex
	isOpen                  bool
	frameLimit              int
	framesRead              int
	renderedBaseFrameCanvas bool
	baseFrameCanvas         image.Image
}

func (mvc *mockVideoConnection) UUID() string {
	if len(mvc.uuid) == 0 {
		mvc.uuid = uuid.NewString()
	}
	return mvc.uuid
}

func (mvc *mockVideoConnection) Read(frame videoframe.Frame) error {
	frameMatRef, ok := frame.DataRef().(*gocv.Mat)
	if !ok {
		return xerror.New("must pass OpenCV frame to MockVideo connection read")
	}

	mvc.mu.Lock()
	defer mvc.mu.Unlock()

	if !mvc.isOpen {
		return ErrEndOfStream
	}

	if mvc.frameLimit != unboundedMockStream && mvc.framesRead >= mvc.frameLimit {
		return ErrEndOfStream
	}

	if !mvc.renderedBaseFrameCanvas {
		mvc.baseFrameCanvas = renderBaseFrameCanvas()
		mvc.renderedBaseFrameCanvas = true
	}

	img, err := drawTextLayerOntoBaseFrameClone(mvc.baseFrameCanvas, mvc.framesRead)
	if err != nil {
		return err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return xerror.Errorf("unable to convert Go image into OpenCV mat: %w", err)
	}
	defer mat.Close()

	mat.CopyTo(frameMatRef)
	mvc.framesRead++

	return nil
}

func (mvc *mockVideoConnection) IsOpen() bool {
	mvc.mu.Lock()
	defer mvc.mu.Unlock()
	return mvc.isOpen
}

func (mvc *mockVideoConnection) FPS() float64 { return mockFPS }

func (mvc *mockVideoConnection) Close() error {
	mvc.mu.Lock()
	defer mvc.mu.Unlock()
	mvc.isOpen = false
	mvc.renderedBaseFrameCanvas = false
	mvc.baseFrameCanvas = nil
	return nil
}

func drawTextLayerOntoBaseFrameClone(base image.Image, index int) (image.Image, error) {
	baseClone := cloneImage(base)
	err := drawText(baseClone, 5, 50, "FRAMERELAY_TEST")
	if err != nil {
		return nil, xerror.Errorf("unable to draw text onto in-mem image for test pattern: %w", err)
	}

	err = drawText(baseClone, 5, 180, fmt.Sprintf("FRAME %d", index))
	if err != nil {
		return nil, xerror.Errorf("unable to draw text onto in-mem image for test pattern: %w", err)
	}
	err = drawText(baseClone, 5, 310, time.Now().Format("15:04:05.000"))
	if err != nil {
		return nil, xerror.Errorf("unable to draw text onto in-mem image for test pattern: %w", err)
	}
	return baseClone, nil
}

func renderBaseFrameCanvas() image.Image {
	var w, h int = 600, 400
	var hw, hh float64 = float64(w / 2), float64(h / 2)
	r := 200.0
	θ := 2 * math.Pi / 3
	cr := &circle{hw - r*math.Sin(0), hh - r*math.Cos(0), 300}
	cg := &circle{hw - r*math.Sin(θ), hh - r*math.Cos(θ), 300}
	cb := &circle{hw - r*math.Sin(-θ), hh - r*math.Cos(-θ), 300}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			c := color.RGBA{
				cr.Brightness(float64(x), float64(y)),
				cg.Brightness(float64(x), float64(y)),
				cb.Brightness(float64(x), float64(y)),
				255,
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func cloneImage(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}

var (
	fontOnce sync.Once
	fontFace *truetype.Font
	fontErr  error
)

func loadFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		fontFace, fontErr = freetype.ParseFont(goregular.TTF)
	})
	return fontFace, fontErr
}

func drawText(canvas *image.RGBA, x, y int, text string) error {
	const fontSize = 64.0
	face, err := loadFont()
	if err != nil {
		return err
	}
	fontDrawer := &font.Drawer{
		Dst: canvas,
		Src: image.White,
		Face: truetype.NewFace(face, &truetype.Options{
			Size:    fontSize,
			Hinting: font.HintingFull,
		}),
	}
	textBounds, _ := fontDrawer.BoundString(text)
	textHeight := textBounds.Max.Y - textBounds.Min.Y
	yPosition := fixed.I((y)-textHeight.Ceil())/2 + fixed.I(textHeight.Ceil())
	fontDrawer.Dot = fixed.Point26_6{
		X: fixed.I(x),
		Y: yPosition,
	}
	fontDrawer.DrawString(text)
	return nil
}

type circle struct {
	X, Y, R float64
}

func (c *circle) Brightness(x, y float64) uint8 {
	var dx, dy float64 = c.X - x, c.Y - y
	d := math.Sqrt(dx*dx+dy*dy) / c.R
	if d > 1 {
		return 0
	}
	return 255
}
