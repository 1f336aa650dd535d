package engrave

import (
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/FocuswithJustin/staffline/core/errors"
)

// textMeasurer measures strings in the Go Regular face. Faces are cached
// per size and are not safe for concurrent use, hence the lock.
type textMeasurer struct {
	mu    sync.Mutex
	font  *opentype.Font
	faces map[float64]font.Face
}

func newTextMeasurer() (*textMeasurer, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, errors.NewParse("font", "goregular", err.Error())
	}
	return &textMeasurer{font: f, faces: make(map[float64]font.Face)}, nil
}

func (m *textMeasurer) face(size float64) (font.Face, error) {
	if f, ok := m.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(m.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	m.faces[size] = f
	return f, nil
}

func (m *textMeasurer) measure(text string, size float64) (float64, float64) {
	if text == "" || size <= 0 {
		return 0, 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	face, err := m.face(size)
	if err != nil {
		// Average Go Regular advance.
		return float64(len([]rune(text))) * size * 0.55, size * 1.2
	}
	return fixedToFloat(font.MeasureString(face, text)), fixedToFloat(face.Metrics().Height)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
