package recorder

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/v0xg/formpilot/internal/driver/drivertest"
	"github.com/v0xg/formpilot/internal/locator"
	"github.com/v0xg/formpilot/internal/logging"
	"github.com/v0xg/formpilot/internal/resolve"
	"github.com/v0xg/formpilot/internal/runner"
)

func TestRecorder_CapturesRun(t *testing.T) {
	field := drivertest.El("input").ID("q").At(2, 2)
	button := drivertest.El("button").ID("go").At(6, 4)
	d := drivertest.New().AddPage("https://example.test", func() *drivertest.Node {
		return drivertest.El("body", field, button)
	})

	rec := New(d, Options{FrameDelay: 500 * time.Millisecond, Width: 16, Cursor: true, Tween: 2}, logging.Discard())
	r := runner.New(d, runner.Options{Logger: logging.Discard(), Observer: rec})

	steps := []runner.Step{
		{Action: runner.ActionInput, Locator: locator.ID("q"), Value: "rod"},
		{Action: runner.ActionClick, Locator: locator.ID("go")},
	}
	wait := resolve.WaitSpec{Timeout: 50 * time.Millisecond, PollInterval: 5 * time.Millisecond}
	require.NoError(t, r.Run(context.Background(), "https://example.test", steps, wait))

	// navigation, then per step: two movement frames and the screenshot
	assert.Equal(t, 7, rec.Frames())

	var buf bytes.Buffer
	require.NoError(t, rec.Encode(&buf))
	g, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	require.Len(t, g.Image, 7)
	assert.Equal(t, image.Rect(0, 0, 16, 12), g.Image[0].Bounds())
	assert.Equal(t, []int{50, 4, 4, 50, 4, 4, 50}, g.Delay)
}

func TestRecorder_WithoutCursorKeepsScreenshots(t *testing.T) {
	d := drivertest.New()
	rec := New(d, Options{Width: 8}, logging.Discard())

	for i := 0; i < 3; i++ {
		require.NoError(t, rec.Observe(context.Background(), runner.Event{Index: i - 1}))
	}
	assert.Equal(t, 3, rec.Frames())

	path := filepath.Join(t.TempDir(), "run.gif")
	size, err := rec.WriteFile(path)
	require.NoError(t, err)
	assert.Positive(t, size)
}

func TestRecorder_NoFrames(t *testing.T) {
	rec := New(drivertest.New(), Options{}, logging.Discard())
	assert.ErrorIs(t, rec.Encode(&bytes.Buffer{}), ErrNoFrames)
	_, err := rec.WriteFile(filepath.Join(t.TempDir(), "x.gif"))
	assert.ErrorIs(t, err, ErrNoFrames)
}

func TestRecorder_WriteFileRemovesPartialFile(t *testing.T) {
	rec := New(drivertest.New(), Options{}, logging.Discard())
	rec.frames = []frame{{img: image.NewRGBA(image.Rectangle{}), delay: 10}}

	path := filepath.Join(t.TempDir(), "run.gif")
	size, err := rec.WriteFile(path)
	assert.ErrorContains(t, err, "empty")
	assert.Zero(t, size)
	assert.NoFileExists(t, path)
}

type brokenCamera struct{}

func (brokenCamera) Screenshot(context.Context) ([]byte, error) {
	return nil, errors.New("target closed")
}

func TestRecorder_ScreenshotFailure(t *testing.T) {
	rec := New(brokenCamera{}, Options{}, logging.Discard())
	err := rec.Observe(context.Background(), runner.Event{Index: -1})
	assert.ErrorContains(t, err, "target closed")
	assert.Zero(t, rec.Frames())
}

func TestWithCursor_DrawsOnCopy(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 40, 40))
	out := withCursor(src, image.Pt(20, 20), true)

	assert.Equal(t, color.RGBA{}, src.RGBAAt(20, 20), "source is untouched")
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, out.RGBAAt(20, 20), "cursor tip outline")
	assert.Equal(t, color.RGBA{66, 133, 244, 255}, out.RGBAAt(35, 20), "ripple at radius")
}

func TestTween(t *testing.T) {
	a, b := image.Pt(0, 0), image.Pt(100, 50)
	assert.Equal(t, a, tween(a, b, 0))
	assert.Equal(t, image.Pt(50, 25), tween(a, b, 0.5))
	assert.Equal(t, b, tween(a, b, 1))
}

func TestGeneratePalette(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetRGBA(x, y, color.RGBA{200, 10, 10, 255})
		}
	}
	p := generatePalette(img)
	assert.Len(t, p, 256)
	assert.Equal(t, color.RGBA{200, 10, 10, 255}, p[3], "most frequent color follows the cursor colors")
}
