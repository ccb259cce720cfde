package ui

import (
	"context"
	"fmt"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/hoppxi/ddc-brightness/internal/brightness"
	"github.com/hoppxi/ddc-brightness/pkg/ddc"
)

// Presets are the one-click values under the slider.
var Presets = []int{1, 10, 25, 50, 75, 100}

// Controller is what the panel drives.
type Controller interface {
	Request(percent int) int
	Refresh(ctx context.Context) (int, error)
	Range() (int, int)
}

// Panel is the slider, value label, preset row and status line shared by
// the tray popup and the standalone window. All methods must run on the
// fyne goroutine.
type Panel struct {
	ctrl Controller
	// step is the keyboard increment; dragging moves by whole percents.
	step int

	slider  *widget.Slider
	value   *widget.Label
	status  *widget.Label
	retry   *widget.Button
	presets []*widget.Button
	content fyne.CanvasObject

	// requested is the last value sent from the panel whose echo has not
	// come back yet; older echoes are ignored so the knob does not jump
	// back while dragging.
	requested  int
	requesting bool
}

func NewPanel(ctrl Controller, step int) *Panel {
	p := &Panel{ctrl: ctrl, step: max(step, 1)}

	lo, hi := ctrl.Range()
	p.slider = widget.NewSlider(float64(lo), float64(hi))
	p.slider.Step = 1
	p.slider.OnChanged = p.onSlider

	p.value = widget.NewLabel("--%")
	p.status = widget.NewLabel("")
	p.status.Wrapping = fyne.TextWrapWord
	p.retry = widget.NewButtonWithIcon("Retry", theme.ViewRefreshIcon(), p.RefreshAsync)
	p.retry.Hide()

	buttons := make([]fyne.CanvasObject, 0, len(Presets))
	for _, preset := range Presets {
		b := widget.NewButton(fmt.Sprintf("%d%%", preset), func() { p.onPreset(preset) })
		p.presets = append(p.presets, b)
		buttons = append(buttons, b)
	}

	title := widget.NewLabelWithStyle("☀ Brightness", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	p.content = container.NewVBox(
		title,
		widget.NewSeparator(),
		container.NewBorder(nil, nil, nil, p.value, p.slider),
		widget.NewSeparator(),
		container.NewGridWithColumns(len(buttons), buttons...),
		container.NewBorder(nil, nil, nil, p.retry, p.status),
	)

	return p
}

func (p *Panel) Content() fyne.CanvasObject {
	return p.content
}

func (p *Panel) onSlider(f float64) {
	p.send(int(math.Round(f)))
}

func (p *Panel) onPreset(v int) {
	p.setValue(p.send(v))
}

// Nudge moves the value by dir steps, as the arrow keys do.
func (p *Panel) Nudge(dir int) {
	if p.slider.Disabled() {
		return
	}
	p.setValue(p.send(p.Value() + dir*p.step))
}

// TypedKey handles arrow and page keys for the window holding the panel.
func (p *Panel) TypedKey(ev *fyne.KeyEvent) bool {
	switch ev.Name {
	case fyne.KeyUp, fyne.KeyRight:
		p.Nudge(1)
	case fyne.KeyDown, fyne.KeyLeft:
		p.Nudge(-1)
	case fyne.KeyPageUp:
		p.Nudge(2)
	case fyne.KeyPageDown:
		p.Nudge(-2)
	default:
		return false
	}
	return true
}

func (p *Panel) send(v int) int {
	v = p.ctrl.Request(v)
	p.requested = v
	p.requesting = true
	p.value.SetText(fmt.Sprintf("%d%%", v))
	return v
}

// setValue moves the knob without firing OnChanged and without snapping to
// Step, so a device value like 64 is shown as is.
func (p *Panel) setValue(v int) {
	p.slider.Value = float64(v)
	p.slider.Refresh()
	p.value.SetText(fmt.Sprintf("%d%%", v))
}

// Value is the slider position.
func (p *Panel) Value() int {
	return int(math.Round(p.slider.Value))
}

// SetRange updates the slider bounds after a config reload.
func (p *Panel) SetRange(min, max, step int) {
	p.slider.Min = float64(min)
	p.slider.Max = float64(max)
	if step > 0 {
		p.step = step
	}
	p.slider.Refresh()
	p.setValue(ddc.Clamp(p.Value(), min, max))
}

// RefreshAsync re-reads the device; the result arrives through Show.
func (p *Panel) RefreshAsync() {
	p.status.SetText("Reading…")
	go p.ctrl.Refresh(context.Background())
}

// Show renders st. A failed state disables the controls and offers a retry.
func (p *Panel) Show(st brightness.State) {
	if st.Err != nil {
		p.requesting = false
		p.setEnabled(false)
		p.status.SetText(ddc.Reason(st.Err))
		p.retry.Show()
		return
	}

	p.setEnabled(true)
	p.status.SetText("")
	p.retry.Hide()

	if !st.Known {
		return
	}
	if p.requesting {
		if st.Value != p.requested {
			return
		}
		p.requesting = false
	}
	p.setValue(st.Value)
}

func (p *Panel) setEnabled(on bool) {
	if on {
		p.slider.Enable()
		for _, b := range p.presets {
			b.Enable()
		}
		return
	}
	p.slider.Disable()
	for _, b := range p.presets {
		b.Disable()
	}
}

// Enabled reports whether the controls accept input.
func (p *Panel) Enabled() bool {
	return !p.slider.Disabled()
}
