package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// Popup is the undecorated tray window holding the panel.
type Popup struct {
	win     fyne.Window
	panel   *Panel
	visible bool
}

func NewPopup(a fyne.App, panel *Panel) *Popup {
	var win fyne.Window
	if drv, ok := a.Driver().(desktop.Driver); ok {
		win = drv.CreateSplashWindow()
	} else {
		win = a.NewWindow(title)
	}

	p := &Popup{win: win, panel: panel}
	win.SetContent(panel.Content())
	win.Resize(fyne.NewSize(280, 120))
	win.SetFixedSize(true)
	win.SetCloseIntercept(p.Hide)
	win.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			p.Hide()
			return
		}
		panel.TypedKey(ev)
	})
	return p
}

func (p *Popup) Visible() bool {
	return p.visible
}

// Toggle opens the popup with a fresh reading, or hides it.
func (p *Popup) Toggle() {
	if p.visible {
		p.Hide()
		return
	}
	p.Open()
}

func (p *Popup) Open() {
	p.panel.RefreshAsync()
	p.visible = true
	p.win.Show()
	p.win.RequestFocus()
}

func (p *Popup) Hide() {
	p.visible = false
	p.win.Hide()
}
