// Package ui is the fyne front end: a tray icon with a popup slider, or a
// standalone window with the same controls.
package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/hoppxi/ddc-brightness/internal/brightness"
	"github.com/hoppxi/ddc-brightness/pkg/ddc"
	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
)

const (
	AppID = "io.github.hoppxi.ddc-brightness"
	title = "DDC Brightness"
)

var ErrNoTray = errors.New("no system tray available")

// Notifier is the desktop notification side, satisfied by *notify.Notifier.
type Notifier interface {
	Notify(summary, body string) error
}

type Options struct {
	Standalone bool
	Step       int
	// Notifier, when set, is told about failures nobody would otherwise
	// see because the popup is closed.
	Notifier Notifier
}

type App struct {
	fyneApp fyne.App
	svc     *brightness.Service
	opts    Options

	panel  *Panel
	popup  *Popup
	window fyne.Window
	tray   desktop.App

	failing bool
}

func New(a fyne.App, svc *brightness.Service, opts Options) (*App, error) {
	u := &App{fyneApp: a, svc: svc, opts: opts}
	u.panel = NewPanel(svc, opts.Step)
	a.SetIcon(iconOK)

	if opts.Standalone {
		u.window = a.NewWindow(title)
		u.window.SetContent(u.panel.Content())
		u.window.Resize(fyne.NewSize(350, 80))
		u.window.SetFixedSize(true)
		u.window.SetMaster()
		u.window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) { u.panel.TypedKey(ev) })
	} else {
		desk, ok := a.(desktop.App)
		if !ok {
			return nil, ErrNoTray
		}
		u.tray = desk
		u.popup = NewPopup(a, u.panel)
		desk.SetSystemTrayMenu(u.trayMenu())
		desk.SetSystemTrayIcon(iconOK)
		a.Lifecycle().SetOnExitedForeground(func() {
			if u.popup.Visible() {
				u.popup.Hide()
			}
		})
	}

	svc.Subscribe(u.onState)
	return u, nil
}

func (u *App) trayMenu() *fyne.Menu {
	presets := make([]*fyne.MenuItem, 0, len(Presets))
	for _, p := range Presets {
		presets = append(presets, fyne.NewMenuItem(fmt.Sprintf("%d%%", p), func() { u.svc.Request(p) }))
	}
	presetItem := fyne.NewMenuItem("Presets", nil)
	presetItem.ChildMenu = fyne.NewMenu("", presets...)

	quit := fyne.NewMenuItem("Quit", u.Quit)
	quit.IsQuit = true

	return fyne.NewMenu(title,
		fyne.NewMenuItem("☀ Brightness Slider", u.popup.Toggle),
		presetItem,
		fyne.NewMenuItem("Set Value…", func() { go u.promptValue() }),
		fyne.NewMenuItemSeparator(),
		quit,
	)
}

// onState runs on whichever goroutine changed the state; everything it
// touches is handed to the fyne goroutine.
func (u *App) onState(st brightness.State) {
	fyne.Do(func() {
		u.panel.Show(st)

		failing := st.Err != nil
		if u.tray != nil {
			if failing {
				u.tray.SetSystemTrayIcon(iconError)
			} else {
				u.tray.SetSystemTrayIcon(iconOK)
			}
		}
		if failing && !u.failing {
			u.notify(st.Err)
		}
		u.failing = failing
	})
}

func (u *App) notify(err error) {
	if u.opts.Notifier == nil || u.popup == nil || u.popup.Visible() {
		return
	}
	go func() {
		if nerr := u.opts.Notifier.Notify(title, ddc.Reason(err)); nerr != nil {
			log.Debug().Err(nerr).Msg("notification not delivered")
		}
	}()
}

// promptValue asks for an exact value in a zenity dialog. It blocks, so it
// runs off the fyne goroutine.
func (u *App) promptValue() {
	cur := u.svc.State().Value
	text, err := zenity.Entry("Brightness (0-100):",
		zenity.Title(title),
		zenity.EntryText(strconv.Itoa(cur)),
	)
	if errors.Is(err, zenity.ErrCanceled) {
		return
	}
	if err != nil {
		log.Warn().Err(err).Msg("value dialog failed")
		return
	}

	v, err := ParsePercent(text)
	if err != nil {
		_ = zenity.Error(err.Error(), zenity.Title(title))
		return
	}
	u.svc.Request(v)
}

// ParsePercent accepts "40", " 40 " and "40%".
func ParsePercent(text string) (int, error) {
	s := strings.TrimSuffix(strings.TrimSpace(text), "%")
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", text)
	}
	return v, nil
}

// SetRange pushes a reloaded range into the slider. Safe from any goroutine.
func (u *App) SetRange(min, max, step int) {
	fyne.Do(func() { u.panel.SetRange(min, max, step) })
}

// Show brings the controls up. Safe from any goroutine.
func (u *App) Show() {
	fyne.Do(func() {
		if u.window != nil {
			u.window.Show()
			u.window.RequestFocus()
			return
		}
		u.popup.Open()
	})
}

// Run reads the initial value and blocks in the fyne event loop.
func (u *App) Run() {
	u.panel.RefreshAsync()
	if u.window != nil {
		u.window.ShowAndRun()
		return
	}
	u.fyneApp.Run()
}

// Quit stops the event loop. Safe from any goroutine.
func (u *App) Quit() {
	fyne.Do(u.fyneApp.Quit)
}

// ShowError reports a fatal startup problem both on the log and in a
// dialog, since a tray app usually has no visible terminal.
func ShowError(err error) {
	log.Error().Err(err).Msg("startup failed")
	_ = zenity.Error(err.Error(), zenity.Title(title))
}
