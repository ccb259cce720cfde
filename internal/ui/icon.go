package ui

import "fyne.io/fyne/v2"

const sunSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="64" height="64" viewBox="0 0 24 24" fill="none" stroke="#f5c211" stroke-width="2" stroke-linecap="round">
<circle cx="12" cy="12" r="4.5" fill="#f5c211"/>
<path d="M12 1.5v2.5M12 20v2.5M1.5 12h2.5M20 12h2.5M4.6 4.6l1.8 1.8M17.6 17.6l1.8 1.8M4.6 19.4l1.8-1.8M17.6 6.4l1.8-1.8"/>
</svg>`

const sunErrorSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="64" height="64" viewBox="0 0 24 24" fill="none" stroke="#9a9996" stroke-width="2" stroke-linecap="round">
<circle cx="12" cy="12" r="4.5"/>
<path d="M12 1.5v2.5M12 20v2.5M1.5 12h2.5M20 12h2.5"/>
<path d="M3 21L21 3" stroke="#e01b24"/>
</svg>`

var (
	iconOK    = fyne.NewStaticResource("ddc-brightness.svg", []byte(sunSVG))
	iconError = fyne.NewStaticResource("ddc-brightness-error.svg", []byte(sunErrorSVG))
)
