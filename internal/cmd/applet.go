package cmd

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"fyne.io/fyne/v2/app"
	"github.com/hoppxi/ddc-brightness/internal/manager"
	"github.com/hoppxi/ddc-brightness/internal/notify"
	"github.com/hoppxi/ddc-brightness/internal/ui"
	"github.com/hoppxi/ddc-brightness/internal/watchers"
	"github.com/rs/zerolog/log"
)

func runApplet(s *manager.Settings) error {
	if manager.Manage.Running() {
		log.Info().Msg("already running, raising the existing instance")
		_, err := manager.Manage.SendIPCCommand("SHOW")
		return err
	}

	svc, err := newService(newController(s), s)
	if err != nil {
		ui.ShowError(err)
		return err
	}
	defer svc.Close()

	opts := ui.Options{Standalone: s.Standalone, Step: s.Step}
	if s.Notify {
		n := notify.New(manager.AppName, "display-brightness-symbolic")
		defer n.Close()
		opts.Notifier = n
	}

	a := app.NewWithID(ui.AppID)
	u, err := ui.New(a, svc, opts)
	if err != nil {
		ui.ShowError(err)
		return err
	}

	log.Info().
		Str("device", s.Device).
		Str("register", s.Register).
		Bool("standalone", s.Standalone).
		Msg("starting applet")

	var scrollStep atomic.Int64
	scrollStep.Store(int64(s.ScrollStep))

	manager.Manage.Handle(commandHandler(svc, u.Show, u.Quit, &scrollStep))
	if err := manager.Manage.StartIPCServer(); err != nil {
		log.Warn().Err(err).Msg("control socket unavailable")
	}
	manager.Manage.StartWatcher(watchers.StartDisplayWatcher(svc))
	manager.Config.Watch(func(ns *manager.Settings) {
		watchers.ConfigUpdate(svc, ns)
		scrollStep.Store(int64(ns.ScrollStep))
		u.SetRange(ns.Min, ns.Max, ns.Step)
	})
	defer manager.Manage.StopAll()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("received shutdown signal")
		u.Quit()
	}()

	u.Run()
	log.Info().Msg("applet stopped")
	return nil
}
