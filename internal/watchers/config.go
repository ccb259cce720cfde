package watchers

import (
	"github.com/hoppxi/ddc-brightness/internal/brightness"
	"github.com/hoppxi/ddc-brightness/internal/manager"
	"github.com/rs/zerolog/log"
)

// ConfigUpdate applies the live-reloadable parts of s. Device and register
// changes need a restart.
func ConfigUpdate(svc *brightness.Service, s *manager.Settings) {
	if err := svc.SetRange(s.Min, s.Max); err != nil {
		log.Warn().Err(err).Msg("range not applied")
	}
	svc.SetDelays(s.Debounce, s.StepDebounce)
}
