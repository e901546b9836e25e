package scheduler

import (
	"context"
	"fmt"

	"github.com/eroudini/AiMerchant-sub000/internal/domain"
	"github.com/eroudini/AiMerchant-sub000/internal/service"
	"github.com/rs/zerolog/log"
)

// AutoActionRunner is the part of the auto-action service the job drives.
type AutoActionRunner interface {
	Resolve(params domain.RunParams) domain.RunSettings
	Run(ctx context.Context, settings domain.RunSettings, trigger domain.Trigger, policy service.ErrorPolicy) (*domain.RunResult, error)
}

// ReplenishmentJob runs the configured auto-action pass over every active account.
type ReplenishmentJob struct {
	autoAction AutoActionRunner
}

func NewReplenishmentJob(autoAction AutoActionRunner) *ReplenishmentJob {
	return &ReplenishmentJob{autoAction: autoAction}
}

func (j *ReplenishmentJob) Run(ctx context.Context) {
	settings := j.autoAction.Resolve(domain.RunParams{})
	res, err := j.autoAction.Run(ctx, settings, domain.TriggerCron, service.ContinueOnError)
	if err != nil {
		log.Error().Err(err).Msg("scheduled auto-action run failed")
		return
	}

	event := log.Info()
	if !res.OK {
		event = log.Warn()
	}
	event.
		Str("run_id", res.RunID).
		Int("accounts", len(res.Results)).
		Bool("ok", res.OK).
		Msg("scheduled auto-action run completed")
}

// Schedule registers the job on r. It is a no-op when disabled.
func (j *ReplenishmentJob) Schedule(r *Runner, spec string, enabled bool) error {
	if !enabled {
		log.Info().Msg("auto-action cron disabled")
		return nil
	}
	if _, err := r.Add(spec, j.Run); err != nil {
		return fmt.Errorf("schedule auto-action cron %q: %w", spec, err)
	}
	log.Info().Str("spec", spec).Msg("auto-action cron scheduled")
	return nil
}
