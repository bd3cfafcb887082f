package screenerd

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"screener/cache"
)

// purger periodically drops expired entries from the in-process cache.
// Redis expires keys on its own and needs no purger.
type purger struct {
	cron *cron.Cron
	log  *zap.Logger
}

func startPurger(spec string, mem *cache.Memory, log *zap.Logger) (*purger, error) {
	p := &purger{cron: cron.New(), log: log}
	if _, err := p.cron.AddFunc(spec, func() {
		if n := mem.Purge(); n > 0 {
			log.Debug("cache purged", zap.Int("expired", n), zap.Int("remaining", mem.Len()))
		}
	}); err != nil {
		return nil, err
	}
	p.cron.Start()
	log.Info("cache purge scheduled", zap.String("spec", spec))
	return p, nil
}

func (p *purger) Stop() {
	<-p.cron.Stop().Done()
}
