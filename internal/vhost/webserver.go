package vhost

import (
	"context"

	"go.uber.org/zap"

	"github.com/ksyq12/vhostctl/internal/driver"
	"github.com/ksyq12/vhostctl/internal/errors"
)

// Control runs one webserver verb.
func (s *Service) Control(ctx context.Context, verb driver.Verb) error {
	var run func(context.Context) error
	switch verb {
	case driver.VerbStart:
		run = s.web.Start
	case driver.VerbStop:
		run = s.web.Stop
	case driver.VerbRestart:
		run = s.web.Restart
	case driver.VerbReload:
		run = s.web.Reload
	case driver.VerbTest:
		t, ok := s.web.(driver.Tester)
		if !ok {
			return errors.Validation("The test command is not supported by " + s.web.Name() + ".")
		}
		run = t.Test
	default:
		return errors.Validation("Unknown webserver command " + string(verb) + ".")
	}

	err := run(ctx)
	s.metrics.WebserverCommand(string(verb), err)
	if err != nil {
		s.log.Warn("webserver command failed",
			zap.String("driver", s.web.Name()),
			zap.String("verb", string(verb)),
			zap.Error(err),
		)
		return err
	}
	s.log.Info("webserver command completed", zap.String("driver", s.web.Name()), zap.String("verb", string(verb)))
	return nil
}
