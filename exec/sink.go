package exec

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/vcnkl/areamap/logger"
	"github.com/vcnkl/areamap/models"
)

type CommandSinkOptions struct {
	Command string
	Shell   string
	WorkDir string
	Timeout time.Duration
	Env     map[string]string
	Dotenv  []string
	Logger  logger.Logger
}

// CommandSink pipes every frame as JSON into the stdin of a shell command.
type CommandSink struct {
	opts CommandSinkOptions
	log  logger.Logger
}

func NewCommandSink(opts CommandSinkOptions) *CommandSink {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &CommandSink{
		opts: opts,
		log:  log.WithPrefix("command"),
	}
}

func (s *CommandSink) Publish(ctx context.Context, frame *models.Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return errors.Wrap(err, "failed to marshal frame")
	}

	env := ComposeEnv(s.opts.WorkDir, s.opts.Env, s.opts.Dotenv, frame)

	s.log.Debug("running frame command",
		logger.String("command", s.opts.Command),
		logger.Uint64("seq", frame.Seq),
	)

	err = RunCommand(ctx, s.opts.Command, &ShellOptions{
		WorkDir: s.opts.WorkDir,
		Env:     env,
		Shell:   s.opts.Shell,
		Stdin:   string(data),
		Stdout:  s.log.Writer(),
		Stderr:  s.log.Writer(),
		Timeout: s.opts.Timeout,
	})
	if err != nil {
		return errors.Wrapf(err, "frame command %q failed", s.opts.Command)
	}
	return nil
}
