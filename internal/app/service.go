// Package app wires the pipeline stages together and runs deck
// generation end to end.
package app

import (
	"log/slog"

	"slidecraft/internal/tools"
	"slidecraft/pkg/config"
)

// Service holds the wired components of one process. Build it once at
// startup with BuildService.
type Service struct {
	cfg      *config.Config
	logger   *slog.Logger
	pipeline *Pipeline
	registry *tools.Registry
}

func (s *Service) Config() *config.Config { return s.cfg }
func (s *Service) Logger() *slog.Logger   { return s.logger }
func (s *Service) Pipeline() *Pipeline    { return s.pipeline }
func (s *Service) Tools() *tools.Registry { return s.registry }
