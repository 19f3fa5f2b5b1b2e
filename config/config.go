// Package config defines the configuration of the pulseq service.
package config

import (
	"github.com/rise-and-shine/pulseq/broker"
	"github.com/rise-and-shine/pulseq/grpc/server/wrgrpc"
	"github.com/rise-and-shine/pulseq/http/server"
	"github.com/rise-and-shine/pulseq/memqueue"
	"github.com/rise-and-shine/pulseq/observability/alert"
	"github.com/rise-and-shine/pulseq/observability/logger"
	"github.com/rise-and-shine/pulseq/observability/tracing"
)

// Config is the root configuration, read from ./config/${ENVIRONMENT}.yaml.
type Config struct {
	Service Service         `yaml:"service"`
	Logger  logger.Config   `yaml:"logger"`
	Queue   memqueue.Config `yaml:"queue"`
	Broker  broker.Config   `yaml:"broker"`
	HTTP    server.Config   `yaml:"http"`
	GRPC    wrgrpc.Config   `yaml:"grpc"`
	Tracing tracing.Config  `yaml:"tracing"`
	Alert   alert.Config    `yaml:"alert"`
}

// Service identifies this process in logs, traces and alerts.
type Service struct {
	Name    string `yaml:"name"    validate:"required" default:"pulseq"`
	Version string `yaml:"version" validate:"required" default:"dev"`
}
