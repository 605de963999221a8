package config

import (
	"time"

	"github.com/spf13/viper"
)

// JobxConfig configures the background mail queue.
type JobxConfig struct {
	Concurrency       int
	Queues            []string
	PollInterval      time.Duration
	ShutdownTimeout   time.Duration
	DequeueTimeout    time.Duration
	DefaultRetryDelay time.Duration
}

func loadJobxConfig(v *viper.Viper) JobxConfig {
	v.SetDefault("JOBX_CONCURRENCY", 2)
	v.SetDefault("JOBX_QUEUES", "mail")
	v.SetDefault("JOBX_POLL_INTERVAL", time.Second)
	v.SetDefault("JOBX_SHUTDOWN_TIMEOUT", 15*time.Second)
	v.SetDefault("JOBX_DEQUEUE_TIMEOUT", 5*time.Second)
	v.SetDefault("JOBX_DEFAULT_RETRY_DELAY", 30*time.Second)

	return JobxConfig{
		Concurrency:       v.GetInt("JOBX_CONCURRENCY"),
		Queues:            splitList(v.GetString("JOBX_QUEUES")),
		PollInterval:      v.GetDuration("JOBX_POLL_INTERVAL"),
		ShutdownTimeout:   v.GetDuration("JOBX_SHUTDOWN_TIMEOUT"),
		DequeueTimeout:    v.GetDuration("JOBX_DEQUEUE_TIMEOUT"),
		DefaultRetryDelay: v.GetDuration("JOBX_DEFAULT_RETRY_DELAY"),
	}
}
