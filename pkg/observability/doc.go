/*
Package observability turns the engine's lifecycle hooks into Prometheus metrics
and structured log records.

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	bot, err := folio.New(cfg,
		folio.WithLifecycleHooks(metrics.Hooks()),
		folio.WithLifecycleHooks(observability.LogHooks(logger)),
	)
*/
package observability
