/*
Package observability exports engine activity as Prometheus metrics.

Metrics are fed by domain.LifecycleHooks, so any engine or mutator that accepts
hooks can be observed without further wiring:

	m := observability.NewMetrics(prometheus.DefaultRegisterer)
	engine := runtime.NewEngine(stores, graphs, evaluator, runtime.WithLifecycleHooks(m.Hooks()))
*/
package observability
