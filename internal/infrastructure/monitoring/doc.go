/*
Package monitoring provides metrics collection for the check-in workflow.

# Overview

Metrics are Prometheus collectors registered on a private registry. The REST
clients feed them through a completion hook; the workflow times itself with
a Timer. A short-lived CLI has no scrape endpoint, so the registry is dumped
in text exposition format for the node_exporter textfile collector.

# Usage

	metrics := monitoring.NewMetrics()

	client := rest.New(baseURL, rest.WithHook(metrics.Hook()))

	timer := monitoring.NewTimer(metrics, "checkin")
	// ... perform operation ...
	timer.Stop("success")

	_ = metrics.WriteTextfile("/var/lib/node_exporter/checkin.prom")
*/
package monitoring
