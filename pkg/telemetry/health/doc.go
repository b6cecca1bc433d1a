// Package health serves liveness, readiness and version probes.
//
// Components register checks on a Checker; readiness runs them in
// parallel with a per-check timeout:
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("history", store.Ping)
//	health.Register(mux, checker, version, commit, buildTime)
//
// /health always answers 200 while the process runs. /ready answers 503
// once any check fails.
package health
