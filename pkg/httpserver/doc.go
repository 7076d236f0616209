// Package httpserver runs an http.Server bound to a context.
//
// Run listens on the configured address, serves until the context is
// cancelled or Shutdown is called, and then shuts the server down within
// the configured deadline. A Server runs once.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		return err
//	}
//
// Start hooks receive the bound address, so tests can listen on port 0 and
// learn the real port. HealthCheckHandler serves liveness and readiness
// probes.
//
// Listen and serve failures wrap ErrStart; failed graceful shutdowns wrap
// ErrShutdown.
package httpserver
