// Package bootstrap runs the llm-utils process lifecycle: start the
// registered components in order, run the hooks, block until SIGINT, SIGTERM
// or context cancellation, then stop everything in reverse within a
// graceful timeout.
//
//	app := bootstrap.NewApp(version.Name, version.Version, bootstrap.WithLogger(log))
//	_ = app.RegisterComponent(srv)
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err.Error())
//	}
package bootstrap
