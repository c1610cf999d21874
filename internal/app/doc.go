// Package app contains the application logic of the composim binary: the
// App struct, its configuration, and the load/build/run/print lifecycle,
// decoupled from the CLI entrypoint.
package app
