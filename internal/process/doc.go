// Package process terminates the headless browser together with its
// child processes when a printer is closed.
package process
