// Package startup handles configuration loading, build information, and
// consistent startup/shutdown logging.
package startup
