// Package logging provides leveled logging helpers on top of the standard
// library log package. The level is read once from the LOG_LEVEL and DEBUG
// environment variables.
package logging
