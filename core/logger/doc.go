// Package logger builds the structured, leveled logger used across the
// shell.
package logger
