// Package ui holds the terminal output helpers used by the CLI.
package ui
