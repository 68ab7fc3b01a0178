// Package ui prints run progress and summaries to the terminal.
package ui
