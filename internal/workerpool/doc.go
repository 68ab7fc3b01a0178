// Package workerpool runs per-target sync jobs on a bounded set of workers.
package workerpool
