// Package app assembles the cleaning pipeline into a runnable batch
// container. New wires configuration, logging, tracing, metrics and all
// pipeline steps; Run executes one cleaning pass over an admissions file
// and ProfileInput produces the read-only quality report.
package app
