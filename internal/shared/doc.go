// Package shared holds cross-cutting helpers that belong to no single
// pipeline layer. Today that is only the testutil subpackage with the
// buffered slog handler used by package tests.
package shared
