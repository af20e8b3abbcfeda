// Package logger provides leveled, component-scoped logging for fillscan.
//
// Log lines go to stderr so the results table owns stdout. Components mirror
// the packages that do interesting work (app, client, innertube, match,
// cache) and can be silenced individually.
package logger
