// Package processor parses origin HTML into a mutable document, extracts
// translatable segments from it, applies translations back in extraction
// order, and rewrites internal links and redirect locations to the
// translated domain.
package processor
