// Package state holds the per-run research state: ordered goals with an
// active → completed | cancelled lifecycle, tracked tickers, topic notes and
// the insertion-ordered deliverables committed under pre-declared keys.
package state
