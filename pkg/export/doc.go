// Package export reads identifier lists and writes the tab separated
// outputs: the user TSV (sanitized free text) and the follower edge list.
package export
