/*
Package catalog reads and writes circuit catalogs in the line oriented text format:

	# comment
	(x,y) key1=value1, key2=value2

Blank lines and '#' lines are ignored. A malformed line is logged and skipped;
the load continues and the returned Report counts what was skipped. Two lines
with the same (x,y) abort the load with a *domain.DuplicateLocationError.
*/
package catalog
