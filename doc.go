/*
 * doc.go, part of gobasis.
 *
 * Copyright 2026 The gobasis Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

/*
Package basis is the main package of the gobasis library. It reads the basis set and
GTH pseudopotential files used by CP2K, gives canonical names to the families they
define, and stores them in a library indexed by family, element and variant, which can be
saved to, and read from, a compact binary container.

	**gobasis Capabilities**

	Parses basis set and pseudopotential files (the parser subpackage does the tokenizing).
	Records are read one at a time, with Next, and the parse stops at the first malformed
	record. Pseudopotentials marked "NA" are reported, but skipped.

	Renders every record back to the same text format, so a rendered library can be
	parsed again.

	Maps the aliases of each record to family names, and extracts its variant tag (qN),
	with ordered lists of regular-expression rules, which can be read from YAML.

	Keeps, for each kind of data, a Storage: family -> element -> variant, plus
	per-family metadata, also assigned by rules.

	Finds families by the elements they cover, by a part of their name, and by tag.

	Writes and reads a Storage to and from a container.Group tree, which the container
	subpackage encodes with zstd, lz4 or gzip compression.

	Prints a periodic table of the elements covered by each family, and counts what is
	stored with Prometheus metrics. The chemplot subpackage draws coverage charts.

A Storage is built by one goroutine, and then only read. Nothing in the package
locks, so a Storage that is still being updated can't be shared.

Numeric data uses gonum: contraction coefficients are mat.Dense, and projectors
are the upper triangle of a mat.TriDense.

Logging goes to the log/slog logger given to SetLogger, or to slog.Default().
*/
package basis
