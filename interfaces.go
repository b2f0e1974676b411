/*
 * interfaces.go, part of gobasis.
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

package basis

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rmera/gobasis/container"
	"github.com/rmera/gobasis/parser"
)

// AtomicData is what a Storage stores: one parsed entry (a basis set or a
// pseudopotential) for one element, under all the names of its header line.
type AtomicData interface {
	//Info returns the fields shared by all the atomic data: symbol, names and source.
	Info() *Variant

	//PreferredName returns, among the names of the entry, the one that best
	//represents the given family and variant.
	PreferredName(family, variant string) string

	//ImplicitVariant returns the variant tag used when no rule gives one.
	ImplicitVariant() string

	//CheckVariant logs a warning if tag does not agree with the content of the entry.
	CheckVariant(family, tag string)

	//String renders the entry in the format it was parsed from.
	String() string

	//Dump stores the entry in a container group.
	Dump(g *container.Group) error
}

// Status tells what came out of parsing one record.
type Status int

const (
	StatusParsed Status = iota
	StatusUnavailable //the record was explicitly marked as not available, and skipped
	StatusFailed
)

func (S Status) String() string {
	switch S {
	case StatusParsed:
		return "parsed"
	case StatusUnavailable:
		return "unavailable"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(S))
}

// Result is the outcome of parsing one record. Data is only meaningful if
// Status is StatusParsed, Err only if it is StatusFailed. For
// unavailable records, Symbol, Names and Line tell which record was skipped.
type Result[T AtomicData] struct {
	Data   T
	Status Status
	Err    error
	Symbol string
	Names  []string
	Line   int
}

// Iterator gives the records of a source one at a time. Next returns false once
// the source is exhausted. A StatusFailed result is always the last one.
type Iterator[T AtomicData] interface {
	Next() (Result[T], bool)
}

type sliceIterator[T AtomicData] struct {
	data []T
	pos  int
}

func (S *sliceIterator[T]) Next() (Result[T], bool) {
	if S.pos >= len(S.data) {
		return Result[T]{}, false
	}
	S.pos++
	return Result[T]{Data: S.data[S.pos-1], Status: StatusParsed}, true
}

// FromSlice returns an iterator over already built records.
func FromSlice[T AtomicData](data ...T) Iterator[T] {
	return &sliceIterator[T]{data: data}
}

var logger *slog.Logger

// SetLogger sets the logger used by the package. nil restores slog.Default().
func SetLogger(l *slog.Logger) {
	logger = l
}

func lg() *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

//Errors

// Error is the interface for errors that all packages in this library implement. The Decorate method allows to add and retrieve info from the
// error, without changing it's type or wrapping it around something else.
type Error interface {
	Error() string
	Decorate(string) []string
}

// SyntaxError is returned when a text source or a stored container does not have the expected layout.
type SyntaxError = parser.SyntaxError

// ErrNotFound matches (with errors.Is) every NotFoundError.
var ErrNotFound = errors.New("not found")

// NotFoundError is returned by the lookups in a Storage.
type NotFoundError struct {
	What string //"family", "element" or "variant"
	Name string
	In   string //the family or element the lookup was made in, if any
	deco []string
}

func (E *NotFoundError) Error() string {
	if E.In != "" {
		return fmt.Sprintf("%s %q not found in %s", E.What, E.Name, E.In)
	}
	return fmt.Sprintf("%s %q not found", E.What, E.Name)
}

func (E *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Decorate adds the caller to the error and returns the list of callers.
func (E *NotFoundError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

// DuplicateError is returned when a (family, element, variant) triple is
// inserted twice in a Storage. It means the renaming rules are wrong.
type DuplicateError struct {
	Family  string
	Symbol  string
	Variant string
	deco    []string
}

func (E *DuplicateError) Error() string {
	return fmt.Sprintf("variant %s of %s already exists in family %s", E.Variant, E.Symbol, E.Family)
}

// Decorate adds the caller to the error and returns the list of callers.
func (E *DuplicateError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

//errDecorate decorates err with the caller's name if err implements Error,
//and returns it unchanged otherwise.
func errDecorate(err error, caller string) error {
	if err2, ok := err.(Error); ok {
		err2.Decorate(caller)
	}
	return err
}
