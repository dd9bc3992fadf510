package parser

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var portNamePattern = regexp.MustCompile(`^([^0-9]*)([0-9]*)$`)

// ComparePortNames orders names such as PTA3 by their alphabetic prefix
// ascending and then by the numeric suffix descending. A missing suffix
// counts as -1. Names not of that shape compare as plain strings.
func ComparePortNames(a, b string) int {
	ma := portNamePattern.FindStringSubmatch(a)
	mb := portNamePattern.FindStringSubmatch(b)
	if ma == nil || mb == nil {
		return strings.Compare(a, b)
	}
	if c := strings.Compare(ma[1], mb[1]); c != 0 {
		return c
	}
	return cmp.Compare(suffixNumber(mb[2]), suffixNumber(ma[2]))
}

func suffixNumber(s string) int64 {
	if s == "" {
		return -1
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return -1
	}
	return n
}

// CompareRows orders rows by their key cell using ComparePortNames, falling
// back to the whole row text so the order never depends on input order.
func CompareRows(a, b Row) int {
	ra, rb := a.Raw(), b.Raw()
	if c := ComparePortNames(ra.Key(), rb.Key()); c != 0 {
		return c
	}
	if c := strings.Compare(ra.Text(), rb.Text()); c != 0 {
		return c
	}
	return strings.Compare(ra.Tag(), rb.Tag())
}

// SortedRows returns a sorted copy of rows.
func SortedRows(rows []Row) []Row {
	out := slices.Clone(rows)
	slices.SortStableFunc(out, CompareRows)
	return out
}
