// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package project

import (
	"fmt"
	"strings"
)

// NameError is returned when a circuit name is empty or already taken.
//
type NameError struct {
	Name   string
	Reason string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("invalid circuit name %q: %s", e.Name, e.Reason)
}

// ReplayError lists the elements that could not be loaded or pasted.
//
type ReplayError struct {
	Errs []error
}

func (e *ReplayError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d element(s) failed", len(e.Errs))
	for _, err := range e.Errs {
		b.WriteString("\n\t")
		b.WriteString(err.Error())
	}
	return b.String()
}
