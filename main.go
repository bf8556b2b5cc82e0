// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors
//
// Kawachess - chess against a Kawasaki robot arm.

package main

import (
	"fmt"
	"os"

	"kawachess/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
