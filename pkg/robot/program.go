// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

package robot

import (
	"fmt"
	"regexp"
)

// ChunkSize bounds each transfer-frame payload during program upload.
// The controller rejects longer lines, so chunks stay conservative.
const ChunkSize = 492

var programNameRe = regexp.MustCompile(`\.PROGRAM\s+(\S+)`)

// Program is a named AS motion subroutine held as ASCII source text.
// The name is extracted from the .PROGRAM header and must be present.
type Program struct {
	Name string
	data []byte
}

// NewProgram parses the program name out of source. A missing
// .PROGRAM header is a template bug and fails with ErrProtocolFormat.
func NewProgram(source string) (*Program, error) {
	m := programNameRe.FindStringSubmatch(source)
	if m == nil {
		return nil, fmt.Errorf("%w: program source has no .PROGRAM name", ErrProtocolFormat)
	}
	return &Program{Name: m[1], data: []byte(source)}, nil
}

// Source returns the full program text.
func (p *Program) Source() []byte {
	return p.data
}

// Chunks splits the program into transfer-frame payloads. Concatenating
// the chunks reconstructs the source byte-for-byte.
func (p *Program) Chunks() [][]byte {
	var chunks [][]byte
	for i := 0; i < len(p.data); i += ChunkSize {
		end := i + ChunkSize
		if end > len(p.data) {
			end = len(p.data)
		}
		chunks = append(chunks, p.data[i:end])
	}
	return chunks
}
