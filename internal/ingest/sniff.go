package ingest

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// sniffSize is how much of a file is inspected before parsing
const sniffSize = 8 * 1024

var errBinaryFile = errors.New("file appears to be binary, not a hash table")

// checkText peeks at the head of r and rejects content that cannot be a
// line-oriented hash table: any NUL byte, or mostly control characters.
func checkText(r *bufio.Reader) error {
	head, err := r.Peek(sniffSize)
	if err != nil && err != io.EOF && !errors.Is(err, bufio.ErrBufferFull) {
		return err
	}
	if isBinary(head) {
		return errBinaryFile
	}
	return nil
}

func isBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return true
	}

	// Control characters other than tab, LF, VT, FF and CR
	nonPrintable := 0
	for _, b := range data {
		if b < 9 || (b > 13 && b < 32) || b == 127 {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(len(data)) > 0.3
}
