package pattern

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidFormat reports a malformed block stream: a missing bracket
// delimiter or an unparsable field. Errors returned by BlockRead wrap it,
// so callers can match with errors.Is.
var ErrInvalidFormat = errors.New("pattern: invalid block format")

// BlockWrite serializes the pattern in a bracketed ASCII form:
//
//	[rows cols compressed diag][rowstart...][colnums...]
//
// with booleans written as 0/1. The format is compact, not human-oriented;
// use Print for inspection.
func (sp *SparsityPattern) BlockWrite(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "[%d %d %d %d]",
		sp.rows, sp.cols, boolField(sp.compressed), boolField(sp.storeDiagonalFirst)); err != nil {
		return err
	}
	if err := writeIntBlock(w, sp.rowstart); err != nil {
		return err
	}
	return writeIntBlock(w, sp.colnums)
}

// BlockRead restores a pattern written by BlockWrite, replacing the current
// contents. Returns an error wrapping ErrInvalidFormat on any grammar
// violation, or the underlying I/O error on a stream fault.
func (sp *SparsityPattern) BlockRead(r io.Reader) error {
	return sp.blockRead(readerFor(r))
}

func (sp *SparsityPattern) blockRead(br *bufio.Reader) error {
	if err := expectDelim(br, '['); err != nil {
		return err
	}
	var compressed, diag int
	if _, err := fmt.Fscan(br, &sp.rows, &sp.cols, &compressed, &diag); err != nil {
		return fmt.Errorf("%w: header: %v", ErrInvalidFormat, err)
	}
	if err := expectDelim(br, ']'); err != nil {
		return err
	}
	if sp.rows < 0 || sp.cols < 0 {
		return fmt.Errorf("%w: negative dimensions %dx%d", ErrInvalidFormat, sp.rows, sp.cols)
	}
	sp.compressed = compressed != 0
	sp.storeDiagonalFirst = diag != 0

	var err error
	if sp.rowstart, err = readIntBlock(br, sp.rows+1); err != nil {
		return err
	}
	if len(sp.rowstart) != sp.rows+1 {
		return fmt.Errorf("%w: rowstart has %d entries, want %d", ErrInvalidFormat, len(sp.rowstart), sp.rows+1)
	}
	if sp.colnums, err = readIntBlock(br, sp.rowstart[sp.rows]); err != nil {
		return err
	}
	if len(sp.colnums) != sp.rowstart[sp.rows] {
		return fmt.Errorf("%w: colnums has %d entries, want %d", ErrInvalidFormat, len(sp.colnums), sp.rowstart[sp.rows])
	}
	return nil
}

// Print writes one line per row in the form "[row,col,col,...]".
func (sp *SparsityPattern) Print(w io.Writer) error {
	for i := 0; i < sp.rows; i++ {
		if _, err := fmt.Fprintf(w, "[%d", i); err != nil {
			return err
		}
		for k := sp.rowstart[i]; k < sp.rowstart[i+1]; k++ {
			if sp.colnums[k] == invalidEntry {
				continue
			}
			if _, err := fmt.Fprintf(w, ",%d", sp.colnums[k]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, "]"); err != nil {
			return err
		}
	}
	return nil
}

// PrintGnuplot writes one "col -row" point per entry, suitable for
// "plot ... using 1:2" to show the pattern the way the matrix is laid out.
func (sp *SparsityPattern) PrintGnuplot(w io.Writer) error {
	for i := 0; i < sp.rows; i++ {
		for k := sp.rowstart[i]; k < sp.rowstart[i+1]; k++ {
			if sp.colnums[k] == invalidEntry {
				continue
			}
			if _, err := fmt.Fprintf(w, "%d %d\n", sp.colnums[k], -i); err != nil {
				return err
			}
		}
	}
	return nil
}

// BlockWrite serializes the chunked pattern: the logical dimensions in one
// bracket pair, then the underlying block pattern in a second:
//
//	[rows cols ][<block pattern>]
//
// The chunk size is NOT part of the stream; BlockRead restores it only if
// the receiving pattern was initialized with the same chunk size the writer
// used. Persist the chunk size alongside the stream when that discipline
// cannot be guaranteed.
func (c *ChunkSparsityPattern) BlockWrite(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "[%d %d ][", c.rows, c.cols); err != nil {
		return err
	}
	if err := c.pattern.BlockWrite(w); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, "]")
	return err
}

// BlockRead restores a pattern written by BlockWrite, replacing the current
// contents. The chunk size field is kept as-is; see BlockWrite.
func (c *ChunkSparsityPattern) BlockRead(r io.Reader) error {
	br := readerFor(r)

	if err := expectDelim(br, '['); err != nil {
		return err
	}
	if _, err := fmt.Fscan(br, &c.rows, &c.cols); err != nil {
		return fmt.Errorf("%w: dimensions: %v", ErrInvalidFormat, err)
	}
	if c.rows < 0 || c.cols < 0 {
		return fmt.Errorf("%w: negative dimensions %dx%d", ErrInvalidFormat, c.rows, c.cols)
	}
	if err := expectDelim(br, ']'); err != nil {
		return err
	}
	if err := expectDelim(br, '['); err != nil {
		return err
	}
	if err := c.pattern.blockRead(br); err != nil {
		return err
	}
	return expectDelim(br, ']')
}

func writeIntBlock(w io.Writer, v []int) error {
	if _, err := fmt.Fprint(w, "["); err != nil {
		return err
	}
	for k, x := range v {
		if k > 0 {
			if _, err := fmt.Fprint(w, " "); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%d", x); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "]")
	return err
}

func readIntBlock(br *bufio.Reader, n int) ([]int, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative block length %d", ErrInvalidFormat, n)
	}
	if err := expectDelim(br, '['); err != nil {
		return nil, err
	}
	v := make([]int, n)
	for k := 0; k < n; k++ {
		if _, err := fmt.Fscan(br, &v[k]); err != nil {
			return nil, fmt.Errorf("%w: entry %d of %d: %v", ErrInvalidFormat, k, n, err)
		}
	}
	if err := expectDelim(br, ']'); err != nil {
		return nil, err
	}
	return v, nil
}

// expectDelim consumes whitespace and the single expected delimiter byte.
func expectDelim(br *bufio.Reader, want byte) error {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return fmt.Errorf("%w: expected %q: %v", ErrInvalidFormat, want, err)
		}
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		if b != want {
			return fmt.Errorf("%w: expected %q, found %q", ErrInvalidFormat, want, b)
		}
		return nil
	}
}

func readerFor(r io.Reader) *bufio.Reader {
	if br, ok := r.(*bufio.Reader); ok {
		return br
	}
	return bufio.NewReader(r)
}

func boolField(b bool) int {
	if b {
		return 1
	}
	return 0
}
