package tree

import (
	"compress/gzip"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
)

var (
	ErrUnsupportedTag = errors.New("unsupported tag kind")
	ErrCorruptStream  = errors.New("corrupt tree stream")
)

func init() {
	gob.Register(Compound{})
	gob.Register([]Compound{})
}

// WriteCompressed gob-encodes c into a gzip stream.
func WriteCompressed(w io.Writer, c Compound) error {
	if err := c.Validate(); err != nil {
		return err
	}
	zw := gzip.NewWriter(w)
	if err := gob.NewEncoder(zw).Encode(c); err != nil {
		_ = zw.Close()
		return fmt.Errorf("encode tree: %w", err)
	}
	return zw.Close()
}

// ReadCompressed reads a stream produced by WriteCompressed.
func ReadCompressed(r io.Reader) (Compound, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}
	defer func() { _ = zr.Close() }()

	var c Compound
	if err = gob.NewDecoder(zr).Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}
	if c == nil {
		c = NewCompound()
	}
	return c, nil
}
