package wire

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

const (
	encodingRaw  = ""
	encodingZstd = "zstd"
)

var (
	encoder = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	})
	decoder = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxMessageSize))
	})
)

// pack compresses row pixels for the wire.
func pack(pix []byte) (encoding string, data []byte, err error) {
	enc, err := encoder()
	if err != nil {
		return "", nil, fmt.Errorf("zstd encoder: %w", err)
	}
	return encodingZstd, enc.EncodeAll(pix, make([]byte, 0, len(pix)/4)), nil
}

// unpack reverses pack. sizeHint is the expected decoded length.
func unpack(encoding string, data []byte, sizeHint int) ([]byte, error) {
	switch encoding {
	case encodingRaw:
		return data, nil
	case encodingZstd:
		dec, err := decoder()
		if err != nil {
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
		pix, err := dec.DecodeAll(data, make([]byte, 0, sizeHint))
		if err != nil {
			return nil, fmt.Errorf("zstd decode: %w", err)
		}
		return pix, nil
	default:
		return nil, fmt.Errorf("%w: unknown pixel encoding %q", ErrBadResult, encoding)
	}
}
