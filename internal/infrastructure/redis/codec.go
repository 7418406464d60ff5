package redis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/avatarctic/dashboard-cache/internal/core/domain/cache"
)

// zstd frames start with this magic number; JSON text never does, so stored values are
// self-describing and decode correctly whatever the current compression setting is.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	if zstdEncoder, err = zstd.NewWriter(nil); err != nil {
		panic(fmt.Sprintf("redis cache: zstd encoder: %v", err))
	}
	if zstdDecoder, err = zstd.NewReader(nil); err != nil {
		panic(fmt.Sprintf("redis cache: zstd decoder: %v", err))
	}
}

// encodeValue serializes v as JSON, compressing it when asked to.
func encodeValue(v any, compress bool) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cache.ErrUnsupportedValue, err)
	}
	if !compress {
		return b, nil
	}
	return zstdEncoder.EncodeAll(b, make([]byte, 0, len(b)/2)), nil
}

// decodeValue reverses encodeValue into dst.
func decodeValue(data []byte, dst any) error {
	if bytes.HasPrefix(data, zstdMagic) {
		raw, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return fmt.Errorf("decompress: %w", err)
		}
		data = raw
	}
	if err := json.Unmarshal(data, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return fmt.Errorf("%w: %v", cache.ErrTypeMismatch, err)
		}
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
