package s3_test

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"

	"imgnote/adapters/s3"
)

func TestMaxSizeReader(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		maxSize  int64
		oneByte  bool
		wantData []byte
		wantErr  string
	}{
		{
			name:     "under the limit",
			input:    []byte("hello"),
			maxSize:  10,
			wantData: []byte("hello"),
		},
		{
			name:     "exactly the limit",
			input:    []byte("hello"),
			maxSize:  5,
			wantData: []byte("hello"),
		},
		{
			name:     "over the limit",
			input:    []byte("hello world"),
			maxSize:  5,
			wantData: []byte("hello"),
			wantErr:  "reach limit of 5 bytes",
		},
		{
			name:     "over the limit with short reads",
			input:    bytes.Repeat([]byte{'x'}, 3000),
			maxSize:  2048,
			oneByte:  true,
			wantData: bytes.Repeat([]byte{'x'}, 2048),
			wantErr:  "reach limit of 2.00 KB",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var src io.Reader = bytes.NewReader(tt.input)
			if tt.oneByte {
				src = iotest.OneByteReader(src)
			}
			got, err := io.ReadAll(s3.NewMaxSizeReader(src, tt.maxSize))
			assert.Equal(t, tt.wantData, got)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var limitErr *s3.ReachLimitError
			assert.True(t, errors.As(err, &limitErr))
			assert.Equal(t, tt.maxSize, limitErr.MaxBytes)
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
