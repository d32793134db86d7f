package s3_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"imgnote/adapters/s3"
)

func TestCheckSecureImageAndGetExtension(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		wantOk  bool
		wantExt string
	}{
		{name: "png", content: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), wantOk: true, wantExt: "png"},
		{name: "jpeg", content: []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"), wantOk: true, wantExt: "jpeg"},
		{name: "gif", content: []byte("GIF89a\x01\x00\x01\x00"), wantOk: true, wantExt: "gif"},
		{name: "svg is rejected", content: []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`)},
		{name: "html is rejected", content: []byte("<html><body>hi</body></html>")},
		{name: "pdf is rejected", content: []byte("%PDF-1.7\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotOk, gotExt := s3.CheckSecureImageAndGetExtension(http.DetectContentType(tt.content))
			assert.Equal(t, tt.wantOk, gotOk)
			assert.Equal(t, tt.wantExt, gotExt)
		})
	}
}
