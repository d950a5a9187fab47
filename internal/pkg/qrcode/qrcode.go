// Package qrcode renders provisioning URIs as PNG data URLs an authenticator
// app can scan straight from an <img> tag.
package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var ErrEmptyContent = errors.New("qrcode: content is empty")

const dataURLPrefix = "data:image/png;base64,"

// Renderer turns text into an image reference.
type Renderer interface {
	DataURL(content string) (string, error)
}

// PNG renders square PNG images of a fixed pixel size.
type PNG struct {
	size int
}

// NewPNG returns a renderer of size pixels; non-positive sizes use 256.
func NewPNG(size int) *PNG {
	if size <= 0 {
		size = 256
	}
	return &PNG{size: size}
}

func (p *PNG) DataURL(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyContent
	}

	png, err := skipqrcode.Encode(content, skipqrcode.Medium, p.size)
	if err != nil {
		return "", err
	}

	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}
