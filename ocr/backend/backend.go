/*
Package backend selects and configures an OCR back end by name, for use by
command line tools.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package backend

import (
	"fmt"
	"strings"

	"github.com/npillmayer/fontocr/ocr"
	"github.com/npillmayer/fontocr/ocr/remote"
	"github.com/npillmayer/fontocr/ocr/template"
	"github.com/npillmayer/fontocr/ocr/tesseract"
)

// Names of the available back ends.
const (
	Template  = "template"
	Tesseract = "tesseract"
	Remote    = "remote"
)

// Settings select and configure a back end.
type Settings struct {
	Backend  string // one of Template, Tesseract, Remote; default is Template
	Alphabet string // characters to recognize, for Template and Tesseract
	Lang     string // tesseract language
	URL      string // recognition service URL for Remote
}

// New creates the classifier described by s.
func New(s Settings) (ocr.Classifier, error) {
	switch strings.ToLower(s.Backend) {
	case "", Template:
		var opts []template.Option
		if s.Alphabet != "" {
			opts = append(opts, template.WithAlphabet(s.Alphabet))
		}
		return template.New(opts...)
	case Tesseract:
		if err := tesseract.Available(); err != nil {
			return nil, fmt.Errorf("tesseract not available: %w", err)
		}
		clf := tesseract.New(s.Lang)
		if s.Alphabet != "" {
			clf.WithWhitelist(s.Alphabet)
		}
		return clf, nil
	case Remote:
		if s.URL == "" {
			return nil, fmt.Errorf("remote classifier needs a service URL")
		}
		return remote.New(s.URL), nil
	}
	return nil, fmt.Errorf("unknown classifier %q, use %s|%s|%s", s.Backend, Template, Tesseract, Remote)
}
