/*
Package ocr defines the character recognition capability used to classify
rendered glyphs.

A Classifier receives a PNG image of a single glyph and returns its best guess
for the text the glyph represents, usually a single character. Back ends live
in sub-packages:

	ocr/template   pure Go, compares against glyphs of a reference font
	ocr/tesseract  drives the tesseract executable
	ocr/remote     client for an HTTP recognition service

Clients may plug in any other implementation, e.g. with ClassifierFunc.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package ocr

import (
	"context"
	"errors"
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontocr.ocr'
func tracer() tracing.Trace {
	return tracing.Select("fontocr.ocr")
}

// ErrClassification is returned if a classifier fails to process an image.
var ErrClassification = errors.New("classification failed")

// Classifier recognizes the text shown in an image.
type Classifier interface {
	// Classify receives PNG data and returns the recognized text, or the
	// empty string if nothing has been recognized.
	Classify(ctx context.Context, image []byte) (string, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, image []byte) (string, error)

// Classify calls f(ctx, image).
func (f ClassifierFunc) Classify(ctx context.Context, image []byte) (string, error) {
	return f(ctx, image)
}

// Classify calls a classifier and reports every failure, including panics,
// as an error wrapping ErrClassification.
func Classify(ctx context.Context, clf Classifier, image []byte) (text string, err error) {
	if clf == nil {
		return "", fmt.Errorf("%w: no classifier", ErrClassification)
	}
	defer func() {
		if r := recover(); r != nil {
			tracer().Errorf("classifier panicked: %v", r)
			text, err = "", fmt.Errorf("%w: %v", ErrClassification, r)
		}
	}()
	if err = ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrClassification, err)
	}
	if text, err = clf.Classify(ctx, image); err != nil {
		if errors.Is(err, ErrClassification) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrClassification, err)
	}
	return text, nil
}

// Close releases resources of a classifier, if it holds any.
func Close(clf Classifier) error {
	if c, ok := clf.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
