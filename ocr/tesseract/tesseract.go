/*
Package tesseract classifies glyph images with the tesseract OCR engine.

The tesseract executable has to be installed separately. Every call starts a
tesseract process, with the image piped to its standard input and page
segmentation mode 10, which treats the image as a single character.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontocr.ocr'
func tracer() tracing.Trace {
	return tracing.Select("fontocr.ocr")
}

// Executable is the default name of the tesseract program.
const Executable = "tesseract"

// PSMSingleChar is tesseract's page segmentation mode for a single character.
const PSMSingleChar = 10

// Classifier runs tesseract for each glyph image.
type Classifier struct {
	Path string   // path of the executable
	Lang string   // language(s), e.g. "eng" or "eng+chi_sim"
	PSM  int      // page segmentation mode
	Args []string // additional arguments, e.g. a character whitelist
}

// New creates a classifier for language lang ("eng" if empty), using the
// tesseract executable found in $PATH.
func New(lang string) *Classifier {
	if lang == "" {
		lang = "eng"
	}
	return &Classifier{Path: Executable, Lang: lang, PSM: PSMSingleChar}
}

// Available checks if the tesseract executable can be found.
func Available() error {
	_, err := exec.LookPath(Executable)
	return err
}

// WithWhitelist restricts recognition to the characters in chars.
func (c *Classifier) WithWhitelist(chars string) *Classifier {
	c.Args = append(c.Args, "-c", "tessedit_char_whitelist="+chars)
	return c
}

func (c *Classifier) command(ctx context.Context) *exec.Cmd {
	args := []string{"stdin", "stdout", "--psm", strconv.Itoa(c.PSM), "-l", c.Lang}
	args = append(args, c.Args...)
	return exec.CommandContext(ctx, c.Path, args...)
}

// Classify pipes a PNG image to tesseract and returns its output with white
// space removed.
func (c *Classifier) Classify(ctx context.Context, image []byte) (string, error) {
	cmd := c.command(ctx)
	cmd.Stdin = bytes.NewReader(image)
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		tracer().Debugf("tesseract failed: %s", msg)
		return "", fmt.Errorf("tesseract: %w: %s", err, msg)
	}
	return condenseSpaces(stdout.String()), nil
}

// condenseSpaces removes all white space; glyphs do not contain any.
func condenseSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
