/*
Command otcli is an interactive shell for exploring obfuscated fonts.

Load a font, look at its names and character map, render single glyphs,
extract the glyph mapping and try it on scraped text:

	otcli -font price.woff
	fontocr > cmap:10
	fontocr > render:e78c
	fontocr > extract:256
	fontocr > decode:&#xe78c;&#xe562;

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/fontocr"
	"github.com/npillmayer/fontocr/glyphmap"
	"github.com/npillmayer/fontocr/ocr"
	"github.com/npillmayer/fontocr/ocr/backend"
	"github.com/npillmayer/fontocr/raster"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
)

// tracer traces with key 'fontocr.cli'
func tracer() tracing.Trace {
	return tracing.Select("fontocr.cli")
}

func main() {
	initDisplay()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":        "go",
		"trace.fontocr.cli":      "Info",
		"trace.fontocr.glyphmap": "Info",
		"trace.fontocr.ocr":      "Error",
		"trace.fontocr.raster":   "Error",
		"trace.fontocr.ot":       "Error",
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	// command line flags
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	fontname := flag.String("font", "", "Font to load")
	clfname := flag.String("ocr", backend.Template, "Classifier [template|tesseract|remote]")
	url := flag.String("url", "", "Recognition service URL for -ocr remote")
	lang := flag.String("lang", "eng", "Language for -ocr tesseract")
	flag.Parse()
	tracer().SetTraceLevel(tracing.LevelError)                 // will set the correct level later
	pterm.Info.Println("Welcome to the obfuscated font shell") // colored welcome message
	//
	// set up REPL
	repl, err := readline.New("fontocr > ")
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	intp := &Intp{
		repl:     repl,
		renderer: raster.NewRenderer(nil),
		size:     256,
		settings: backend.Settings{Backend: *clfname, URL: *url, Lang: *lang},
	}
	//
	// load font to use
	if *fontname != "" {
		if err := intp.loadFont(*fontname); err != nil { // font name provided by flag
			tracer().Errorf(err.Error())
			os.Exit(4)
		}
	}
	//
	// start receiving commands
	pterm.Info.Println("Quit with <ctrl>D") // inform user how to stop the CLI
	switch *tlevel {
	case "Debug":
		tracer().SetTraceLevel(tracing.LevelDebug)
	case "Info":
		tracer().SetTraceLevel(tracing.LevelInfo)
	case "Error":
		tracer().SetTraceLevel(tracing.LevelError)
	default:
		tracer().Errorf("Invalid trace level: %s", *tlevel)
		os.Exit(5)
	}
	tracer().Infof("Trace level is %s", *tlevel)
	intp.REPL() // go into interactive mode
	if err := ocr.Close(intp.clf); err != nil {
		tracer().Errorf(err.Error())
	}
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// Intp is our interpreter object
type Intp struct {
	repl     *readline.Instance
	font     *fontocr.Font
	path     string
	renderer *raster.Renderer
	size     int // glyph image size
	settings backend.Settings
	clf      ocr.Classifier // created on first use
	mapping  glyphmap.Mapping
}

func (intp *Intp) String() string {
	if intp == nil || intp.font == nil {
		return "( no font )"
	}
	s := fmt.Sprintf("( font=%s size=%d", intp.path, intp.size)
	if intp.mapping != nil {
		s += fmt.Sprintf(" mapping=%d", len(intp.mapping))
	}
	return s + " )"
}

// REPL starts interactive mode.
func (intp *Intp) REPL() {
	for {
		pterm.Println(intp.String())
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		cmd, err := intp.parseCommand(line)
		if err != nil {
			tracer().Errorf(err.Error())
			continue
		}
		err, quit := intp.execute(cmd)
		if err != nil {
			tracer().Errorf(err.Error())
			continue
		}
		if quit {
			break
		}
	}
	pterm.Info.Println("Good bye!")
}

type Op struct {
	code   int
	arg    string
	format string
}

type Command struct {
	count int
	op    [32]Op
}

const NOOP = -1
const (
	// op-code QUIT will not have arguments
	QUIT int = iota
	// op-codes below may have arguments
	HELP
	LOAD
	INFO
	CMAP
	RENDER
	SIZE
	OCR
	EXTRACT
	DECODE
	SAVE
)

var opMap = map[string]int{
	"quit":    QUIT,
	"help":    HELP,
	"load":    LOAD,
	"info":    INFO,
	"cmap":    CMAP,
	"render":  RENDER,
	"size":    SIZE,
	"ocr":     OCR,
	"extract": EXTRACT,
	"decode":  DECODE,
	"save":    SAVE,
}

var opNames = []string{
	"quit",
	"help",
	"load",
	"info",
	"cmap",
	"render",
	"size",
	"ocr",
	"extract",
	"decode",
	"save",
}

var command = Command{}

func resetCommand() {
	command.count = 0
	for i := range command.op {
		command.op[i].code = NOOP
		command.op[i].arg = ""
		command.op[i].format = ""
	}
}

// parseCommand splits a line into steps separated by blanks. A step is an
// op-code with optional arguments separated by colons, e.g. "render:e78c:64".
// decode takes the rest of the line as its argument.
func (intp *Intp) parseCommand(line string) (*Command, error) {
	resetCommand()
	steps := strings.Split(line, " ")
	if len(steps) > len(command.op) {
		return nil, fmt.Errorf("too many steps in command: %d", len(steps))
	}
	for i, step := range steps {
		c := strings.SplitN(step, ":", 3) // e.g.  "cmap:20" or "render:e78c:64" or "help:render"
		code, ok := opMap[strings.ToLower(c[0])]
		if !ok {
			code = HELP
		}
		command.count++
		command.op[i].code = code
		if code == QUIT {
			return &command, nil
		}
		if code == DECODE {
			_, rest, _ := strings.Cut(strings.Join(steps[i:], " "), ":")
			command.op[i].arg = rest
			return &command, nil
		}
		command.op[i].arg = getOptArg(c, 1)
		command.op[i].format = getOptArg(c, 2)
		tracer().Debugf("parsed command: %v", c)
	}
	return &command, nil
}

var commandFn = map[int]func(*Intp, *Op) (error, bool){
	QUIT:    quitOp,
	HELP:    helpOp,
	LOAD:    loadOp,
	INFO:    infoOp,
	CMAP:    cmapOp,
	RENDER:  renderOp,
	SIZE:    sizeOp,
	OCR:     ocrOp,
	EXTRACT: extractOp,
	DECODE:  decodeOp,
	SAVE:    saveOp,
}

func (intp *Intp) execute(cmd *Command) (err error, stop bool) {
	tracer().Debugf("cmd = %v", cmd.op[:cmd.count])
	for _, c := range cmd.op {
		if c.code == NOOP {
			break
		}
		f, ok := commandFn[c.code]
		if !ok {
			pterm.Error.Printf("unknown command code: %d\n", c.code)
			return nil, false
		}
		err, stop = f(intp, &c)
		if err != nil {
			pterm.Error.Println(err)
			return
		}
		if stop {
			return
		}
	}
	return
}

func quitOp(intp *Intp, op *Op) (error, bool) {
	pterm.Println("Goodbye!")
	return nil, true
}

// --- Font Loading -----------------------------------------------------

func loadOp(intp *Intp, op *Op) (error, bool) {
	path, ok := op.hasArg()
	if !ok {
		return errors.New("usage: load:<font file>"), false
	}
	return intp.loadFont(path), false
}

func (intp *Intp) loadFont(path string) error {
	f, err := intp.renderer.LoadFont(path)
	if err != nil {
		return err
	}
	intp.font, intp.path, intp.mapping = f, path, nil
	tracer().Infof("loaded font = %s", f.Fontname)
	pterm.Printf("font tables: %v\n", f.OT.TableTags())
	return nil
}

// ----------------------------------------------------------------------

var errNoFont = errors.New("no font loaded, use load:<font file>")

func (intp *Intp) checkFont() error {
	if intp.font == nil {
		return errNoFont
	}
	return nil
}

func getOptArg(s []string, inx int) string {
	if len(s) > inx {
		return s[inx]
	}
	return ""
}

func (op *Op) hasArg() (string, bool) {
	if op.arg == "" {
		return "", false
	}
	return op.arg, true
}
