// Command jagger-tag analyzes UTF-8 text from standard input, writing
// either full morphological tags or bare segmentation to standard output.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/npillmayer/schuko/tracing"

	"github.com/ynaga-jagger/jagger/internal/model"
	"github.com/ynaga-jagger/jagger/tagger"
)

const usage = `usage: jagger-tag -m DIR [-w] [-c]

  -m DIR  directory holding the compiled model (DIR/patterns.{c2i,da,p2f,fs})
  -w      segmentation only: space-separated morphemes, no feature tags
  -c      force interactive (line-buffered) mode even off a terminal
  -h      this message
`

func main() {
	os.Exit(run())
}

func run() int {
	modelDir := flag.String("m", "", "model directory")
	segOnly := flag.Bool("w", false, "segmentation only")
	interactive := flag.Bool("c", false, "force interactive mode")
	help := flag.Bool("h", false, "usage")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if *help {
		fmt.Fprint(os.Stderr, usage)
		return 1
	}
	if *modelDir == "" {
		fmt.Fprint(os.Stderr, usage)
		return 1
	}

	m, err := model.Load(*modelDir + "/patterns")
	if err != nil {
		fmt.Fprintln(os.Stderr, "jagger-tag:", err)
		return 1
	}
	defer m.Close()

	mode := tagger.Tagging
	if *segOnly {
		mode = tagger.Segmentation
	}
	line := *interactive || isStdinTerminal()

	t := tagger.New(m, mode, line)
	if err := t.Run(os.Stdin, os.Stdout); err != nil {
		tracing.Select("jagger/cmd").Errorf("tagging failed: %v", err)
		fmt.Fprintln(os.Stderr, "jagger-tag:", err)
		return 1
	}
	return 0
}

func isStdinTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
