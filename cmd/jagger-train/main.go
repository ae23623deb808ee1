// Command jagger-train compiles a tagged training corpus and zero or more
// CSV dictionaries into the four compiled-model artifacts jagger-tag
// loads.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/npillmayer/schuko/tracing"

	"github.com/ynaga-jagger/jagger/pattern"
)

const usage = `usage: jagger-train -m DIR [-d CSV]... [-u CSV]... CORPUS

  -m DIR  output directory for the compiled model (required)
  -d CSV  system dictionary, repeatable; seeded before CORPUS is mined
  -u CSV  user dictionary, repeatable; seeded after every -d dictionary
`

// csvList collects repeated -d/-u flag occurrences in the order given.
type csvList []string

func (l *csvList) String() string { return fmt.Sprint([]string(*l)) }
func (l *csvList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	modelDir := flag.String("m", "", "output model directory")
	var systemDicts, userDicts csvList
	flag.Var(&systemDicts, "d", "system dictionary CSV (repeatable)")
	flag.Var(&userDicts, "u", "user dictionary CSV (repeatable)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if *modelDir == "" || flag.NArg() != 1 {
		fmt.Fprint(os.Stderr, usage)
		return 1
	}
	corpusPath := flag.Arg(0)

	tr := tracing.Select("jagger/cmd")

	b := pattern.NewBuilder()
	for _, path := range systemDicts {
		if err := b.SeedDictionary(path); err != nil {
			fmt.Fprintln(os.Stderr, "jagger-train:", err)
			return 1
		}
	}
	for _, path := range userDicts {
		if err := b.SeedDictionary(path); err != nil {
			fmt.Fprintln(os.Stderr, "jagger-train:", err)
			return 1
		}
	}
	b.SeedLiterals()
	b.FinishSeeding()

	corpus, err := os.Open(corpusPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "jagger-train:", err)
		return 1
	}
	defer corpus.Close()

	if err := b.Mine(corpus); err != nil {
		fmt.Fprintln(os.Stderr, "jagger-train:", err)
		return 1
	}
	if err := b.Prune(); err != nil {
		fmt.Fprintln(os.Stderr, "jagger-train:", err)
		return 1
	}
	w, err := b.Compile()
	if err != nil {
		fmt.Fprintln(os.Stderr, "jagger-train:", err)
		return 1
	}

	if err := os.MkdirAll(*modelDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, "jagger-train:", err)
		return 1
	}
	if err := w.WriteTo(*modelDir + "/patterns"); err != nil {
		fmt.Fprintln(os.Stderr, "jagger-train:", err)
		return 1
	}
	tr.Infof("model written to %s", *modelDir)
	return 0
}
