// Command baretk is the thin command-line wrapper around the core
// decoder/lifter pipeline: it reads an input file, auto-detects its
// container format, and prints either a disassembly or a decompilation.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-baretk/baretk/container"
	"github.com/go-baretk/baretk/decomp"
	"github.com/go-baretk/baretk/disasm"
)

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "dis":
		runDis(os.Args[2:])
	case "decomp":
		runDecomp(os.Args[2:])
	case "help":
		usage()
	default:
		log.Printf("unknown command %q", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: baretk <command> [arguments]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  dis <in> [out]              disassemble")
	fmt.Fprintln(os.Stderr, "  decomp <in> [out] [-lang]   decompile (only pseudocode is implemented)")
	fmt.Fprintln(os.Stderr, "  help                        show this message")
}

func runDis(args []string) {
	fs := flag.NewFlagSet("dis", flag.ExitOnError)
	fs.Parse(args)
	in, out := fileArgs(fs)

	data, err := os.ReadFile(in)
	if err != nil {
		log.Fatalf("reading %s: %v", in, err)
	}
	p, err := container.Load(data)
	if err != nil {
		log.Fatalf("loading %s: %v", in, err)
	}
	d, err := disasm.Disassemble(p)
	if err != nil {
		log.Fatalf("disassembling %s: %v", in, err)
	}
	emit(d.Print(), out)
}

func runDecomp(args []string) {
	fs := flag.NewFlagSet("decomp", flag.ExitOnError)
	lang := fs.String("lang", "pseudo", "target language: c|pseudo (only pseudo is implemented)")
	fs.Parse(args)
	// -lang may also follow the positional arguments.
	var pos []string
	for fs.NArg() > 0 {
		pos = append(pos, fs.Arg(0))
		fs.Parse(fs.Args()[1:])
	}
	fs.Parse(pos)
	in, out := fileArgs(fs)

	if *lang != "pseudo" {
		log.Fatalf("unsupported -lang %q: only pseudo is implemented", *lang)
	}

	data, err := os.ReadFile(in)
	if err != nil {
		log.Fatalf("reading %s: %v", in, err)
	}
	p, err := container.Load(data)
	if err != nil {
		log.Fatalf("loading %s: %v", in, err)
	}
	dc, err := decomp.FromProgram(p)
	if err != nil {
		log.Fatalf("decompiling %s: %v", in, err)
	}
	emit(dc.Print(), out)
}

func fileArgs(fs *flag.FlagSet) (in, out string) {
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fmt.Fprintf(os.Stderr, "Usage: baretk %s <in> [out]\n", fs.Name())
		os.Exit(1)
	}
	in = fs.Arg(0)
	if fs.NArg() == 2 {
		out = fs.Arg(1)
	}
	return in, out
}

func emit(text, out string) {
	if out == "" {
		fmt.Println(text)
		return
	}
	if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
		log.Fatalf("writing %s: %v", out, err)
	}
	log.Printf("wrote %s", out)
}
