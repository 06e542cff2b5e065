package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	fortress "github.com/fortress-schema/fortress"
	"github.com/fortress-schema/fortress/schemafile"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	sub := os.Args[1]
	switch sub {
	case "check":
		checkCmd(os.Args[2:])
	case "compile":
		compileCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "fortress CLI\n\nUsage:\n  fortress check -schema schema.yaml -data data.json [-strict] [-unknown strict|strip|passthrough]\n  fortress compile -schema schema.yaml\n\nNotes:\n  - check validates a JSON document against a schema description.\n  - compile only precompiles the schema and reports its tier and signature.")
}

func checkCmd(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	schemaPath := fs.String("schema", "", "schema description file (.yaml/.yml/.json)")
	dataPath := fs.String("data", "", "JSON data file to validate")
	strict := fs.Bool("strict", false, "reject unrecognized type names at compile time")
	unknown := fs.String("unknown", "strict", "unknown-field policy: strict, strip or passthrough")
	maxNest := fs.Int("max-nesting", 0, "maximum conditional nesting depth (0 = default)")
	maxComp := fs.Int("max-depth", 0, "maximum object nesting depth (0 = default)")
	_ = fs.Parse(args)
	if *schemaPath == "" || *dataPath == "" {
		fs.Usage()
		os.Exit(2)
	}

	eng := newEngine(*strict, *unknown, *maxNest, *maxComp)
	desc, err := schemafile.FromFile(*schemaPath)
	if err != nil {
		fatalf("load schema: %v", err)
	}
	data, err := os.ReadFile(*dataPath)
	if err != nil {
		fatalf("load data: %v", err)
	}
	res, err := eng.ValidateJSON(desc, data)
	if err != nil {
		fatalf("compile schema: %v", err)
	}
	printIssues("warning", res.Warnings)
	if !res.OK {
		printIssues("error", res.Errors)
		os.Exit(1)
	}
	out, _ := json.MarshalIndent(res.Data, "", "  ")
	fmt.Println(string(out))
}

func compileCmd(args []string) {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	schemaPath := fs.String("schema", "", "schema description file (.yaml/.yml/.json)")
	strict := fs.Bool("strict", false, "reject unrecognized type names at compile time")
	_ = fs.Parse(args)
	if *schemaPath == "" {
		fs.Usage()
		os.Exit(2)
	}
	eng := newEngine(*strict, "strict", 0, 0)
	desc, err := schemafile.FromFile(*schemaPath)
	if err != nil {
		fatalf("load schema: %v", err)
	}
	v, err := eng.Precompile(desc)
	if err != nil {
		fatalf("compile schema: %v", err)
	}
	fmt.Printf("tier=%s signature=%s\n", v.Tier(), v.Signature())
}

func newEngine(strict bool, unknown string, maxNest, maxComp int) *fortress.Engine {
	opts := fortress.Options{
		StrictMode:          strict,
		MaxNestingDepth:     maxNest,
		MaxCompilationDepth: maxComp,
	}
	switch unknown {
	case "strip":
		opts.UnknownFields = fortress.UnknownStrip
	case "passthrough":
		opts.UnknownFields = fortress.UnknownPassthrough
	default:
		opts.UnknownFields = fortress.UnknownStrict
	}
	return fortress.New(opts)
}

func printIssues(kind string, iss fortress.Issues) {
	for _, it := range iss {
		if it.Hint != "" {
			fmt.Fprintf(os.Stderr, "%s %s: %s (%s)\n", kind, it.Path, it.Message, it.Hint)
			continue
		}
		fmt.Fprintf(os.Stderr, "%s %s: %s\n", kind, it.Path, it.Message)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
