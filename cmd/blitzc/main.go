// blitzc - Blitz compiler CLI
// Compiles Blitz source files to x86-64 NASM assembly and, unless asked
// otherwise, assembles and links the result into an executable.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/blitz-lang/blitz/internal/build"
	"github.com/blitz-lang/blitz/internal/cli"
	"github.com/blitz-lang/blitz/internal/codegen"
	"github.com/blitz-lang/blitz/internal/lexer"
	"github.com/blitz-lang/blitz/internal/parser"
)

func main() {
	var (
		output      = flag.String("o", "", "Output base name (default: input name without extension)")
		run         = flag.Bool("r", false, "Run the produced executable after building")
		asmOnly     = flag.Bool("s", false, "Stop after emitting assembly, skip assembling and linking")
		targetName  = flag.String("target", codegen.HostTarget().String(), "Target platform (linux, windows)")
		watch       = flag.Bool("watch", false, "Watch the input file and recompile on change")
		configPath  = flag.String("config", "", "Configuration file path")
		verbose     = flag.Bool("verbose", false, "Enable verbose output")
		debug       = flag.Bool("debug", false, "Enable debug output")
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <input.blitz>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Blitz Compiler - compiles Blitz source to x86-64 assembly\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s main.blitz              # Compile and link main\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -r main.blitz           # Compile, link, and run\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -s -o out main.blitz    # Emit out.asm only\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --watch main.blitz      # Recompile on every save\n", os.Args[0])
	}

	flag.Parse()

	if *showVersion {
		cli.PrintVersion("Blitz Compiler (blitzc)")
		return
	}
	if *showHelp {
		flag.Usage()
		return
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	input := flag.Arg(0)

	config, err := cli.LoadConfig(*configPath)
	if err != nil {
		cli.ExitWithError("%v", err)
	}
	logger := cli.NewLogger(*verbose || config.Verbose, *debug || config.Debug)

	target, err := codegen.ParseTarget(*targetName)
	if err != nil {
		cli.ExitWithError("%v", err)
	}

	if !strings.HasSuffix(input, ".blitz") {
		logger.Warn("input %s does not have a .blitz extension", input)
	}

	base := *output
	if base == "" {
		base = strings.TrimSuffix(input, filepath.Ext(input))
	}

	opts := compileOptions{
		input:   input,
		base:    base,
		target:  target,
		asmOnly: *asmOnly,
		run:     *run && !*watch,
		config:  config,
		logger:  logger,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *watch {
		logger.Info("watching %s", input)
		if err := compile(ctx, opts); err != nil {
			logger.Error("%v", err)
		}
		err := build.Watch(ctx, input, build.DefaultDebounce, func() {
			logger.Info("change detected, recompiling %s", input)
			if err := compile(ctx, opts); err != nil {
				logger.Error("%v", err)
			}
		})
		if err != nil && ctx.Err() == nil {
			cli.ExitWithError("%v", err)
		}
		return
	}

	if err := compile(ctx, opts); err != nil {
		cli.ExitWithError("%v", err)
	}
}

type compileOptions struct {
	input   string
	base    string
	target  codegen.Target
	asmOnly bool
	run     bool
	config  *cli.Config
	logger  *cli.Logger
}

// compile runs the full pipeline for one input file: lex, parse, generate,
// then optionally assemble, link, and run.
func compile(ctx context.Context, opts compileOptions) error {
	logger := opts.logger

	source, err := os.ReadFile(opts.input)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", opts.input, err)
	}

	logger.Debug("lexing %s (%d bytes)", opts.input, len(source))
	tokens, err := lexer.NewWithFilename(string(source), opts.input).Tokenize()
	if err != nil {
		return err
	}

	logger.Debug("parsing %d tokens", len(tokens))
	program, err := parser.New(tokens).Parse()
	if err != nil {
		return err
	}

	logger.Debug("generating %s assembly", opts.target)
	asm, err := codegen.NewGenerator(opts.target).Generate(program)
	if err != nil {
		return err
	}

	asmPath := opts.base + ".asm"
	if err := os.WriteFile(asmPath, []byte(asm), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", asmPath, err)
	}
	logger.Info("wrote %s", asmPath)

	if opts.asmOnly {
		return nil
	}

	tc, err := build.Find(ctx, opts.target)
	if err != nil {
		return err
	}
	if opts.config.Assembler != "" {
		tc.Assembler = opts.config.Assembler
	}
	if opts.config.Linker != "" {
		tc.Linker = opts.config.Linker
	}
	logger.Debug("assembler %s (%s), linker %s", tc.Assembler, tc.AssemblerVersion, tc.Linker)

	objPath, exePath := build.OutputPaths(opts.base, opts.target)
	if err := tc.Assemble(ctx, opts.target, asmPath, objPath); err != nil {
		return err
	}
	if err := tc.Link(ctx, opts.target, objPath, exePath); err != nil {
		return err
	}
	logger.Info("built %s", exePath)

	if opts.run {
		if opts.target != codegen.HostTarget() {
			return fmt.Errorf("cannot run %s executable on %s host", opts.target, codegen.HostTarget())
		}
		code, err := build.Run(ctx, exePath)
		if err != nil {
			return err
		}
		fmt.Printf("%s exited with code %d\n", filepath.Base(exePath), code)
	}
	return nil
}
