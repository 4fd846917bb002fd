// usaol - structured audio orchestra player
//
// Compiles a SAOL-like orchestra and plays a score against it, either
// into a WAV file or on the default audio device.
// Uses manual argument parsing to match the style of the other tools.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/kolkov/usaol"
)

// version is set by GoReleaser at build time via -ldflags.
// For development builds, it will be "dev".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	shortUsage = "usage: usaol [-o out.wav] [-bits N] [-srate N] [-krate N] [-realtime] orchestra [score]"
	longUsage  = `Arguments:
  orchestra         orchestra source file
  score             score file (default: standard input, or "-")

Output:
  -o file           render into a WAV file instead of the audio device
  -bits N           WAV sample size: 16, 24 or 32 (default 16)
  -buffer N         device buffer size in frames (default 512)

Playback:
  -srate N          override the orchestra sampling rate
  -krate N          override the orchestra control rate
  -realtime         feed the score while playing (default for the device)

Debugging arguments:
  -d                print the parsed orchestra to stderr and exit
  -da [pattern]     print unit assembly to stderr and exit; pattern
                    selects instruments by regular expression

Other:
  -h, --help        show this help message
  -version          show usaol version and exit
`
)

//nolint:gocyclo,funlen // CLI argument parsing is inherently complex
func main() {
	outPath := ""
	bits := 16
	frames := 512
	srate := 0
	krate := 0
	realtime := false
	debug := false
	debugAsm := false
	asmPattern := ""

	intArg := func(name, value string) int {
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			errorExitf("invalid value for %s: %s", name, value)
		}
		return n
	}

	var i int
	for i = 1; i < len(os.Args); i++ {
		// Stop on explicit end of args or first arg not prefixed with "-"
		arg := os.Args[i]
		if arg == "--" {
			i++
			break
		}
		if arg == "-" || !strings.HasPrefix(arg, "-") {
			break
		}

		switch arg {
		case "-o":
			if i+1 >= len(os.Args) {
				errorExitf("flag needs an argument: -o")
			}
			i++
			outPath = os.Args[i]
		case "-bits", "-buffer", "-srate", "-krate":
			if i+1 >= len(os.Args) {
				errorExitf("flag needs an argument: %s", arg)
			}
			i++
			n := intArg(arg, os.Args[i])
			switch arg {
			case "-bits":
				bits = n
			case "-buffer":
				frames = n
			case "-srate":
				srate = n
			case "-krate":
				krate = n
			}
		case "-realtime":
			realtime = true
		case "-d":
			debug = true
		case "-da":
			debugAsm = true
			// An optional pattern follows when more than the orchestra
			// file remains.
			if i+2 < len(os.Args) && !strings.HasPrefix(os.Args[i+1], "-") {
				i++
				asmPattern = os.Args[i]
			}
		case "-h", "--help":
			fmt.Printf("%s\n\n%s", shortUsage, longUsage)
			os.Exit(0)
		case "-version", "--version":
			fmt.Printf("usaol %s (commit: %s, built: %s)\n", version, commit, date)
			os.Exit(0)
		default:
			switch {
			case strings.HasPrefix(arg, "-o"):
				outPath = arg[2:]
			default:
				errorExitf("flag provided but not defined: %s", arg)
			}
		}
	}

	args := os.Args[i:]
	if len(args) < 1 || len(args) > 2 {
		errorExitf("%s", shortUsage)
	}

	src, err := os.ReadFile(args[0])
	if err != nil {
		errorExitf("cannot read orchestra file %s: %v", args[0], err)
	}

	if debug {
		text, err := usaol.FormatSource(string(src))
		if err != nil {
			errorExit(err)
		}
		fmt.Fprint(os.Stderr, text)
		return
	}

	orch, err := usaol.Compile(string(src))
	if err != nil {
		var list usaol.ErrorList
		if errors.As(err, &list) {
			for _, e := range list {
				fmt.Fprintf(os.Stderr, "usaol: %s: %v\n", args[0], e)
			}
			os.Exit(1)
		}
		errorExit(err)
	}

	if debugAsm {
		names := orch.Instruments()
		if asmPattern != "" {
			names, err = orch.Match(asmPattern)
			if err != nil {
				errorExit(err)
			}
		}
		fmt.Fprint(os.Stderr, orch.Disassemble(names...))
		return
	}

	// Open the score
	var score io.Reader = os.Stdin
	scoreName := "<stdin>"
	if len(args) == 2 && args[1] != "-" {
		f, err := os.Open(args[1])
		if err != nil {
			errorExitf("cannot open score file %s: %v", args[1], err)
		}
		defer f.Close()
		score = f
		scoreName = args[1]
	}

	rate := orch.SampleRate()
	if srate > 0 {
		rate = srate
	}

	var out usaol.Sink
	if outPath != "" {
		out, err = orch.CreateWAV(outPath, rate, bits)
	} else {
		out, err = orch.OpenDevice(rate, frames)
		realtime = true
	}
	if err != nil {
		errorExit(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	config := &usaol.Config{
		SRate:     srate,
		KRate:     krate,
		Realtime:  realtime,
		ScoreName: scoreName,
		OnScoreError: func(err error) {
			fmt.Fprintf(os.Stderr, "usaol: %v\n", err)
		},
		OnRuntimeError: func(err error) {
			fmt.Fprintf(os.Stderr, "usaol: %v\n", err)
		},
	}
	if err := orch.Play(ctx, score, out, config); err != nil && ctx.Err() == nil {
		errorExit(err)
	}
}

// errorExitf prints formatted error message and exits with code 1
func errorExitf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "usaol: "+format+"\n", args...)
	os.Exit(1)
}

// errorExit prints error and exits with code 1
func errorExit(err error) {
	fmt.Fprintf(os.Stderr, "usaol: %v\n", err)
	os.Exit(1)
}
