package skills

import (
	"flag"
	"io"
	"strconv"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/skill"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// parseArgs parses flags anywhere in args and returns the positional
// arguments in order. Everything after "--" is positional, and so is any
// token that reads as a negative number ("-1", "-2.5").
func parseArgs(fs *flag.FlagSet, usage string, args []string) ([]string, error) {
	var positional []string
	for {
		err := fs.Parse(args)
		consumed := len(args) - fs.NArg()
		rest := fs.Args()
		if err != nil {
			// The flag package has already dropped the offending token.
			if consumed > 0 && isNegativeNumber(args[consumed-1]) {
				positional = append(positional, args[consumed-1])
				args = rest
				continue
			}
			return nil, skill.Usagef("%v\nusage: %s", err, usage)
		}
		if consumed > 0 && args[consumed-1] == "--" {
			return append(positional, rest...), nil
		}
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

func isNegativeNumber(s string) bool {
	if len(s) < 2 || s[0] != '-' {
		return false
	}
	if c := s[1]; c != '.' && (c < '0' || c > '9') {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
