// Command bgrep searches files line by line with the bounded backtracking
// regex engine. Several patterns may be given; they are compiled into one
// set and matched in a single pass per line.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/coregx/bounded"
)

var (
	pathColor = color.New(color.FgMagenta)
	lineColor = color.New(color.FgGreen)
	slotColor = color.New(color.FgCyan)
)

var cli struct {
	Pattern string   `arg:"" name:"pattern" help:"Regex pattern to search for."`
	Paths   []string `arg:"" optional:"" name:"path" help:"Files or directories to search." type:"path"`
	Extra   []string `short:"e" name:"regexp" help:"Additional patterns, matched as a set with the main pattern."`
	Slots   bool     `short:"s" help:"Print which patterns of the set matched each line."`
	NoColor bool     `help:"Disable colored output."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("bgrep"),
		kong.Description("Searches files for lines matching one or more regex patterns."),
		kong.UsageOnError(),
	)

	if cli.NoColor {
		color.NoColor = true
	}

	patterns := append([]string{cli.Pattern}, cli.Extra...)
	re, err := bounded.CompileSet(patterns)
	if err != nil {
		log.Fatalf("failed to compile patterns: %v", err)
	}

	if len(cli.Paths) == 0 {
		cli.Paths = []string{"."}
	}

	for _, path := range cli.Paths {
		info, err := os.Stat(path)
		if err != nil {
			log.Fatalf("%s: %v", path, err)
		}

		if info.IsDir() {
			err = searchDir(path, re)
		} else {
			err = searchFile(path, re)
		}
		if err != nil {
			log.Fatalf("%v", err)
		}
	}
}

func searchDir(root string, re *bounded.Regexp) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		return searchFile(path, re)
	})
}

func searchFile(path string, re *bounded.Regexp) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	matched := make([]bool, re.NumPatterns())

	printedHeader := false
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineno := 0
	for scanner.Scan() {
		lineno++
		clear(matched)
		ok, err := re.Match(scanner.Bytes(), matched)
		if err != nil {
			// A line past the engine's admission bound; skip it.
			if errors.Is(err, bounded.ErrTooLarge) {
				continue
			}
			return err
		}
		if !ok {
			continue
		}

		if !printedHeader {
			printedHeader = true
			fmt.Printf("%s\n", pathColor.Sprint(path))
		}
		if cli.Slots && re.NumPatterns() > 1 {
			fmt.Printf("%s:%s: %s\n", lineColor.Sprint(lineno), slotColor.Sprint(formatSlots(matched)), scanner.Text())
		} else {
			fmt.Printf("%s: %s\n", lineColor.Sprint(lineno), scanner.Text())
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if printedHeader {
		fmt.Println()
	}
	return nil
}

func formatSlots(matched []bool) string {
	out := ""
	for slot, ok := range matched {
		if !ok {
			continue
		}
		if out != "" {
			out += ","
		}
		out += fmt.Sprint(slot)
	}
	return out
}
