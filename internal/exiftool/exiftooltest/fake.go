// Package exiftooltest provides a stand-in for the exiftool executable so
// tests can drive real child processes without exiftool installed.
//
// The fake lives in the test binary itself. A test package hooks it up from
// TestMain:
//
//	func TestMain(m *testing.M) {
//		exiftooltest.MaybeRun()
//		os.Exit(m.Run())
//	}
//
// and launches the tool with the path and arguments from Command.
//
// Tags are kept in a JSON sidecar next to each file. Writing tags bumps the
// file's modification time like the real tool does. Files whose base name
// starts with "crash" make the fake exit halfway through a response, and
// files starting with "dup" produce a dump with a repeated tag name.
package exiftooltest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const helperFlag = "-fixexif-fake-exiftool"

// LogEnv names an environment variable holding a file the fake appends
// every executed batch to, one line per batch.
const LogEnv = "FIXEXIF_FAKE_EXIFTOOL_LOG"

// idleLimit stops an orphaned stay-open fake.
const idleLimit = 30 * time.Second

// Command returns the executable and leading arguments that start the fake.
func Command() (path string, args []string) {
	return os.Args[0], []string{helperFlag}
}

// MaybeRun runs the fake and exits when the current process was started
// through Command. Otherwise it returns immediately.
func MaybeRun() {
	if len(os.Args) < 2 || os.Args[1] != helperFlag {
		return
	}
	os.Exit(run(os.Args[2:], os.Stdout, os.Stderr))
}

// SidecarPath returns where the fake stores the tags of path.
func SidecarPath(path string) string {
	return path + ".tags.json"
}

// WriteTags replaces the stored tags of path.
func WriteTags(path string, tags map[string]string) error {
	data, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	return os.WriteFile(SidecarPath(path), data, 0o644)
}

// ReadTags returns the stored tags of path. A file without a sidecar has no tags.
func ReadTags(path string) (map[string]string, error) {
	data, err := os.ReadFile(SidecarPath(path))
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	tags := map[string]string{}
	if err := json.Unmarshal(data, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	switch {
	case len(args) == 4 && args[0] == "-stay_open" && strings.EqualFold(args[1], "true") && args[2] == "-@":
		return stayOpen(args[3], stdout, stderr)
	case len(args) == 2 && args[0] == "-@":
		data, err := os.ReadFile(args[1])
		if err != nil {
			fmt.Fprintf(stderr, "Error opening arg file %s\n", args[1])
			return 1
		}
		return script(strings.Split(string(data), "\n"), stdout, stderr)
	default:
		return execute(args, stdout, stderr)
	}
}

// script runs a complete argument file in one pass.
func script(lines []string, stdout, stderr io.Writer) int {
	status := 0
	var batch []string
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		if isExecute(line) {
			if execute(batch, stdout, stderr) != 0 {
				status = 1
			}
			fmt.Fprintf(stdout, "{ready%s}\n", line[len("-execute"):])
			batch = nil
			continue
		}
		batch = append(batch, line)
	}
	if len(batch) > 0 && execute(batch, stdout, stderr) != 0 {
		status = 1
	}
	return status
}

// stayOpen polls the argument file for new complete lines until told to stop.
func stayOpen(path string, stdout, stderr io.Writer) int {
	var (
		offset   int64
		partial  string
		batch    []string
		stopping bool
		lastData = time.Now()
	)
	for {
		data, err := readFrom(path, offset)
		if errors.Is(err, os.ErrNotExist) {
			return 0
		}
		if err != nil {
			fmt.Fprintf(stderr, "Error reading %s: %v\n", path, err)
			return 1
		}
		if len(data) == 0 {
			if time.Since(lastData) > idleLimit {
				return 1
			}
			time.Sleep(5 * time.Millisecond)
			continue
		}
		lastData = time.Now()
		offset += int64(len(data))

		lines := strings.Split(partial+string(data), "\n")
		partial = lines[len(lines)-1]
		for _, line := range lines[:len(lines)-1] {
			line = strings.TrimRight(line, "\r")
			switch {
			case line == "-stay_open":
				stopping = true
			case stopping && strings.EqualFold(line, "false"):
				return 0
			case isExecute(line):
				execute(batch, stdout, stderr)
				fmt.Fprintf(stdout, "{ready%s}\n", line[len("-execute"):])
				batch = nil
				stopping = false
			default:
				stopping = false
				batch = append(batch, line)
			}
		}
	}
}

func readFrom(path string, offset int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(f)
}

func isExecute(arg string) bool {
	if !strings.HasPrefix(arg, "-execute") {
		return false
	}
	for _, r := range arg[len("-execute"):] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// execute runs one batch: tag assignments are written to every named file,
// otherwise every named file is dumped as "Name: Value" lines.
func execute(batch []string, stdout, stderr io.Writer) int {
	logBatch(batch)

	var files []string
	var sets [][2]string
	for _, arg := range batch {
		switch {
		case strings.HasPrefix(arg, "-") && strings.Contains(arg, "="):
			name, value, _ := strings.Cut(arg[1:], "=")
			sets = append(sets, [2]string{name, value})
		case strings.HasPrefix(arg, "-"):
			// Options such as -S, -fast and -overwrite_original_in_place.
		default:
			files = append(files, arg)
		}
	}

	status := 0
	updated := 0
	for _, file := range files {
		base := filepath.Base(file)
		if strings.HasPrefix(base, "crash") {
			fmt.Fprintf(stdout, "FileName: %s\n", base)
			os.Exit(3)
		}
		if _, err := os.Stat(file); err != nil {
			fmt.Fprintf(stderr, "Error: File not found - %s\n", file)
			status = 1
			continue
		}
		tags, err := ReadTags(file)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v - %s\n", err, file)
			status = 1
			continue
		}

		if len(sets) > 0 {
			for _, kv := range sets {
				tags[kv[0]] = kv[1]
			}
			if err := WriteTags(file, tags); err != nil {
				fmt.Fprintf(stderr, "Error: %v - %s\n", err, file)
				status = 1
				continue
			}
			now := time.Now()
			os.Chtimes(file, now, now)
			updated++
			continue
		}

		fmt.Fprintln(stdout, "ExifToolVersion: 12.76")
		fmt.Fprintf(stdout, "FileName: %s\n", base)
		names := make([]string, 0, len(tags))
		for name := range tags {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(stdout, "%s: %s\n", name, tags[name])
		}
		if strings.HasPrefix(base, "dup") {
			fmt.Fprintf(stdout, "FileName: %s\n", base)
		}
	}
	if len(sets) > 0 {
		fmt.Fprintf(stdout, "    %d image files updated\n", updated)
	}
	return status
}

func logBatch(batch []string) {
	path := os.Getenv(LogEnv)
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintln(f, strings.Join(batch, " "))
}

// Batches returns the batches recorded in the log file at path.
func Batches(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if line != "" {
			out = append(out, line)
		}
	}
	return out, nil
}
