// gtest runs gclean over a directory of C files and compares what it prints
// against recorded golden files.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
)

type Execution struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"duration"`
	TimedOut bool          `json:"timed_out"`
}

// Golden is the recorded behavior of gclean on one source file.
type Golden struct {
	SourceHash string    `json:"source_hash"`
	Args       []string  `json:"args,omitempty"`
	Result     Execution `json:"result"`
}

type FileTestResult struct {
	File    string     `json:"file"`
	Status  string     `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message string     `json:"message,omitempty"`
	Diff    string     `json:"diff,omitempty"`
	Target  *Execution `json:"target,omitempty"`
}

var (
	targetCompiler = flag.String("target-compiler", "./gclean", "Path to the gclean binary to test.")
	targetArgs     = flag.String("target-args", "--dump", "Arguments for gclean (space-separated).")
	generateGolden = flag.Bool("generate-golden", false, "Record golden files instead of comparing against them.")
	testFiles      = flag.String("test-files", "testdata/*.c", "Glob pattern(s) for files to test (space-separated).")
	skipFiles      = flag.String("skip-files", "", "Files to skip (space-separated).")
	outputJSON     = flag.String("output", ".test_results.json", "Output file for the JSON test report.")
	timeout        = flag.Duration("timeout", 5*time.Second, "Timeout for each gclean run.")
	jobs           = flag.Int("j", 4, "Number of parallel test jobs.")
	verbose        = flag.Bool("v", false, "Enable verbose logging.")
	jsonDir        = flag.String("dir", "", "Directory to store/read golden JSON files (defaults to source file dir).")
)

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cCyan   = "\x1b[96m"
	cBold   = "\x1b[1m"
	cNone   = "\x1b[0m"
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	files, err := expandGlobPatterns(*testFiles)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
	}
	if len(files) == 0 {
		log.Println("No test files found matching the pattern(s).")
		return
	}

	results := runAll(files)
	printSummary(results)
	if err := writeJSONReport(results); err != nil {
		log.Printf("%s[WARN]%s Could not write report: %v\n", cYellow, cNone, err)
	}
	for _, r := range results {
		if r.Status == "FAIL" || r.Status == "ERROR" {
			os.Exit(1)
		}
	}
}

func getJSONPath(sourceFile string) string {
	name := "." + filepath.Base(sourceFile) + ".json"
	if *jsonDir != "" {
		return filepath.Join(*jsonDir, name)
	}
	return filepath.Join(filepath.Dir(sourceFile), name)
}

// hashFile computes the xxhash of a file's content
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

func runAll(files []string) []*FileTestResult {
	skipList := make(map[string]bool)
	for _, f := range strings.Fields(*skipFiles) {
		skipList[f] = true
	}

	tasks := make(chan string, len(files))
	resultsChan := make(chan *FileTestResult, len(files))
	var wg sync.WaitGroup

	for i := 0; i < max(*jobs, 1); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range tasks {
				resultsChan <- testFile(file)
			}
		}()
	}

	// identical sources would only repeat the same run
	seenHashes := make(map[string]string)
	for _, file := range files {
		if skipList[file] {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: "Explicitly skipped"}
			continue
		}
		fileHash, err := hashFile(file)
		if err != nil {
			resultsChan <- &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to read file for hashing: %v", err)}
			continue
		}
		if original, seen := seenHashes[fileHash]; seen {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: fmt.Sprintf("Content is identical to %s", original)}
			continue
		}
		seenHashes[fileHash] = file
		tasks <- file
	}
	close(tasks)
	wg.Wait()
	close(resultsChan)

	var results []*FileTestResult
	for r := range resultsChan {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].File < results[j].File })
	return results
}

func execute(ctx context.Context, args []string) Execution {
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, *targetCompiler, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	start := time.Now()
	err := cmd.Run()
	res := Execution{Stdout: stdout.String(), Stderr: stderr.String(), Duration: time.Since(start)}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.TimedOut, res.ExitCode = true, -1
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	case err != nil:
		res.Stderr += err.Error()
		res.ExitCode = -1
	}
	return res
}

func testFile(file string) *FileTestResult {
	fileHash, err := hashFile(file)
	if err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: err.Error()}
	}
	args := append(strings.Fields(*targetArgs), file)
	if *verbose {
		log.Printf("%s[RUN]%s %s %s\n", cCyan, cNone, *targetCompiler, strings.Join(args, " "))
	}
	got := execute(context.Background(), args)

	goldenFile := getJSONPath(file)
	if *generateGolden {
		data, err := json.MarshalIndent(Golden{SourceHash: fileHash, Args: args[:len(args)-1], Result: got}, "", "  ")
		if err == nil {
			err = os.WriteFile(goldenFile, data, 0o644)
		}
		if err != nil {
			return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Could not write golden file: %v", err)}
		}
		return &FileTestResult{File: file, Status: "PASS", Message: "Golden file written", Target: &got}
	}

	data, err := os.ReadFile(goldenFile)
	if err != nil {
		return &FileTestResult{File: file, Status: "SKIP", Message: "Cannot test without a corresponding .json golden file"}
	}
	var golden Golden
	if err := json.Unmarshal(data, &golden); err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Could not parse golden file %s: %v", goldenFile, err)}
	}
	return compare(file, fileHash, &golden, &got)
}

func compare(file, fileHash string, golden *Golden, got *Execution) *FileTestResult {
	res := &FileTestResult{File: file, Status: "PASS", Target: got}
	if got.TimedOut {
		res.Status, res.Message = "FAIL", "gclean timed out"
		return res
	}

	var diffs strings.Builder
	if d := cmp.Diff(golden.Result.Stdout, got.Stdout); d != "" {
		fmt.Fprintf(&diffs, "STDOUT (-want +got):\n%s", d)
	}
	if d := cmp.Diff(golden.Result.Stderr, got.Stderr); d != "" {
		fmt.Fprintf(&diffs, "STDERR (-want +got):\n%s", d)
	}
	if golden.Result.ExitCode != got.ExitCode {
		fmt.Fprintf(&diffs, "Exit code: want %d, got %d\n", golden.Result.ExitCode, got.ExitCode)
	}
	if diffs.Len() > 0 {
		res.Status, res.Message, res.Diff = "FAIL", "Output differs from golden file", diffs.String()
		if golden.SourceHash != fileHash {
			res.Message += " (source changed since it was recorded)"
		}
	}
	return res
}

func expandGlobPatterns(patterns string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	for _, pattern := range strings.Fields(patterns) {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files, nil
}

func printSummary(results []*FileTestResult) {
	counts := make(map[string]int)
	for _, r := range results {
		counts[r.Status]++
		color := cGreen
		switch r.Status {
		case "FAIL", "ERROR":
			color = cRed
		case "SKIP":
			color = cYellow
		}
		if r.Status == "PASS" && !*verbose {
			continue
		}
		fmt.Printf("%s[%s]%s %s", color, r.Status, cNone, r.File)
		if r.Message != "" {
			fmt.Printf(": %s", r.Message)
		}
		fmt.Println()
		if r.Diff != "" {
			fmt.Println(r.Diff)
		}
	}
	fmt.Printf("\n%s%d passed, %d failed, %d errors, %d skipped%s\n",
		cBold, counts["PASS"], counts["FAIL"], counts["ERROR"], counts["SKIP"], cNone)
}

func writeJSONReport(results []*FileTestResult) error {
	report := make(map[string]*FileTestResult, len(results))
	for _, r := range results {
		report[r.File] = r
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	path := *outputJSON
	if *jsonDir != "" {
		path = filepath.Join(*jsonDir, *outputJSON)
	}
	return os.WriteFile(path, data, 0o644)
}
