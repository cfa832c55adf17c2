package main

import (
	"bufio"
	"context"
	"fmt"
	"regexp"
	"strings"
)

// dcmdumpTagReader reads tags through the DCMTK dumper. Searching with +sp
// prefixes every printed tag with its sequence hierarchy and +s prints every
// occurrence, so the path is matched exactly and top-level and nested
// occurrences stay apart.
type dcmdumpTagReader struct {
	bin    string
	runner Runner
}

// (0062,0002).(0062,0005) LO [Electrode A]     #  12, 1 SegmentLabel
var reDumpLine = regexp.MustCompile(`^((?:\([0-9a-fA-F]{4},[0-9a-fA-F]{4}\)\.?)+)\s+[A-Z]{2}\s+(.*)$`)

func (r *dcmdumpTagReader) Lookup(file string, path TagPath) TagResult {
	if len(path) == 0 {
		return NotPresent()
	}
	leaf := path[len(path)-1]
	res := r.runner.Run(context.Background(), Command{
		Name: r.bin,
		Args: []string{"-q", "+sp", "+s", "+P", fmt.Sprintf("%04x,%04x", leaf.Group, leaf.Element), file},
	})
	if res.Failed() {
		if res.Err != nil {
			return ReadError(res.Err)
		}
		return ReadError(fmt.Errorf("%s exited with code %d on %s", r.bin, res.ExitCode, file))
	}
	return parseDump(res.Stdout, path)
}

// parseDump picks the first line of dcmdump output whose hierarchy equals path.
func parseDump(out string, path TagPath) TagResult {
	want := strings.ToLower(path.String())
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		m := reDumpLine.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if m == nil || strings.ToLower(m[1]) != want {
			continue
		}
		value, ok := dumpValue(m[2])
		if !ok {
			return NotPresent()
		}
		return Found(value)
	}
	return NotPresent()
}

// dumpValue extracts the printed value, dropping the trailing "# len, vm name"
// comment. Strings come bracketed; numbers come bare.
func dumpValue(rest string) (string, bool) {
	if idx := strings.LastIndex(rest, "#"); idx >= 0 {
		rest = rest[:idx]
	}
	rest = strings.TrimSpace(rest)
	if rest == "" || strings.HasPrefix(rest, "(no value available)") {
		return "", false
	}
	if strings.HasPrefix(rest, "[") && strings.HasSuffix(rest, "]") {
		rest = strings.TrimSpace(rest[1 : len(rest)-1])
	}
	return rest, rest != ""
}
