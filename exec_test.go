package main

import (
	"context"
	"reflect"
	"strings"
	"testing"
)

func TestExecRunner(t *testing.T) {
	res := execRunner{}.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo converted; echo 'warning: slice gap' >&2; exit 3"},
	})
	if res.ExitCode != 3 || res.Err != nil || !res.Failed() {
		t.Errorf("result = %+v", res)
	}
	if strings.TrimSpace(res.Stdout) != "converted" {
		t.Errorf("stdout = %q", res.Stdout)
	}
	if tail := res.Tail(5); !reflect.DeepEqual(tail, []string{"warning: slice gap"}) {
		t.Errorf("tail = %v", tail)
	}

	res = execRunner{}.Run(context.Background(), Command{Name: "seegprep-no-such-tool"})
	if res.ExitCode != -1 || res.Err == nil {
		t.Errorf("missing tool result = %+v", res)
	}
}

func TestResultTail(t *testing.T) {
	res := Result{Stderr: "a\nb\nc\nd\n"}
	if got := res.Tail(2); !reflect.DeepEqual(got, []string{"c", "d"}) {
		t.Errorf("Tail(2) = %v", got)
	}
	res = Result{Stdout: "only stdout\n"}
	if got := res.Tail(2); !reflect.DeepEqual(got, []string{"only stdout"}) {
		t.Errorf("stdout fallback = %v", got)
	}
	if got := (Result{}).Tail(3); got != nil {
		t.Errorf("empty tail = %v", got)
	}
	if (Result{}).Failed() {
		t.Error("zero result should not be failed")
	}
}

func TestCommandString(t *testing.T) {
	cfg := DefaultConfig()
	c := dcm2niixCommand(&cfg, "P001_CTA_Angio", "/out/P001/CTA", "/in/P001/S3")
	if got := c.String(); got != "dcm2niix -b n -z y -d 0 -f P001_CTA_Angio -o /out/P001/CTA /in/P001/S3" {
		t.Errorf("command = %s", got)
	}

	cfg.RecursiveScan = true
	c = dcm2niixCommand(&cfg, "P001_CTA_Angio", "/out/P001/CTA", "/in/P001/S3")
	if got := argAfter(c.Args, "-d"); got != "9" {
		t.Errorf("recursive search depth = %q, want 9", got)
	}
}
