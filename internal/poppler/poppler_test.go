package poppler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type call struct {
	name string
	args []string
}

type stubRunner struct {
	calls  []call
	stdout string
	stderr string
	err    error
	// onRun lets a test produce side effects such as output files.
	onRun func(args []string)
}

func (s *stubRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, call{name: name, args: args})
	if s.onRun != nil {
		s.onRun(args)
	}
	return []byte(s.stdout), []byte(s.stderr), s.err
}

func TestTextForPageArgs(t *testing.T) {
	run := &stubRunner{stdout: "Name: Jane Roe\n"}
	tools := New(Config{PdftotextBinary: "/opt/poppler/pdftotext"}, run)

	got, err := tools.TextForPage(context.Background(), "/tmp/in.pdf", 3)
	if err != nil {
		t.Fatalf("TextForPage: %v", err)
	}
	if got != "Name: Jane Roe\n" {
		t.Fatalf("text = %q", got)
	}
	if len(run.calls) != 1 || run.calls[0].name != "/opt/poppler/pdftotext" {
		t.Fatalf("calls = %+v", run.calls)
	}
	want := "-f 3 -l 3 -layout -nopgbrk -enc UTF-8 /tmp/in.pdf -"
	if args := strings.Join(run.calls[0].args, " "); args != want {
		t.Fatalf("args = %q, want %q", args, want)
	}
}

func TestTextForPageRejectsBadPage(t *testing.T) {
	tools := New(Config{}, &stubRunner{})
	if _, err := tools.TextForPage(context.Background(), "x.pdf", 0); err == nil {
		t.Fatal("expected error for page 0")
	}
}

func TestRenderPage(t *testing.T) {
	dir := t.TempDir()
	run := &stubRunner{onRun: func(args []string) {
		prefix := args[len(args)-1]
		_ = os.WriteFile(prefix+".png", []byte("png"), 0o600)
	}}
	tools := New(Config{DPI: 300}, run)

	out, err := tools.RenderPage(context.Background(), "/tmp/in.pdf", 2, dir)
	if err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	if out != filepath.Join(dir, "page-0002.png") {
		t.Fatalf("out = %q", out)
	}
	args := strings.Join(run.calls[0].args, " ")
	for _, want := range []string{"-r 300", "-gray", "-png", "-f 2 -l 2", "-singlefile"} {
		if !strings.Contains(args, want) {
			t.Fatalf("args %q missing %q", args, want)
		}
	}
}

func TestRenderPageMissingOutput(t *testing.T) {
	tools := New(Config{}, &stubRunner{})
	if _, err := tools.RenderPage(context.Background(), "/tmp/in.pdf", 1, t.TempDir()); err == nil {
		t.Fatal("expected error when pdftoppm writes nothing")
	}
}

func TestClassifyPopplerErrors(t *testing.T) {
	exitErr := errors.New("exit status 1")
	tests := []struct {
		name   string
		stderr string
		err    error
		want   error
	}{
		{"password", "Command Line Error: Incorrect password", exitErr, ErrPasswordProtected},
		{"damaged", "Syntax Error: Couldn't find trailer dictionary", exitErr, ErrDamaged},
		{"output cap", "", ErrOutputLimit, ErrOutputLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tools := New(Config{}, &stubRunner{stderr: tt.stderr, err: tt.err})
			_, err := tools.TextForPage(context.Background(), "x.pdf", 1)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClassifyUsageDumpIsNotDamage(t *testing.T) {
	stderr := "pdftoppm version 24.02.0\nUsage: pdftoppm [options] PDF-file [PPM-file-prefix]\n  -r : Syntax Error resolution"
	tools := New(Config{}, &stubRunner{stderr: stderr, err: errors.New("exit status 99")})

	_, err := tools.RenderPage(context.Background(), "x.pdf", 1, t.TempDir())
	if err == nil || errors.Is(err, ErrDamaged) {
		t.Fatalf("err = %v, want bad invocation", err)
	}
	if !strings.Contains(err.Error(), "bad invocation") {
		t.Fatalf("err = %v", err)
	}
}

func TestClassifyTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	tools := New(Config{}, &stubRunner{err: errors.New("signal: killed")})
	_, err := tools.TextForPage(ctx, "x.pdf", 4)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want timeout", err)
	}
}

func TestPageCountRejectsNonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	if err := os.WriteFile(path, []byte("definitely not a pdf"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := New(Config{}, nil).PageCount(path); err == nil {
		t.Fatal("expected error for garbage input")
	}
}

func TestValidatePages(t *testing.T) {
	for _, n := range []int{0, -1, maxReasonablePages + 1} {
		if _, err := validatePages(n); !errors.Is(err, ErrDamaged) {
			t.Fatalf("validatePages(%d) = %v", n, err)
		}
	}
	if n, err := validatePages(7); err != nil || n != 7 {
		t.Fatalf("validatePages(7) = %d, %v", n, err)
	}
}
