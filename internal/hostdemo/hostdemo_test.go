package hostdemo

import (
	"bytes"
	"strings"
	"testing"

	"github.com/akadjoker/budiv/internal/compiler"
	"github.com/akadjoker/budiv/internal/vm"
)

const testDT = 0.02

func mustRun(t *testing.T, src string) (*vm.Interpreter, *bytes.Buffer) {
	t.Helper()
	prog, diags := compiler.Compile(src)
	if len(diags) != 0 {
		t.Fatalf("compile error for %q: %v", src, diags)
	}
	buf := &bytes.Buffer{}
	in := vm.New(prog)
	in.Stdout = buf
	Register(in)
	in.Start()
	return in, buf
}

func TestTrigNativesRoundTrip(t *testing.T) {
	in, buf := mustRun(t, `print(sin(0) + cos(0));`)
	in.Tick(testDT)
	got := strings.TrimSpace(buf.String())
	if got != "1.000000" {
		t.Fatalf("got %q, want %q", got, "1.000000")
	}
}

func TestExitNativeRequestsHostShutdown(t *testing.T) {
	in, _ := mustRun(t, `exit(3);`)
	_, stop := in.Tick(testDT)
	if !stop {
		t.Fatalf("exit() should request the host loop to stop")
	}
	if in.ExitValue() != 3 {
		t.Fatalf("want exit code 3, got %d", in.ExitValue())
	}
}

// TestSleepNativeDefersTheCallingProcess exercises Process.pauseForSeconds
// (§4.E) through the `sleep` native: a process that sleeps for longer than
// one frame_interval must not run its next frame() step on the very next
// tick.
func TestSleepNativeDefersTheCallingProcess(t *testing.T) {
	in, buf := mustRun(t, `
		process ticker() {
			loop {
				print("tick");
				sleep(1.0);
				frame(100);
			}
		}
		ticker();
	`)
	for i := 0; i < 4; i++ {
		in.Tick(testDT)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("want only 1 tick printed while the process sleeps through the other frames, got %d: %q", len(lines), buf.String())
	}
}
