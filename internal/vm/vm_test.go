package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/akadjoker/budiv/internal/compiler"
	"github.com/akadjoker/budiv/internal/value"
)

func mustRun(t *testing.T, src string) (*Interpreter, *bytes.Buffer) {
	t.Helper()
	prog, diags := compiler.Compile(src)
	if len(diags) != 0 {
		t.Fatalf("compile error for %q: %v", src, diags)
	}
	buf := &bytes.Buffer{}
	in := New(prog)
	in.Stdout = buf
	in.Log = nil
	in.Start()
	return in, buf
}

// dt large enough to always clear the default 1/60s frame_interval in one
// host tick.
const testDT = 0.02

func TestArithmeticAndPrint(t *testing.T) {
	in, buf := mustRun(t, `print(1 + 2 * 3);`)
	in.Tick(testDT)
	got := strings.TrimSpace(buf.String())
	want := "7.000000"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestStringConcatenation(t *testing.T) {
	in, buf := mustRun(t, `print("foo" + "bar");`)
	in.Tick(testDT)
	got := strings.TrimSpace(buf.String())
	if got != "foobar" {
		t.Fatalf("got %q", got)
	}
}

// TestStringPlusNumberConcatenatesWithDecimalRendering is Scenario S2:
// `print("x=" + 5);` must print `x=5`, not `x=5.000000` and not a runtime
// error.
func TestStringPlusNumberConcatenatesWithDecimalRendering(t *testing.T) {
	in, buf := mustRun(t, `print("x=" + 5);`)
	errs, _ := in.Tick(testDT)
	if len(errs) != 0 {
		t.Fatalf("want no runtime error, got %v", errs)
	}
	got := strings.TrimSpace(buf.String())
	if got != "x=5" {
		t.Fatalf("got %q, want %q", got, "x=5")
	}
}

func TestNumberPlusStringConcatenatesWithDecimalRendering(t *testing.T) {
	in, buf := mustRun(t, `print(5 + "=x");`)
	in.Tick(testDT)
	got := strings.TrimSpace(buf.String())
	if got != "5=x" {
		t.Fatalf("got %q, want %q", got, "5=x")
	}
}

func TestAddingBoolAndNumberIsARuntimeError(t *testing.T) {
	in, _ := mustRun(t, `print(true + 1);`)
	errs, _ := in.Tick(testDT)
	if len(errs) != 1 {
		t.Fatalf("want 1 runtime error, got %d", len(errs))
	}
}

func TestDivisionByZeroIsARuntimeError(t *testing.T) {
	in, _ := mustRun(t, `print(1 / 0);`)
	errs, stop := in.Tick(testDT)
	if len(errs) != 1 {
		t.Fatalf("want 1 runtime error, got %d", len(errs))
	}
	if !stop {
		t.Fatalf("want the host loop to stop once no process remains")
	}
}

func TestFunctionCallAndReturn(t *testing.T) {
	in, buf := mustRun(t, `
		def add(a, b) { return a + b; }
		print(add(3, 4));
	`)
	in.Tick(testDT)
	got := strings.TrimSpace(buf.String())
	if got != "7.000000" {
		t.Fatalf("got %q", got)
	}
}

func TestRecursion(t *testing.T) {
	in, buf := mustRun(t, `
		def fact(n) {
			if (n <= 1) { return 1; }
			return n * fact(n - 1);
		}
		print(fact(5));
	`)
	in.Tick(testDT)
	got := strings.TrimSpace(buf.String())
	if got != "120.000000" {
		t.Fatalf("got %q", got)
	}
}

func TestWhileLoopAccumulates(t *testing.T) {
	in, buf := mustRun(t, `
		var i = 0;
		var sum = 0;
		while (i < 5) {
			sum += i;
			i += 1;
		}
		print(sum);
	`)
	in.Tick(testDT)
	got := strings.TrimSpace(buf.String())
	if got != "10.000000" {
		t.Fatalf("got %q", got)
	}
}

func TestLoopWithFrameYieldsOncePerHostFrame(t *testing.T) {
	in, buf := mustRun(t, `
		var counter = 0;
		loop {
			counter += 1;
			print(counter);
			frame(100);
		}
	`)
	for i := 0; i < 5; i++ {
		in.Tick(testDT)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("want 5 printed lines after 5 host frames, got %d: %q", len(lines), buf.String())
	}
	if lines[4] != "5.000000" {
		t.Fatalf("want the counter at 5 after 5 frames, got %q", lines[4])
	}
}

// TestSpawnedProcessOnlyBecomesVisibleNextFrame is Scenario S6: the root
// process may exit while a process it spawned keeps running, which must
// keep the host loop alive rather than stopping the moment `_main_` does.
func TestSpawnedProcessOnlyBecomesVisibleNextFrame(t *testing.T) {
	in, _ := mustRun(t, `
		process mover(speed) {
			frame(100);
		}
		mover(7);
	`)
	_, stop := in.Tick(testDT)
	if got := len(in.Processes()); got != 1 {
		t.Fatalf("after the spawning frame, want 1 process (root only), got %d", got)
	}
	if stop {
		t.Fatalf("root is still running after spawning, host loop must not stop yet")
	}

	_, stop = in.Tick(testDT)
	procs := in.Processes()
	if len(procs) != 1 {
		t.Fatalf("after the next frame, want 1 process (root reaped, child visible), got %d", len(procs))
	}
	child := procs[0]
	if child.IsRoot() {
		t.Fatalf("remaining process should be the spawned child, not root")
	}
	if child.X() != 360 || child.Y() != 2 || child.Angle() != 30 {
		t.Fatalf("want reserved locals seeded to 360/2/30, got x=%v y=%v angle=%v", child.X(), child.Y(), child.Angle())
	}
	if stop {
		t.Fatalf("root exited but the spawned child is still running, host loop must not stop")
	}
}

func TestKillProcessReportsHitAndMiss(t *testing.T) {
	in, _ := mustRun(t, `
		process mover(speed) {
			loop { frame(100); }
		}
		mover(1);
	`)
	in.Tick(testDT) // root spawns, child queued
	in.Tick(testDT) // child becomes visible and runs once

	procs := in.Processes()
	if len(procs) != 1 {
		t.Fatalf("want 1 live process, got %d", len(procs))
	}
	childID := procs[0].ID()

	if !in.KillProcess(childID) {
		t.Fatalf("killing a live process should report true")
	}
	if in.KillProcess(childID) {
		t.Fatalf("killing an already-dead process should report false")
	}
	if in.KillProcess(999999) {
		t.Fatalf("killing an unknown id should report false")
	}
}

func TestUndefinedGlobalIsARuntimeError(t *testing.T) {
	in, _ := mustRun(t, `print(doesNotExist);`)
	errs, _ := in.Tick(testDT)
	if len(errs) != 1 {
		t.Fatalf("want 1 runtime error, got %d", len(errs))
	}
}

func TestEqualityUsesNumberEpsilon(t *testing.T) {
	in, buf := mustRun(t, `print(1.0 == 1.01);`)
	in.Tick(testDT)
	got := strings.TrimSpace(buf.String())
	if got != "true" {
		t.Fatalf("want numbers within epsilon to compare equal, got %q", got)
	}
}

func TestNativeRegistrationAndCall(t *testing.T) {
	prog, diags := compiler.Compile(`print(double(21));`)
	if len(diags) != 0 {
		t.Fatalf("compile error: %v", diags)
	}
	buf := &bytes.Buffer{}
	in := New(prog)
	in.Stdout = buf
	in.RegisterNative("double", func(args []value.Value) value.Value {
		return value.Num(args[0].AsNumber() * 2)
	})
	in.Start()
	in.Tick(testDT)

	got := strings.TrimSpace(buf.String())
	if got != "42.000000" {
		t.Fatalf("got %q", got)
	}
}

// TestMaxProcessesCeilingTrapsExtraSpawns covers config.Scheduler's
// "max_processes" knob: once the ceiling of non-root processes is reached, a
// further spawn is a runtime error rather than being silently accepted or
// dropped. Each process-call yields the instant it spawns (§4.F), so the
// second `p()` statement only runs on the tick after the first child
// becomes visible on the run list.
func TestMaxProcessesCeilingTrapsExtraSpawns(t *testing.T) {
	prog, diags := compiler.Compile(`
		process p() { frame(100); }
		p();
		p();
	`)
	if len(diags) != 0 {
		t.Fatalf("compile error: %v", diags)
	}
	in := New(prog)
	in.Stdout = &bytes.Buffer{}
	in.SetMaxProcesses(1)
	in.Start()

	var allErrs []*RuntimeError
	for i := 0; i < 2; i++ {
		errs, _ := in.Tick(testDT)
		allErrs = append(allErrs, errs...)
	}
	if len(allErrs) != 1 {
		t.Fatalf("want 1 runtime error once the ceiling of 1 is exceeded by the second spawn, got %d: %v", len(allErrs), allErrs)
	}
}

func TestMaxProcessesZeroMeansUnlimited(t *testing.T) {
	prog, diags := compiler.Compile(`
		process p() { loop { frame(100); } }
		p();
		p();
		p();
	`)
	if len(diags) != 0 {
		t.Fatalf("compile error: %v", diags)
	}
	in := New(prog)
	in.Stdout = &bytes.Buffer{}
	in.Start()

	var allErrs []*RuntimeError
	for i := 0; i < 4; i++ {
		errs, _ := in.Tick(testDT)
		allErrs = append(allErrs, errs...)
	}
	if len(allErrs) != 0 {
		t.Fatalf("want no runtime error with an unlimited ceiling, got %v", allErrs)
	}
	if got := len(in.Processes()); got != 3 {
		t.Fatalf("want all 3 spawned processes visible (root exits once it's done spawning), got %d", got)
	}
}
