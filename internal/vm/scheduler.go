package vm

import "github.com/akadjoker/budiv/internal/value"

// Start spawns the root `_main_` process and puts it on the run list. It
// must be called exactly once before the first Tick (§3 "main_process").
func (in *Interpreter) Start() *Process {
	in.mainProcess = newProcess(in, in.allocID(), "_main_", true)
	// _main_ has neither a phantom callee slot nor reserved x/y/angle locals
	// (§3: "the only one with no visual default"), so its frame starts at
	// slot 0 directly rather than going through Process.call.
	in.mainProcess.frames[0] = CallFrame{Function: in.rootFn, IP: 0, Slots: 0}
	in.mainProcess.frameCount = 1
	in.linkTail(in.mainProcess)
	return in.mainProcess
}

// spawnProcess clones tmpl into a brand-new Process with its own stacks,
// seeds the three reserved locals (§6: x=360, y=2, angle=30) and the
// caller-supplied arguments, and leaves it ready to run starting at frame 0
// of tmpl.Function -- but not yet linked into the run list (§4.G: spawned
// processes only become visible at the next host frame).
func (in *Interpreter) spawnProcess(tmpl *value.ProcessTemplate, args []value.Value) *Process {
	child := newProcess(in, in.allocID(), tmpl.Name, false)
	child.push(value.Num(360))
	child.push(value.Num(2))
	child.push(value.Num(30))
	for _, a := range args {
		child.push(a)
	}
	child.frames[0] = CallFrame{Function: tmpl.Function, IP: 0, Slots: 0}
	child.frameCount = 1
	return child
}

func (in *Interpreter) enqueueSpawn(p *Process) {
	in.spawnQueue = append(in.spawnQueue, p)
}

func (in *Interpreter) linkTail(p *Process) {
	if in.last == nil {
		in.first, in.last = p, p
		return
	}
	p.prev = in.last
	in.last.next = p
	in.last = p
}

func (in *Interpreter) unlink(p *Process) {
	if p.prev != nil {
		p.prev.next = p.next
	} else {
		in.first = p.next
	}
	if p.next != nil {
		p.next.prev = p.prev
	} else {
		in.last = p.prev
	}
	p.prev, p.next = nil, nil
}

// spliceSpawns moves every queued child onto the tail of the run list. Done
// once at the start of Tick so a process spawned mid-frame never runs
// before the frame that spawned it has fully elapsed (Testable Property 8).
func (in *Interpreter) spliceSpawns() {
	for _, p := range in.spawnQueue {
		in.linkTail(p)
		if in.Log != nil {
			in.Log.Debug("process spawned", "process", p.id, "name", p.name, "frame", in.currentFrameNum)
		}
	}
	in.spawnQueue = in.spawnQueue[:0]
}

// Tick advances every Running process by one host frame of dt seconds
// (§4.E, §4.G). It returns the accumulated RuntimeErrors (an alive process
// crashing does not stop the others) and whether the host loop should stop:
// a registered native called RequestExit, or the run list holds no alive
// process at all (§4.G's "the scheduler returns when ... the run list has
// no alive process" — not specifically the root, see S6: a process the root
// spawned keeps the host loop alive after `_main_` itself has exited).
func (in *Interpreter) Tick(dt float64) (errs []*RuntimeError, shouldStop bool) {
	in.clockSeconds += dt
	in.currentFrameNum++
	in.spliceSpawns()

	for p := in.first; p != nil; p = p.next {
		if p.status != StatusRunning {
			continue
		}
		p.frameTimer += dt
		if p.frameTimer < p.frameInterval {
			continue
		}
		outcome := p.step()
		switch outcome.reason {
		case reasonFrame:
			p.frameTimer -= p.frameInterval
		case reasonSpawnYield:
			// unconditional: not rate-limited, the process picks straight back
			// up on its very next eligible tick.
		case reasonError:
			errs = append(errs, outcome.err)
			if in.Log != nil {
				in.Log.Error("process crashed", "error", outcome.err)
			}
		}
		if in.Log != nil {
			in.Log.Debug("frame advanced", "process", p.id, "reason", outcome.reason, "frame", in.currentFrameNum)
		}
	}

	in.reapDead()

	if in.first == nil {
		in.mustExit = true
	}
	return errs, in.mustExit
}

func (in *Interpreter) reapDead() {
	p := in.first
	for p != nil {
		next := p.next
		if !p.status.alive() {
			if in.Log != nil {
				in.Log.Debug("process reaped", "process", p.id, "name", p.name, "status", p.status.String(), "frame", in.currentFrameNum)
			}
			in.unlink(p)
		}
		p = next
	}
}

// KillProcess implements §9's fixed kill_process contract: it reports
// whether a live process with this id was found and marked Killed, rather
// than silently succeeding on a miss.
func (in *Interpreter) KillProcess(id uint32) bool {
	for p := in.first; p != nil; p = p.next {
		if p.id == id && p.status.alive() {
			p.status = StatusKilled
			return true
		}
	}
	return false
}

// Processes returns every process currently on the run list, in scheduling
// order, for host introspection (diagnostics, tests).
func (in *Interpreter) Processes() []*Process {
	var out []*Process
	for p := in.first; p != nil; p = p.next {
		out = append(out, p)
	}
	return out
}

// FindProcess looks a process up by id among those still on the run list.
func (in *Interpreter) FindProcess(id uint32) (*Process, bool) {
	for p := in.first; p != nil; p = p.next {
		if p.id == id {
			return p, true
		}
	}
	return nil, false
}
