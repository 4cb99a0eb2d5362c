// Package traverse discovers reachable code in a Game Boy program image by
// following control flow from entry points.
package traverse

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"gbdis/internal/sm83"
)

// DefaultEntry is where the boot ROM hands control to the cartridge.
const DefaultEntry sm83.Addr = 0x100

var (
	// RestartVectors are the targets of the eight rst instructions.
	RestartVectors = []sm83.Addr{0x00, 0x08, 0x10, 0x18, 0x20, 0x28, 0x30, 0x38}

	// InterruptVectors are entered by hardware: VBlank, STAT, timer, serial
	// and joypad.
	InterruptVectors = []sm83.Addr{0x40, 0x48, 0x50, 0x58, 0x60}
)

// ErrAddressRange is recorded for queued addresses above sm83.MaxAddr, such
// as a seed given as a file offset into a switchable bank or the fallthrough
// of an instruction ending at $FFFF.
var ErrAddressRange = errors.New("address outside the 16-bit address space")

// AddrError ties a decode failure to the address it happened at.
type AddrError struct {
	Addr sm83.Addr
	Err  error
}

func (e *AddrError) Error() string {
	return fmt.Sprintf("decode at $%04X: %v", e.Addr, e.Err)
}

func (e *AddrError) Unwrap() error { return e.Err }

// Result is the outcome of one traversal run.
type Result struct {
	// Instructions maps every visited address to its decoded instruction.
	Instructions map[sm83.Addr]sm83.Instruction
	// Errors maps addresses whose decoding failed to the failure.
	Errors map[sm83.Addr]error
	// Edges holds the statically known successors of each visited address.
	Edges map[sm83.Addr][]sm83.Addr
	// Entries are the seed addresses in seeding order.
	Entries []sm83.Addr
	// Truncated is set when a limit stopped the run with work still queued.
	Truncated bool
}

func newResult() *Result {
	return &Result{
		Instructions: make(map[sm83.Addr]sm83.Instruction),
		Errors:       make(map[sm83.Addr]error),
		Edges:        make(map[sm83.Addr][]sm83.Addr),
	}
}

// Addresses returns the visited addresses in ascending order.
func (r *Result) Addresses() []sm83.Addr {
	return slices.Sorted(maps.Keys(r.Instructions))
}

// ErrorAddresses returns the failed addresses in ascending order.
func (r *Result) ErrorAddresses() []sm83.Addr {
	return slices.Sorted(maps.Keys(r.Errors))
}

// Option configures an Engine.
type Option func(*Engine)

// WithStopOnError makes the first decode failure end the run. Run then
// returns it as an *AddrError together with the partial result.
func WithStopOnError() Option {
	return func(e *Engine) { e.stopOnError = true }
}

// WithLimit stops the run after n instructions have been decoded. Zero means
// no limit.
func WithLimit(n int) Option {
	return func(e *Engine) { e.limit = n }
}

// WithSeeds adds extra entry points.
func WithSeeds(addrs ...sm83.Addr) Option {
	return func(e *Engine) { e.Seed(addrs...) }
}

// WithVectors seeds the restart and interrupt vectors, reaching handlers that
// only hardware or rst jumps into.
func WithVectors() Option {
	return func(e *Engine) {
		e.Seed(RestartVectors...)
		e.Seed(InterruptVectors...)
	}
}

// WithLogger sets the logger for trace output. slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// Engine owns the work queue and visited map of one traversal run. It is not
// safe for concurrent use.
type Engine struct {
	image       []byte
	queue       []sm83.Addr
	result      *Result
	stopOnError bool
	limit       int
	log         *slog.Logger
	err         error
}

// NewEngine returns an engine over image with nothing queued.
func NewEngine(image []byte, opts ...Option) *Engine {
	e := &Engine{
		image:  image,
		result: newResult(),
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Seed queues entry points. Addresses above sm83.MaxAddr fail with
// ErrAddressRange when they are reached.
func (e *Engine) Seed(addrs ...sm83.Addr) {
	for _, a := range addrs {
		e.result.Entries = append(e.result.Entries, a)
		e.queue = append(e.queue, a)
	}
}

// Pending returns the number of queue entries, duplicates included.
func (e *Engine) Pending() int {
	return len(e.queue)
}

// Err returns the error that stopped the run, if any.
func (e *Engine) Err() error {
	return e.err
}

// Result returns the result accumulated so far. It is complete once Step
// has returned false without an error.
func (e *Engine) Result() *Result {
	return e.result
}

func (e *Engine) done(pc sm83.Addr) bool {
	if _, ok := e.result.Instructions[pc]; ok {
		return true
	}
	_, failed := e.result.Errors[pc]
	return failed
}

// Step decodes the next unvisited queued address. It returns false once the
// queue is drained, the limit is reached or a failure stopped the run.
func (e *Engine) Step() bool {
	if e.err != nil {
		return false
	}
	for len(e.queue) > 0 {
		pc := e.queue[0]
		if e.done(pc) {
			e.queue = e.queue[1:]
			continue
		}
		if e.limit > 0 && len(e.result.Instructions) >= e.limit {
			e.result.Truncated = true
			return false
		}
		e.queue = e.queue[1:]

		inst, err := e.decode(pc)
		if err != nil {
			e.result.Errors[pc] = err
			e.log.Debug("decode failed", "addr", fmt.Sprintf("$%04X", pc), "error", err)
			if e.stopOnError {
				e.err = &AddrError{Addr: pc, Err: err}
				return false
			}
			return true
		}

		e.result.Instructions[pc] = inst
		succ := inst.Effect(pc).Successors()
		if len(succ) > 0 {
			e.result.Edges[pc] = succ
		}
		e.queue = append(e.queue, succ...)
		return true
	}
	return false
}

func (e *Engine) decode(pc sm83.Addr) (sm83.Instruction, error) {
	if pc > sm83.MaxAddr {
		return sm83.Instruction{}, ErrAddressRange
	}
	return sm83.DecodeInstruction(e.image, pc)
}

// Run drains the queue and returns the result. With WithStopOnError the
// first decode failure is returned alongside the partial result.
func (e *Engine) Run() (*Result, error) {
	e.log.Debug("traversal started", "entries", len(e.result.Entries), "image_size", len(e.image))
	for e.Step() {
	}
	e.log.Debug("traversal finished",
		"instructions", len(e.result.Instructions),
		"errors", len(e.result.Errors),
		"truncated", e.result.Truncated)
	return e.result, e.err
}

// Disassemble traverses image from entry. Decode failures are recorded in
// Result.Errors and traversal continues along other paths unless
// WithStopOnError is given.
func Disassemble(image []byte, entry sm83.Addr, opts ...Option) (*Result, error) {
	return NewEngine(image, append([]Option{WithSeeds(entry)}, opts...)...).Run()
}
