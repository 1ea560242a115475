// Package pipeline provides a small processor-chain runner. The hole
// filling engine drives its per-hole stages through it.
package pipeline

// Processor is one stage of a pipeline.
type Processor[T any] interface {
	Process(state T) T
}

// Func adapts a plain function to the Processor interface.
type Func[T any] func(state T) T

func (f Func[T]) Process(state T) T { return f(state) }

// Pipeline represents a sequence of processing stages.
type Pipeline[T any] struct {
	processors []Processor[T]
}

func New[T any](processors ...Processor[T]) *Pipeline[T] {
	return &Pipeline[T]{processors: processors}
}

// Run executes the pipeline.
func (p *Pipeline[T]) Run(initial T) T {
	state := initial
	for _, processor := range p.processors {
		state = processor.Process(state)
		// Stages decide for themselves whether to act on failed state;
		// the runner never aborts, so diagnostics accumulate.
	}
	return state
}
