package pipeline

// Pipeline runs stages in order over one unit.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run passes ctx through every stage. Stages still run after an earlier one
// reported errors; each stage decides whether it has enough to work with.
func (p *Pipeline) Run(ctx *PipelineContext) *PipelineContext {
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
	}
	return ctx
}

// Then returns a pipeline with more stages appended.
func (p *Pipeline) Then(processors ...Processor) *Pipeline {
	all := make([]Processor, 0, len(p.processors)+len(processors))
	all = append(all, p.processors...)
	return &Pipeline{processors: append(all, processors...)}
}
