package prettyprinter

import "github.com/funvibe/tlua/internal/pipeline"

// PrinterProcessor renders ctx.AstRoot into ctx.Output. Width 0 means the
// default of 100 columns.
type PrinterProcessor struct {
	Width int
}

func (pp *PrinterProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.AstRoot == nil || ctx.HasErrors() {
		return ctx
	}
	printer := NewCodePrinter()
	if pp.Width > 0 {
		printer = NewCodePrinterWithWidth(pp.Width)
	}
	ctx.AstRoot.Accept(printer)
	ctx.Output = printer.String()
	return ctx
}
