package service

import (
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"

	"github.com/funvibe/tlua/internal/diagnostics"
)

// Request is the Go form of InstrumentRequest.
type Request struct {
	Name          string
	Source        string
	DisableChecks bool
}

// Diagnostic is the Go form of the Diagnostic message.
type Diagnostic struct {
	Code    string
	Line    int
	Column  int
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: error [%s]: %s", d.Line, d.Column, d.Code, d.Message)
}

// Response is the Go form of InstrumentResponse.
type Response struct {
	UnitID      string
	Output      string
	Diagnostics []Diagnostic
	Cached      bool
}

func fromDiagnostic(d *diagnostics.DiagnosticError) Diagnostic {
	return Diagnostic{
		Code:    string(d.Code),
		Line:    d.Token.Line,
		Column:  d.Token.Column,
		Message: d.Message,
	}
}

func (r *Request) toMessage(md *desc.MessageDescriptor) (*dynamic.Message, error) {
	msg := dynamic.NewMessage(md)
	if err := msg.TrySetFieldByName("name", r.Name); err != nil {
		return nil, err
	}
	if err := msg.TrySetFieldByName("source", r.Source); err != nil {
		return nil, err
	}
	if err := msg.TrySetFieldByName("disable_checks", r.DisableChecks); err != nil {
		return nil, err
	}
	return msg, nil
}

func requestFromMessage(msg *dynamic.Message) *Request {
	return &Request{
		Name:          stringField(msg, "name"),
		Source:        stringField(msg, "source"),
		DisableChecks: boolField(msg, "disable_checks"),
	}
}

func (r *Response) toMessage(md *desc.MessageDescriptor) (*dynamic.Message, error) {
	msg := dynamic.NewMessage(md)
	if err := msg.TrySetFieldByName("unit_id", r.UnitID); err != nil {
		return nil, err
	}
	if err := msg.TrySetFieldByName("output", r.Output); err != nil {
		return nil, err
	}
	if err := msg.TrySetFieldByName("cached", r.Cached); err != nil {
		return nil, err
	}

	diagType := md.FindFieldByName("diagnostics").GetMessageType()
	for _, d := range r.Diagnostics {
		dm := dynamic.NewMessage(diagType)
		dm.SetFieldByName("code", d.Code)
		dm.SetFieldByName("line", int32(d.Line))
		dm.SetFieldByName("column", int32(d.Column))
		dm.SetFieldByName("message", d.Message)
		if err := msg.TryAddRepeatedFieldByName("diagnostics", dm); err != nil {
			return nil, err
		}
	}
	return msg, nil
}

func responseFromMessage(msg *dynamic.Message) (*Response, error) {
	resp := &Response{
		UnitID: stringField(msg, "unit_id"),
		Output: stringField(msg, "output"),
		Cached: boolField(msg, "cached"),
	}
	items, _ := msg.GetFieldByName("diagnostics").([]interface{})
	for _, item := range items {
		dm, ok := item.(*dynamic.Message)
		if !ok {
			return nil, fmt.Errorf("unexpected diagnostic value %T", item)
		}
		resp.Diagnostics = append(resp.Diagnostics, Diagnostic{
			Code:    stringField(dm, "code"),
			Line:    int(int32Field(dm, "line")),
			Column:  int(int32Field(dm, "column")),
			Message: stringField(dm, "message"),
		})
	}
	return resp, nil
}

func stringField(msg *dynamic.Message, name string) string {
	s, _ := msg.GetFieldByName(name).(string)
	return s
}

func boolField(msg *dynamic.Message, name string) bool {
	b, _ := msg.GetFieldByName(name).(bool)
	return b
}

func int32Field(msg *dynamic.Message, name string) int32 {
	n, _ := msg.GetFieldByName(name).(int32)
	return n
}
