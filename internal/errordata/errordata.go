package errordata

import (
	"context"
)

type key struct{}

var errorDataKey key

// ErrorData holds the internal cause of a failed request. It is logged by the
// request logger and never written to the response.
type ErrorData struct {
	Message string
}

func WithErrorData(ctx context.Context) context.Context {
	ed := &ErrorData{Message: ""}
	return context.WithValue(ctx, errorDataKey, ed)
}

func GetErrorData(ctx context.Context) *ErrorData {
	val := ctx.Value(errorDataKey)
	ed, ok := val.(*ErrorData)
	if !ok {
		return nil
	}
	return ed
}

func (ed *ErrorData) SetMessage(msg string) {
	ed.Message = msg
}

func (ed *ErrorData) HasMessage() bool {
	return ed.Message != ""
}

// Record stores err on ctx when error data is attached. Safe to call with a
// bare context.
func Record(ctx context.Context, err error) {
	if err == nil {
		return
	}
	if ed := GetErrorData(ctx); ed != nil {
		ed.SetMessage(err.Error())
	}
}
