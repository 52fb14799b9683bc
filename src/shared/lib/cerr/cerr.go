package cerr

import (
	"fmt"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
)

type F = map[string]any

// fieldsError carries structured context alongside a wrapped cause, so the
// fields survive until the error is finally logged.
type fieldsError struct {
	cause  error
	fields F
}

func (f *fieldsError) Error() string { return f.cause.Error() }
func (f *fieldsError) Cause() error  { return f.cause }
func (f *fieldsError) Unwrap() error { return f.cause }

func (f *fieldsError) Format(s fmt.State, verb rune) { errors.FormatError(f, s, verb) }

func (f *fieldsError) FormatError(p errors.Printer) error {
	if p.Detail() {
		p.Printf("fields: %v", f.fields)
	}
	return f.cause
}

type Context struct {
	fields F
}

type Wrapper struct {
	ctx Context
	err error
}

func Field(key string, value any) Context {
	return Context{}.Field(key, value)
}

func Fields(fields F) Context {
	ctx := Context{}
	for k, v := range fields {
		ctx = ctx.Field(k, v)
	}
	return ctx
}

func Wrap(err error) Wrapper {
	return Context{}.Wrap(err)
}

func Error(msg string) error {
	return Context{}.Error(msg)
}

func (c Context) Field(key string, value any) Context {
	fields := make(F, len(c.fields)+1)
	for k, v := range c.fields {
		fields[k] = v
	}
	fields[key] = value

	return Context{fields: fields}
}

func (c Context) Wrap(err error) Wrapper {
	return Wrapper{ctx: c, err: err}
}

func (c Context) Error(msg string) error {
	return c.attach(errors.NewWithDepth(1, msg))
}

func (w Wrapper) Error(msg string) error {
	if w.err == nil {
		return w.ctx.attach(errors.NewWithDepth(1, msg))
	}

	return w.ctx.attach(errors.WrapWithDepth(1, w.err, msg))
}

func (c Context) attach(err error) error {
	if len(c.fields) == 0 {
		return err
	}

	return &fieldsError{cause: err, fields: c.fields}
}

// CollectFields gathers every field attached anywhere in the error chain.
// Fields closer to the root cause win over outer ones with the same key.
func CollectFields(err error) F {
	collected := F{}
	for current := err; current != nil; current = errors.UnwrapOnce(current) {
		if fe, ok := current.(*fieldsError); ok {
			for k, v := range fe.fields {
				collected[k] = v
			}
		}
	}

	return collected
}

func Log(err error) {
	if err == nil {
		return
	}

	log.WithFields(log.Fields(CollectFields(err))).
		WithError(err).
		Error("Unhandled error")
}
