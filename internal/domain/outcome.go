package domain

import (
	"errors"
	"fmt"
)

// Step identifies which part of a backup cycle produced a failure.
type Step string

const (
	StepDump   Step = "dump"
	StepUpload Step = "upload"
)

// ErrorKind is the closed set of failure causes a step can report.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindSpawn
	KindExit
	KindNetwork
	KindAuth
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindSpawn:
		return "spawn"
	case KindExit:
		return "exit"
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	default:
		return "other"
	}
}

// Outcome is the result of a backup cycle. It is either Success or *Failure.
type Outcome interface {
	outcome()
}

type Success struct{}

func (Success) outcome() {}

// Failure describes a failed step. Detail is the text shown to users.
type Failure struct {
	Step   Step
	Kind   ErrorKind
	Detail string
	Err    error
}

func (*Failure) outcome() {}

func (f *Failure) Error() string {
	return f.Detail
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure builds a Failure whose detail is the error's text.
func NewFailure(step Step, kind ErrorKind, err error) *Failure {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return &Failure{Step: step, Kind: kind, Detail: detail, Err: err}
}

// AsFailure returns err as a *Failure, wrapping unclassified errors as KindOther.
func AsFailure(step Step, err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return NewFailure(step, KindOther, err)
}

// Succeeded reports whether o is a Success.
func Succeeded(o Outcome) bool {
	_, ok := o.(Success)
	return ok
}

// Describe renders an outcome for logs.
func Describe(o Outcome) string {
	switch v := o.(type) {
	case Success:
		return "success"
	case *Failure:
		return fmt.Sprintf("%s failed (%s): %s", v.Step, v.Kind, v.Detail)
	default:
		return "unknown"
	}
}
