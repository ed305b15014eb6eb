package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// isDSTValue is the tri-state --isdst flag: negative lets mktime decide.
type isDSTValue int

var _ pflag.Value = (*isDSTValue)(nil)

func (v *isDSTValue) String() string {
	switch {
	case *v < 0:
		return "auto"
	case *v == 0:
		return "0"
	default:
		return "1"
	}
}

func (v *isDSTValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "auto", "-1":
		*v = -1
	case "0", "no", "false", "std":
		*v = 0
	case "1", "yes", "true", "dst":
		*v = 1
	default:
		return errors.New("want auto, 0 or 1")
	}
	return nil
}

func (v *isDSTValue) Type() string { return "auto|0|1" }

// policyValue is a flag holding one of the tz policy enums.
type policyValue[T fmt.Stringer] struct {
	v     T
	set   bool
	parse func(string) (T, error)
}

func newPolicyValue[T fmt.Stringer](parse func(string) (T, error)) policyValue[T] {
	return policyValue[T]{parse: parse}
}

func (p *policyValue[T]) String() string {
	if !p.set {
		return ""
	}
	return p.v.String()
}

func (p *policyValue[T]) Set(s string) error {
	v, err := p.parse(s)
	if err != nil {
		return err
	}
	p.v, p.set = v, true
	return nil
}

func (p *policyValue[T]) Type() string { return "policy" }
