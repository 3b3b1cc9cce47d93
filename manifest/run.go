package manifest

import (
	"fmt"
	"reflect"

	"github.com/chazu/polymodel/model"
)

// Result is the outcome of one scenario call.
type Result struct {
	Call   Call
	Label  string
	Got    model.Value
	Err    error
	Pass   bool
	Trace  []string // lifecycle events of the constructed instance
	Leaked []string
}

// Run executes every scenario in m.Calls against r. Scenario failures are
// reported in the results; the returned error is only for calls that could
// not be set up at all (an unknown class name or a malformed method key).
func Run(r *model.Registry, calls []Call) ([]Result, error) {
	results := make([]Result, 0, len(calls))
	for i, call := range calls {
		res, err := runCall(r, call)
		if err != nil {
			return results, fmt.Errorf("call %s: %w", call.label(i), err)
		}
		res.Label = call.label(i)
		res.Pass = res.check()
		if !res.Pass {
			log.Infof("call %s failed: got %v, err %v", res.Label, res.Got, res.Err)
		}
		results = append(results, res)
	}
	return results, nil
}

func runCall(r *model.Registry, call Call) (res Result, err error) {
	res.Call = call
	sig, ok := model.ParseKey(call.Method)
	if !ok {
		return res, fmt.Errorf("bad method key %q", call.Method)
	}
	for _, name := range []string{call.Construct, call.Slice, call.Via, call.View, call.Qualified} {
		if name != "" && r.Lookup(name) == nil {
			return res, fmt.Errorf("%w: %s", model.ErrUnknownClass, name)
		}
	}

	inst, err := r.New(call.Construct, call.Init.Init())
	if err != nil {
		res.Err = err
		return res, nil
	}
	built := inst
	defer func() {
		res.Trace = eventStrings(built)
	}()

	if call.Slice != "" {
		if inst, err = model.SliceTo(inst, r.Lookup(call.Slice)); err != nil {
			res.Err = err
			return res, nil
		}
	}

	view, err := viewFor(r, inst, call)
	if err != nil {
		res.Err = err
		return res, nil
	}

	if call.Qualified != "" {
		res.Got, res.Err = model.InvokeQualified(view, r.Lookup(call.Qualified), sig, call.Args...)
	} else {
		res.Got, res.Err = model.Invoke(view, sig, call.Args...)
	}

	if call.Destroy {
		if err := model.DestroyThrough(view); err != nil && res.Err == nil {
			res.Err = err
		}
		res.Leaked = inst.Leaked()
	}
	return res, nil
}

// viewFor builds the call's view, going through Via first when set.
func viewFor(r *model.Registry, inst *model.Instance, call Call) (model.View, error) {
	if call.Via == "" {
		return model.MakeView(inst, r.Lookup(call.View))
	}
	via, err := model.MakeView(inst, r.Lookup(call.Via))
	if err != nil {
		return model.View{}, err
	}
	return via.Upcast(r.Lookup(call.View))
}

func (res *Result) check() bool {
	if res.Call.ExpectError != "" {
		return model.ErrorKind(res.Err) == res.Call.ExpectError
	}
	if res.Err != nil {
		return false
	}
	return res.Call.Expect == nil || reflect.DeepEqual(res.Got, res.Call.Expect)
}

func eventStrings(inst *model.Instance) []string {
	events := inst.Events()
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.String()
	}
	return out
}
