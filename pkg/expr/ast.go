package expr

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// ErrNotAssignable is returned when assigning into an expression that is not a storage location.
var ErrNotAssignable = errors.New("expression is not assignable")

// Expression is a parsed binding expression.
type Expression interface {
	// Evaluate computes the value against scope. A non-nil tracker records every
	// observable read so the caller can subscribe to the sources.
	Evaluate(scope *Scope, tracker Tracker) (any, error)
	String() string
}

// Assignable expressions can receive a value (from-view direction).
type Assignable interface {
	Expression
	Assign(scope *Scope, value any) error
}

// AccessThis evaluates to the binding context itself ($this), Ancestor hops up first.
type AccessThis struct {
	Ancestor int
}

func (e *AccessThis) Evaluate(scope *Scope, _ Tracker) (any, error) {
	cur := scope
	for i := 0; i < e.Ancestor && cur != nil; i++ {
		cur = cur.Parent
	}
	if cur == nil {
		return nil, nil
	}
	return cur.Context, nil
}

func (e *AccessThis) String() string {
	if e.Ancestor == 0 {
		return "$this"
	}
	return strings.TrimSuffix(strings.Repeat("$parent.", e.Ancestor), ".")
}

// AccessScope reads a name from the scope chain.
type AccessScope struct {
	Name     string
	Ancestor int
}

func (e *AccessScope) Evaluate(scope *Scope, tracker Tracker) (any, error) {
	if scope == nil {
		return nil, nil
	}
	obj := scope.lookup(e.Name, e.Ancestor)
	if obj == nil {
		return nil, nil
	}
	if tracker != nil {
		tracker.Observe(obj, e.Name)
	}
	v, _ := obj.Get(e.Name)
	return v, nil
}

func (e *AccessScope) Assign(scope *Scope, value any) error {
	if scope == nil {
		return fmt.Errorf("assign %s: %w", e.Name, ErrNotAssignable)
	}
	obj := scope.lookup(e.Name, e.Ancestor)
	if obj == nil {
		return fmt.Errorf("assign %s: no binding context", e.Name)
	}
	obj.Set(e.Name, value)
	return nil
}

func (e *AccessScope) String() string {
	return strings.Repeat("$parent.", e.Ancestor) + e.Name
}

// AccessMember reads Name from the value of Object.
type AccessMember struct {
	Object Expression
	Name   string
}

func (e *AccessMember) Evaluate(scope *Scope, tracker Tracker) (any, error) {
	target, err := e.Object.Evaluate(scope, tracker)
	if err != nil {
		return nil, err
	}
	return readKey(target, e.Name, tracker), nil
}

func (e *AccessMember) Assign(scope *Scope, value any) error {
	target, err := e.Object.Evaluate(scope, nil)
	if err != nil {
		return err
	}
	return writeKey(target, e.Name, value)
}

func (e *AccessMember) String() string {
	return e.Object.String() + "." + e.Name
}

// AccessKeyed reads the value of Key from the value of Object (a[k]).
type AccessKeyed struct {
	Object Expression
	Key    Expression
}

func (e *AccessKeyed) Evaluate(scope *Scope, tracker Tracker) (any, error) {
	target, err := e.Object.Evaluate(scope, tracker)
	if err != nil {
		return nil, err
	}
	key, err := e.Key.Evaluate(scope, tracker)
	if err != nil {
		return nil, err
	}
	if list, ok := target.([]any); ok {
		idx, ok := toNumber(key)
		if !ok || idx < 0 || int(idx) >= len(list) {
			return nil, nil
		}
		return list[int(idx)], nil
	}
	return readKey(target, fmt.Sprint(key), tracker), nil
}

func (e *AccessKeyed) Assign(scope *Scope, value any) error {
	target, err := e.Object.Evaluate(scope, nil)
	if err != nil {
		return err
	}
	key, err := e.Key.Evaluate(scope, nil)
	if err != nil {
		return err
	}
	if list, ok := target.([]any); ok {
		idx, ok := toNumber(key)
		if !ok || idx < 0 || int(idx) >= len(list) {
			return fmt.Errorf("index %v out of range", key)
		}
		list[int(idx)] = value
		return nil
	}
	return writeKey(target, fmt.Sprint(key), value)
}

func (e *AccessKeyed) String() string {
	return e.Object.String() + "[" + e.Key.String() + "]"
}

// Literal is a constant value: string, float64, bool or nil.
type Literal struct {
	Value any
}

func (e *Literal) Evaluate(*Scope, Tracker) (any, error) {
	return e.Value, nil
}

func (e *Literal) String() string {
	switch v := e.Value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	}
	return fmt.Sprint(e.Value)
}

// Unary applies ! or - to its operand.
type Unary struct {
	Op      string
	Operand Expression
}

func (e *Unary) Evaluate(scope *Scope, tracker Tracker) (any, error) {
	v, err := e.Operand.Evaluate(scope, tracker)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case "!":
		return !Truthy(v), nil
	case "-":
		n, ok := toNumber(v)
		if !ok {
			return math.NaN(), nil
		}
		return -n, nil
	}
	return nil, fmt.Errorf("unknown unary operator %q", e.Op)
}

func (e *Unary) String() string {
	return e.Op + e.Operand.String()
}

// Binary applies an arithmetic, comparison or logical operator.
type Binary struct {
	Op    string
	Left  Expression
	Right Expression
}

func (e *Binary) Evaluate(scope *Scope, tracker Tracker) (any, error) {
	left, err := e.Left.Evaluate(scope, tracker)
	if err != nil {
		return nil, err
	}

	// Short-circuit operators only evaluate (and track) the right side when needed.
	switch e.Op {
	case "&&":
		if !Truthy(left) {
			return left, nil
		}
		return e.Right.Evaluate(scope, tracker)
	case "||":
		if Truthy(left) {
			return left, nil
		}
		return e.Right.Evaluate(scope, tracker)
	}

	right, err := e.Right.Evaluate(scope, tracker)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case "==":
		return Equal(left, right), nil
	case "!=":
		return !Equal(left, right), nil
	case "+":
		ls, lStr := left.(string)
		rs, rStr := right.(string)
		if lStr || rStr {
			if !lStr {
				ls = stringify(left)
			}
			if !rStr {
				rs = stringify(right)
			}
			return ls + rs, nil
		}
	}

	l, lok := toNumber(left)
	r, rok := toNumber(right)
	switch e.Op {
	case "<", "<=", ">", ">=":
		if ls, ok := left.(string); ok {
			if rs, ok := right.(string); ok {
				return compareStrings(e.Op, ls, rs), nil
			}
		}
		if !lok || !rok {
			return false, nil
		}
		return compareNumbers(e.Op, l, r), nil
	}

	if !lok || !rok {
		return math.NaN(), nil
	}
	switch e.Op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		return l / r, nil
	case "%":
		return math.Mod(l, r), nil
	}
	return nil, fmt.Errorf("unknown binary operator %q", e.Op)
}

func (e *Binary) String() string {
	return "(" + e.Left.String() + " " + e.Op + " " + e.Right.String() + ")"
}

// Conditional is the ternary operator.
type Conditional struct {
	Condition Expression
	Yes       Expression
	No        Expression
}

func (e *Conditional) Evaluate(scope *Scope, tracker Tracker) (any, error) {
	cond, err := e.Condition.Evaluate(scope, tracker)
	if err != nil {
		return nil, err
	}
	if Truthy(cond) {
		return e.Yes.Evaluate(scope, tracker)
	}
	return e.No.Evaluate(scope, tracker)
}

func (e *Conditional) String() string {
	return "(" + e.Condition.String() + " ? " + e.Yes.String() + " : " + e.No.String() + ")"
}

func readKey(target any, key string, tracker Tracker) any {
	switch t := target.(type) {
	case nil:
		return nil
	case Object:
		if tracker != nil {
			tracker.Observe(t, key)
		}
		v, _ := t.Get(key)
		return v
	case map[string]any:
		return t[key]
	}

	rv := reflect.ValueOf(target)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		f := rv.FieldByName(key)
		if f.IsValid() && f.CanInterface() {
			return f.Interface()
		}
	}
	return nil
}

func writeKey(target any, key string, value any) error {
	switch t := target.(type) {
	case nil:
		return fmt.Errorf("assign %s on null: %w", key, ErrNotAssignable)
	case Object:
		t.Set(key, value)
		return nil
	case map[string]any:
		t[key] = value
		return nil
	}

	rv := reflect.ValueOf(target)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Kind() == reflect.Struct {
		f := rv.Elem().FieldByName(key)
		if f.IsValid() && f.CanSet() {
			val := reflect.ValueOf(value)
			if value == nil {
				f.Set(reflect.Zero(f.Type()))
				return nil
			}
			if val.Type().AssignableTo(f.Type()) {
				f.Set(val)
				return nil
			}
			if val.Type().ConvertibleTo(f.Type()) {
				f.Set(val.Convert(f.Type()))
				return nil
			}
			return fmt.Errorf("assign %s: cannot use %T as %s", key, value, f.Type())
		}
	}
	return fmt.Errorf("assign %s on %T: %w", key, target, ErrNotAssignable)
}

// Truthy mirrors the usual binding-language truthiness rules.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	case int:
		return t != 0
	}
	return true
}

// Same reports whether a change from a to b is no change at all. It is Equal
// except that NaN is the same as NaN.
func Same(a, b any) bool {
	if an, ok := toNumberStrict(a); ok && math.IsNaN(an) {
		bn, ok := toNumberStrict(b)
		return ok && math.IsNaN(bn)
	}
	return Equal(a, b)
}

// Equal is the == of the expression language: numeric equality across numeric
// kinds, deep equality for slices, maps, structs and arrays, == otherwise.
func Equal(a, b any) bool {
	if an, ok := toNumberStrict(a); ok {
		if bn, ok := toNumberStrict(b); ok {
			return an == bn
		}
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	switch ta.Kind() {
	case reflect.Struct, reflect.Array:
		// == panics when a nested interface holds a slice or map
		return reflect.DeepEqual(a, b)
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func toNumberStrict(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint:
		return float64(n), true
	}
	return 0, false
}

func toNumber(v any) (float64, bool) {
	if n, ok := toNumberStrict(v); ok {
		return n, true
	}
	switch t := v.(type) {
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case nil:
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func compareNumbers(op string, l, r float64) bool {
	switch op {
	case "<":
		return l < r
	case "<=":
		return l <= r
	case ">":
		return l > r
	}
	return l >= r
}

func compareStrings(op, l, r string) bool {
	switch op {
	case "<":
		return l < r
	case "<=":
		return l <= r
	case ">":
		return l > r
	}
	return l >= r
}
