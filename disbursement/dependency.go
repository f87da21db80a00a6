package disbursement

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MaxDependencyInputBytes bounds the raw serialized dependency field (§4.1).
const MaxDependencyInputBytes = 8 * 1024

// MaxDependencies bounds the parsed, deduplicated dependency list (§4.1).
const MaxDependencies = 100

// ParseError classifies why the dependency field could not be parsed.
type ParseError struct {
	Kind ParseErrorKind
	msg  string
}

// ParseErrorKind enumerates the DPV failure modes (§4.1).
type ParseErrorKind uint8

const (
	ErrSizeExceeded ParseErrorKind = iota
	ErrTooMany
	ErrNotAnInteger
	ErrMalformed
)

func (k ParseErrorKind) String() string {
	switch k {
	case ErrSizeExceeded:
		return "size_exceeded"
	case ErrTooMany:
		return "too_many"
	case ErrNotAnInteger:
		return "not_an_integer"
	case ErrMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

func (e *ParseError) Error() string {
	if e.msg != "" {
		return fmt.Sprintf("dependency parse: %s: %s", e.Kind, e.msg)
	}
	return fmt.Sprintf("dependency parse: %s", e.Kind)
}

func newParseError(kind ParseErrorKind, msg string) *ParseError {
	return &ParseError{Kind: kind, msg: msg}
}

// ParseDependencies accepts the dependency field supplied by governance in
// either of two serializations: a JSON array of unsigned integers, or a
// key=value memo containing a comma-separated integer list (e.g.
// "deps=1,2,3"). It returns a deduplicated, ascending-sorted id list.
func ParseDependencies(raw []byte) ([]uint64, error) {
	if len(raw) > MaxDependencyInputBytes {
		return nil, newParseError(ErrSizeExceeded, fmt.Sprintf("%d bytes exceeds %d byte limit", len(raw), MaxDependencyInputBytes))
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return []uint64{}, nil
	}

	var ids []uint64
	var err error
	if strings.HasPrefix(trimmed, "[") {
		ids, err = parseJSONArray(trimmed)
	} else {
		ids, err = parseKeyValueCSV(trimmed)
	}
	if err != nil {
		return nil, err
	}
	return dedupeSort(ids)
}

func parseJSONArray(s string) ([]uint64, error) {
	var raw []json.Number
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, newParseError(ErrMalformed, err.Error())
	}
	ids := make([]uint64, 0, len(raw))
	for _, n := range raw {
		id, err := strconv.ParseUint(n.String(), 10, 64)
		if err != nil {
			return nil, newParseError(ErrNotAnInteger, fmt.Sprintf("%q is not an unsigned integer", n.String()))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseKeyValueCSV accepts "key=1,2,3" memos. Everything up to and
// including the first '=' is treated as the key and discarded; a bare,
// unkeyed comma list ("1,2,3") is also accepted.
func parseKeyValueCSV(s string) ([]uint64, error) {
	list := s
	if idx := strings.IndexByte(s, '='); idx >= 0 {
		list = s[idx+1:]
	}
	list = strings.TrimSpace(list)
	if list == "" {
		return []uint64{}, nil
	}
	parts := strings.Split(list, ",")
	ids := make([]uint64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, newParseError(ErrMalformed, "empty element in comma-separated list")
		}
		id, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, newParseError(ErrNotAnInteger, fmt.Sprintf("%q is not an unsigned integer", p))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func dedupeSort(ids []uint64) ([]uint64, error) {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) > MaxDependencies {
		return nil, newParseError(ErrTooMany, fmt.Sprintf("%d unique ids exceeds %d limit", len(out), MaxDependencies))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// StatusLookup is the minimal read surface DependenciesReady needs from the
// persistent store; satisfied by store.Reader.
type StatusLookup interface {
	DisbursementStatus(id uint64) (Status, bool)
}

// ErrStrictUnknownDependency is returned by DependenciesReady in strict mode
// when a dependency id does not resolve to a known disbursement.
var ErrStrictUnknownDependency = errors.New("dependency: unknown dependency id in strict mode")

// DependenciesReady checks that every dependency id maps to status Executed
// or Finalized (§4.1). It fails closed: unknown ids are treated as
// not-ready rather than errors, unless strict is set, in which case an
// unknown id is reported as an error. Self- and mutual-dependency cycles
// resolve to "not ready" indefinitely rather than erroring or looping,
// since the executor assumes governance-time cycle detection but must
// tolerate malformed input without hanging (§4.1).
func DependenciesReady(lookup StatusLookup, deps []uint64, strict bool) (bool, error) {
	for _, id := range deps {
		status, ok := lookup.DisbursementStatus(id)
		if !ok {
			if strict {
				return false, fmt.Errorf("%w: id=%d", ErrStrictUnknownDependency, id)
			}
			return false, nil
		}
		if status != StatusExecuted && status != StatusFinalized {
			return false, nil
		}
	}
	return true, nil
}
