package rfc7950

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jacoelho/yang/internal/reactor"
)

type boolSupport struct{ reactor.BaseSupport }

func (boolSupport) ParseArgument(_ reactor.Ctx, raw string) (any, error) {
	switch raw {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return nil, fmt.Errorf("%q is not a boolean", raw)
	}
}

// enumSupport accepts one of a fixed set of arguments.
type enumSupport struct {
	reactor.BaseSupport
	values []string
}

func (s enumSupport) ParseArgument(_ reactor.Ctx, raw string) (any, error) {
	if !slices.Contains(s.values, raw) {
		return nil, fmt.Errorf("%q is not one of %s", raw, strings.Join(s.values, ", "))
	}
	return raw, nil
}

type uintSupport struct{ reactor.BaseSupport }

func (uintSupport) ParseArgument(_ reactor.Ctx, raw string) (any, error) {
	if raw == "unbounded" {
		return raw, nil
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// keySupport normalizes the whitespace of a key list.
type keySupport struct{ reactor.BaseSupport }

func (keySupport) ParseArgument(_ reactor.Ctx, raw string) (any, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty key")
	}
	return strings.Join(fields, " "), nil
}
