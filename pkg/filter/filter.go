// Package filter decides which discovered libraries are vendored.
package filter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	pkgerrors "github.com/glorpus-work/playsync/pkg/errors"
)

// Defaults for Play Services vendoring.
const (
	DefaultPrefix        = "play-"
	DefaultExcludeSuffix = "license"
)

// DefaultDenylist holds libraries that are listed in the repository but must
// never be vendored.
var DefaultDenylist = []string{
	"play-services-contextmanager",
	"play-services-measurement",
	"play-services-instantapps",
	"play-services-vision",
	"play-services-vision-common",
	"play-services-drive",
	"play-services-plus",
	"play-services-wearable",
	"play-services-games",
	"play-services-cast-framework",
	"play-services-appinvite",
	"play-services-appindexing",
	"play-services-all-wear",
	"play-services-fido",
	"play-services-gass",
	"play-services-tagmanager",
	"play-services-awareness",
	"play-services-clearcut",
	"play-services-ads",
	"play-services-ads-lite",
	"play-services-ads-identifier",
	"play-services-ads-base",
	"play-services-phenotype",
	"play-services-vision-image-label",
	"play-services-tagmanager-v4-impl",
	"play-services-tagmanager-api",
	"play-services-afs-native",
	"play-services",
}

// Policy keeps an identifier iff it starts with Prefix, does not end with
// ExcludeSuffix and is not in Denylist. An empty ExcludeSuffix disables the
// suffix rule.
//
// Script is an optional Tengo program run for identifiers that pass the
// static rules. It sees the identifier as `name` and must leave a bool in
// `keep`.
type Policy struct {
	Prefix        string
	ExcludeSuffix string
	Denylist      []string
	Script        string
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		Prefix:        DefaultPrefix,
		ExcludeSuffix: DefaultExcludeSuffix,
		Denylist:      slices.Clone(DefaultDenylist),
	}
}

// Allowed applies the static rules to a single identifier.
func (p Policy) Allowed(id string) bool {
	if !strings.HasPrefix(id, p.Prefix) {
		return false
	}
	if p.ExcludeSuffix != "" && strings.HasSuffix(id, p.ExcludeSuffix) {
		return false
	}
	return !slices.Contains(p.Denylist, id)
}

// Filter returns the identifiers that satisfy the policy, preserving order.
func (p Policy) Filter(ids []string) ([]string, error) {
	var compiled *tengo.Compiled
	if strings.TrimSpace(p.Script) != "" {
		var err error
		if compiled, err = compileScript(p.Script); err != nil {
			return nil, err
		}
	}

	var out []string
	for _, id := range ids {
		if !p.Allowed(id) {
			continue
		}
		if compiled != nil {
			keep, err := runScript(compiled, id)
			if err != nil {
				return nil, err
			}
			if !keep {
				continue
			}
		}
		out = append(out, id)
	}
	return out, nil
}

func compileScript(src string) (*tengo.Compiled, error) {
	script := tengo.NewScript([]byte(src))
	script.SetImports(stdlib.GetModuleMap("strings", "text", "fmt"))
	if err := script.Add("name", ""); err != nil {
		return nil, fmt.Errorf("filter script: %w: %w", pkgerrors.ErrConfig, err)
	}
	if err := script.Add("keep", true); err != nil {
		return nil, fmt.Errorf("filter script: %w: %w", pkgerrors.ErrConfig, err)
	}
	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("filter script does not compile: %w: %w", pkgerrors.ErrConfig, err)
	}
	return compiled, nil
}

func runScript(compiled *tengo.Compiled, id string) (bool, error) {
	if err := compiled.Set("name", id); err != nil {
		return false, fmt.Errorf("filter script: %w: %w", pkgerrors.ErrConfig, err)
	}
	if err := compiled.Set("keep", true); err != nil {
		return false, fmt.Errorf("filter script: %w: %w", pkgerrors.ErrConfig, err)
	}
	if err := compiled.Run(); err != nil {
		return false, fmt.Errorf("filter script failed for %s: %w: %w", id, pkgerrors.ErrConfig, err)
	}
	keep := compiled.Get("keep")
	if _, ok := keep.Value().(bool); !ok {
		return false, fmt.Errorf("filter script must set keep to a bool, got %s for %s: %w",
			keep.ValueType(), id, pkgerrors.ErrConfig)
	}
	return keep.Bool(), nil
}
